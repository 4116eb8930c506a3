package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/logger"
	"github.com/drivesearch/drivesearch/internal/repository"
	"github.com/drivesearch/drivesearch/internal/storage"
)

// SearchConfig holds configuration for the demo search service.
type SearchConfig struct {
	DefaultLimit     int
	MaxLimit         int
	DefaultThreshold float32
}

// SearchService ranks frames against text and image queries. The demo engine
// scores frame captions deterministically; real CLIP embedding and vector
// similarity live in the production backend, not here.
type SearchService struct {
	frameRepo *repository.FrameRepository
	store     storage.ObjectStorage
	log       *logger.Logger

	defaultLimit     int
	maxLimit         int
	defaultThreshold float32
}

// NewSearchService creates a new demo search service.
func NewSearchService(
	frameRepo *repository.FrameRepository,
	store storage.ObjectStorage,
	log *logger.Logger,
	cfg *SearchConfig,
) *SearchService {
	s := &SearchService{
		frameRepo:        frameRepo,
		store:            store,
		log:              log,
		defaultLimit:     10,
		maxLimit:         100,
		defaultThreshold: 0.2,
	}
	if cfg != nil {
		if cfg.DefaultLimit > 0 {
			s.defaultLimit = cfg.DefaultLimit
		}
		if cfg.MaxLimit > 0 {
			s.maxLimit = cfg.MaxLimit
		}
		if cfg.DefaultThreshold > 0 {
			s.defaultThreshold = cfg.DefaultThreshold
		}
	}
	return s
}

// TextSearchRequest represents a text search request.
type TextSearchRequest struct {
	Query               string                `json:"query" binding:"required"`
	Limit               int                   `json:"limit"`
	SimilarityThreshold *float32              `json:"similarity_threshold"`
	Filters             *domain.SearchFilters `json:"filters"`
}

// TextSearch ranks frames by caption relevance to the query.
func (s *SearchService) TextSearch(ctx context.Context, req *TextSearchRequest) (*domain.SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	limit, threshold := s.normalize(req.Limit, req.SimilarityThreshold)

	start := time.Now()
	frames, err := s.frameRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load frames: %w", err)
	}

	queryTokens := tokenize(req.Query)
	resp := s.rank(frames, req.Filters, limit, threshold, func(f *domain.Frame) float32 {
		return captionScore(queryTokens, f.Caption)
	})
	resp.SearchTimeMs = time.Since(start).Milliseconds()

	logger.With(logger.Fields{
		logger.FieldDurationMs: resp.SearchTimeMs,
		logger.FieldCount:      len(resp.Results),
	}).Info(ctx, "Text search completed: query=%q, total_found=%d", req.Query, resp.TotalFound)

	return resp, nil
}

// ImageSearchRequest represents an image search request. ImageDigest is a hex
// digest of the uploaded image bytes; the demo engine derives stable
// pseudo-similarities from it.
type ImageSearchRequest struct {
	ImageDigest         string
	Limit               int
	SimilarityThreshold *float32
	Filters             *domain.SearchFilters
}

// ImageSearch ranks frames against an image query.
func (s *SearchService) ImageSearch(ctx context.Context, req *ImageSearchRequest) (*domain.SearchResponse, error) {
	if req.ImageDigest == "" {
		return nil, fmt.Errorf("image digest must not be empty")
	}
	limit, threshold := s.normalize(req.Limit, req.SimilarityThreshold)

	start := time.Now()
	frames, err := s.frameRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load frames: %w", err)
	}

	resp := s.rank(frames, req.Filters, limit, threshold, func(f *domain.Frame) float32 {
		return digestScore(req.ImageDigest, f.ID)
	})
	resp.SearchTimeMs = time.Since(start).Milliseconds()

	logger.With(logger.Fields{
		logger.FieldDurationMs: resp.SearchTimeMs,
		logger.FieldCount:      len(resp.Results),
	}).Info(ctx, "Image search completed: total_found=%d", resp.TotalFound)

	return resp, nil
}

func (s *SearchService) normalize(limit int, threshold *float32) (int, float32) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	t := s.defaultThreshold
	if threshold != nil {
		t = *threshold
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return limit, t
}

// rank scores frames, drops those below the threshold or outside the
// filters, sorts descending by similarity with ties broken by timestamp,
// and caps to limit. TotalFound counts every frame above the threshold,
// not just the returned page.
func (s *SearchService) rank(
	frames []domain.Frame,
	filters *domain.SearchFilters,
	limit int,
	threshold float32,
	score func(*domain.Frame) float32,
) *domain.SearchResponse {
	matches := make([]domain.SearchResult, 0, limit)
	for i := range frames {
		f := &frames[i]
		if !matchesFilters(f, filters) {
			continue
		}
		sim := score(f)
		if sim < threshold {
			continue
		}
		matches = append(matches, domain.SearchResult{
			FrameID:    f.ID,
			VideoID:    f.VideoID,
			Timestamp:  f.TimestampSeconds,
			Similarity: sim,
			FrameURL:   s.store.GetURL(f.StorageKey),
			Metadata: domain.FrameMetadata{
				Weather:   f.Weather,
				TimeOfDay: f.TimeOfDay,
			},
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Timestamp < matches[j].Timestamp
	})

	total := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	return &domain.SearchResponse{
		Results:    matches,
		TotalFound: total,
	}
}

// matchesFilters applies the optional metadata filters, AND-combined.
func matchesFilters(f *domain.Frame, filters *domain.SearchFilters) bool {
	if filters.Empty() {
		return true
	}
	if filters.Weather != "" && !strings.EqualFold(f.Weather, filters.Weather) {
		return false
	}
	if filters.TimeOfDay != "" && !strings.EqualFold(f.TimeOfDay, filters.TimeOfDay) {
		return false
	}
	return true
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// captionScore is the fraction of query tokens found in the caption.
func captionScore(queryTokens []string, caption string) float32 {
	if len(queryTokens) == 0 {
		return 0
	}
	captionLower := strings.ToLower(caption)
	matched := 0
	for _, token := range queryTokens {
		if strings.Contains(captionLower, token) {
			matched++
		}
	}
	return float32(matched) / float32(len(queryTokens))
}

// digestScore maps an (image digest, frame) pair onto a stable value in [0, 1].
func digestScore(digest, frameID string) float32 {
	h := fnv.New32a()
	h.Write([]byte(digest))
	h.Write([]byte(frameID))
	return float32(h.Sum32()%10000) / 9999.0
}
