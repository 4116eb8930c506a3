package client

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"sort"
	"strconv"

	"github.com/drivesearch/drivesearch/internal/domain"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultLimit is applied when a query does not specify a result limit.
	DefaultLimit = 10

	// MaxLimit caps the result limit of any single search.
	MaxLimit = 100

	// DefaultThreshold is the similarity threshold applied when unset.
	DefaultThreshold float32 = 0.2
)

// SearchClient submits text and image queries against the frame index.
// Every invocation is a fresh request; nothing is cached beyond the caller's
// own result set.
type SearchClient struct {
	c *Client
}

func newSearchClient(c *Client) *SearchClient {
	return &SearchClient{c: c}
}

// TextQuery describes a text search. Limit and Threshold are optional;
// Filters are additive (AND-combined by the backend).
type TextQuery struct {
	Query     string
	Limit     int
	Threshold *float32
	Filters   *domain.SearchFilters
}

// ImageQuery describes an image search. The image must be JPEG, PNG, or WEBP.
type ImageQuery struct {
	Filename  string
	Reader    io.Reader
	Limit     int
	Threshold *float32
	Filters   *domain.SearchFilters
}

// textSearchBody is the wire shape of POST /api/v1/search/text.
type textSearchBody struct {
	Query               string                `json:"query"`
	Limit               int                   `json:"limit"`
	SimilarityThreshold float32               `json:"similarity_threshold"`
	Filters             *domain.SearchFilters `json:"filters,omitempty"`
}

// SearchByText submits a text query. An empty query fails with
// ValidationError before any request is sent.
func (s *SearchClient) SearchByText(ctx context.Context, q TextQuery) (*domain.SearchResponse, error) {
	if q.Query == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	limit, threshold, err := normalizeParams(q.Limit, q.Threshold)
	if err != nil {
		return nil, err
	}

	body := textSearchBody{
		Query:               q.Query,
		Limit:               limit,
		SimilarityThreshold: threshold,
		Filters:             q.Filters,
	}

	var result domain.SearchResponse
	resp, err := s.c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/api/v1/search/text")
	if err := s.c.checkResponse(resp, err); err != nil {
		return nil, err
	}

	sortResults(result.Results)
	return &result, nil
}

// SearchByImage submits an image query as multipart form data. The image is
// sniffed client-side and rejected with ValidationError when it does not
// decode as JPEG, PNG, or WEBP.
func (s *SearchClient) SearchByImage(ctx context.Context, q ImageQuery) (*domain.SearchResponse, error) {
	if q.Reader == nil {
		return nil, &ValidationError{Field: "file", Reason: "must not be empty"}
	}
	limit, threshold, err := normalizeParams(q.Limit, q.Threshold)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(q.Reader)
	if err != nil {
		return nil, &ValidationError{Field: "file", Reason: "unreadable: " + err.Error()}
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, &ValidationError{Field: "file", Reason: "not a supported image (jpeg, png, webp)"}
	} else if format != "jpeg" && format != "png" && format != "webp" {
		return nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("unsupported image format %q", format)}
	}

	filename := q.Filename
	if filename == "" {
		filename = "query"
	}

	form := map[string]string{
		"limit":                strconv.Itoa(limit),
		"similarity_threshold": strconv.FormatFloat(float64(threshold), 'f', -1, 32),
	}
	if q.Filters != nil {
		if q.Filters.TimeOfDay != "" {
			form["time_of_day"] = q.Filters.TimeOfDay
		}
		if q.Filters.Weather != "" {
			form["weather"] = q.Filters.Weather
		}
	}

	var result domain.SearchResponse
	resp, err := s.c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(data)).
		SetMultipartFormData(form).
		SetResult(&result).
		Post("/api/v1/search/image")
	if err := s.c.checkResponse(resp, err); err != nil {
		return nil, err
	}

	sortResults(result.Results)
	return &result, nil
}

// normalizeParams applies the limit/threshold defaults and bounds.
func normalizeParams(limit int, threshold *float32) (int, float32, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	t := DefaultThreshold
	if threshold != nil {
		t = *threshold
	}
	if t < 0 || t > 1 {
		return 0, 0, &ValidationError{
			Field:  "similarity_threshold",
			Reason: fmt.Sprintf("%g is outside [0.0, 1.0]", t),
		}
	}

	return limit, t, nil
}

// sortResults restores the descending-similarity ordering guarantee in case a
// backend ever returns results out of order. The sort is stable so the
// backend's opaque tie order survives.
func sortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}
