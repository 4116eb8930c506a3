package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/logger"
	"github.com/drivesearch/drivesearch/internal/repository"
	"github.com/drivesearch/drivesearch/internal/storage"
	"github.com/google/uuid"
)

// frameInterval is the simulated extraction rate: one still every 5 seconds.
const frameInterval = 5.0

// LibraryService manages the video library: listing, uploads, deletes, and
// the simulated processing that stands in for the production pipeline's
// frame extraction and embedding generation.
type LibraryService struct {
	videoRepo *repository.VideoRepository
	frameRepo *repository.FrameRepository
	store     storage.ObjectStorage
	log       *logger.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	videoRepo *repository.VideoRepository,
	frameRepo *repository.FrameRepository,
	store storage.ObjectStorage,
	log *logger.Logger,
) *LibraryService {
	return &LibraryService{
		videoRepo: videoRepo,
		frameRepo: frameRepo,
		store:     store,
		log:       log,
	}
}

// List returns the videos visible to the user, optionally filtered.
func (s *LibraryService) List(ctx context.Context, filters *domain.VideoFilters) ([]domain.Video, error) {
	return s.videoRepo.List(ctx, filters)
}

// Get returns a single video with its processing progress.
func (s *LibraryService) Get(ctx context.Context, id string) (*domain.Video, error) {
	return s.videoRepo.GetByID(ctx, id)
}

// UploadResult describes an accepted upload.
type UploadResult struct {
	Video                   *domain.Video
	EstimatedProcessingTime float64
}

// Upload stores the file, creates a queued video record, and returns the
// processing estimate. Processing itself runs asynchronously via Process.
func (s *LibraryService) Upload(ctx context.Context, filename string, reader io.Reader, size int64, meta *domain.VideoMetadata) (*UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if size <= 0 {
		size = int64(len(data))
	}

	video := &domain.Video{
		ID:               uuid.New().String(),
		Filename:         filename,
		SizeBytes:        size,
		DurationSeconds:  estimateDuration(size),
		FPS:              30,
		Width:            1920,
		Height:           1080,
		ProcessingStatus: domain.ProcessingQueued,
	}
	if meta != nil {
		video.Weather = meta.Weather
		video.TimeOfDay = meta.TimeOfDay
	}
	video.StorageKey = storage.VideoKey(video.ID, filename)

	if err := s.store.Upload(ctx, video.StorageKey, bytes.NewReader(data), size, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("failed to store video: %w", err)
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}

	ctx = logger.SetVideoID(ctx, video.ID)
	logger.With(logger.Fields{logger.FieldSize: size}).
		Info(ctx, "Upload accepted: filename=%s", filename)

	return &UploadResult{
		Video:                   video,
		EstimatedProcessingTime: video.DurationSeconds / 2,
	}, nil
}

// Process simulates the backend pipeline for an uploaded video: extracts
// placeholder stills at a fixed interval, then marks the video processed.
// The production system does this with real frame extraction and CLIP
// embeddings on worker nodes.
func (s *LibraryService) Process(ctx context.Context, videoID string) error {
	ctx = logger.SetVideoID(ctx, videoID)

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("failed to load video: %w", err)
	}
	if video.IsProcessed {
		return nil
	}

	video.ProcessingStatus = domain.ProcessingRunning
	if err := s.videoRepo.Update(ctx, video); err != nil {
		return err
	}

	frameCount := int(video.DurationSeconds / frameInterval)
	if frameCount < 1 {
		frameCount = 1
	}

	frames := make([]domain.Frame, 0, frameCount)
	for i := 0; i < frameCount; i++ {
		frame := domain.Frame{
			ID:               uuid.New().String(),
			VideoID:          video.ID,
			TimestampSeconds: float64(i) * frameInterval,
			Caption:          frameCaption(video, i),
			Weather:          video.Weather,
			TimeOfDay:        video.TimeOfDay,
		}
		frame.StorageKey = storage.FrameKey(video.ID, frame.ID)

		still := RenderStill(frame.ID)
		if err := s.store.Upload(ctx, frame.StorageKey, bytes.NewReader(still), int64(len(still)), "image/png"); err != nil {
			video.ProcessingStatus = domain.ProcessingFailed
			_ = s.videoRepo.Update(ctx, video)
			return fmt.Errorf("failed to store frame still: %w", err)
		}
		frames = append(frames, frame)
	}

	if err := s.frameRepo.CreateBatch(ctx, frames); err != nil {
		video.ProcessingStatus = domain.ProcessingFailed
		_ = s.videoRepo.Update(ctx, video)
		return fmt.Errorf("failed to persist frames: %w", err)
	}

	video.ProcessingStatus = domain.ProcessingCompleted
	video.IsProcessed = true
	video.FramesExtracted = len(frames)
	video.EmbeddingsGenerated = len(frames)
	if err := s.videoRepo.Update(ctx, video); err != nil {
		return err
	}

	logger.With(logger.Fields{logger.FieldCount: len(frames)}).
		Info(ctx, "Processing completed")
	return nil
}

// Delete removes a video, its frames, and the stored objects. Irreversible.
func (s *LibraryService) Delete(ctx context.Context, videoID string) error {
	ctx = logger.SetVideoID(ctx, videoID)

	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}

	frames, err := s.frameRepo.ListByVideo(ctx, videoID)
	if err != nil {
		return err
	}
	for _, frame := range frames {
		if frame.StorageKey != "" {
			if err := s.store.Delete(ctx, frame.StorageKey); err != nil {
				logger.CtxWarn(ctx, "Failed to delete frame object: key=%s, error=%v", frame.StorageKey, err)
			}
		}
	}
	if video.StorageKey != "" {
		if err := s.store.Delete(ctx, video.StorageKey); err != nil {
			logger.CtxWarn(ctx, "Failed to delete video object: key=%s, error=%v", video.StorageKey, err)
		}
	}

	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return err
	}

	logger.CtxInfo(ctx, "Video deleted")
	return nil
}

// estimateDuration fabricates a plausible duration from the file size. The
// real duration comes from the container headers, which the demo does not
// parse.
func estimateDuration(sizeBytes int64) float64 {
	seconds := float64(sizeBytes) / (1 << 20) // ~1 MiB per second of footage
	if seconds < frameInterval {
		return frameInterval
	}
	if seconds > 300 {
		return 300
	}
	return seconds
}

func frameCaption(video *domain.Video, index int) string {
	parts := []string{"driving scene"}
	if video.Weather != "" {
		parts = append(parts, video.Weather)
	}
	if video.TimeOfDay != "" {
		parts = append(parts, video.TimeOfDay)
	}
	parts = append(parts, fmt.Sprintf("segment %d", index+1))
	return strings.Join(parts, ", ")
}
