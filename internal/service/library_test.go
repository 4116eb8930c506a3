package service

import (
	"context"
	"strings"
	"testing"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/repository"
	"github.com/drivesearch/drivesearch/internal/storage"
)

func newLibraryFixture(t *testing.T) (*LibraryService, *repository.FrameRepository, *storage.MemoryStorage) {
	t.Helper()
	db := newTestDB(t)
	videoRepo := repository.NewVideoRepository(db)
	frameRepo := repository.NewFrameRepository(db)
	store := storage.NewMemoryStorage("memory://test")
	svc := NewLibraryService(videoRepo, frameRepo, store, testLogger())
	return svc, frameRepo, store
}

func TestUploadCreatesQueuedVideo(t *testing.T) {
	svc, _, store := newLibraryFixture(t)
	ctx := context.Background()

	payload := strings.Repeat("x", 10<<20) // ~10 MiB, ~10s estimated
	result, err := svc.Upload(ctx, "city_drive.mp4", strings.NewReader(payload), int64(len(payload)),
		&domain.VideoMetadata{Weather: "rain", TimeOfDay: "night"})
	if err != nil {
		t.Fatalf("upload: unexpected error: %v", err)
	}

	v := result.Video
	if v.ProcessingStatus != domain.ProcessingQueued {
		t.Errorf("status: got %q, want %q", v.ProcessingStatus, domain.ProcessingQueued)
	}
	if v.Weather != "rain" || v.TimeOfDay != "night" {
		t.Errorf("metadata not applied: weather=%q time_of_day=%q", v.Weather, v.TimeOfDay)
	}
	if v.DurationSeconds <= 0 {
		t.Error("expected a positive duration estimate")
	}
	if result.EstimatedProcessingTime != v.DurationSeconds/2 {
		t.Errorf("estimate: got %g, want %g", result.EstimatedProcessingTime, v.DurationSeconds/2)
	}

	exists, err := store.Exists(ctx, v.StorageKey)
	if err != nil || !exists {
		t.Errorf("video object not stored: exists=%t err=%v", exists, err)
	}

	fetched, err := svc.Get(ctx, v.ID)
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
	if fetched.Filename != "city_drive.mp4" {
		t.Errorf("filename: got %q", fetched.Filename)
	}
}

func TestProcessExtractsFrames(t *testing.T) {
	svc, frameRepo, store := newLibraryFixture(t)
	ctx := context.Background()

	payload := strings.Repeat("x", 20<<20) // ~20s, 4 frames at the 5s interval
	result, err := svc.Upload(ctx, "highway.mp4", strings.NewReader(payload), int64(len(payload)), nil)
	if err != nil {
		t.Fatalf("upload: unexpected error: %v", err)
	}

	if err := svc.Process(ctx, result.Video.ID); err != nil {
		t.Fatalf("process: unexpected error: %v", err)
	}

	video, err := svc.Get(ctx, result.Video.ID)
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
	if video.ProcessingStatus != domain.ProcessingCompleted || !video.IsProcessed {
		t.Fatalf("video not completed: status=%q processed=%t", video.ProcessingStatus, video.IsProcessed)
	}

	frames, err := frameRepo.ListByVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("list frames: unexpected error: %v", err)
	}
	if len(frames) != video.FramesExtracted {
		t.Errorf("frame count mismatch: %d rows vs %d recorded", len(frames), video.FramesExtracted)
	}
	if len(frames) < 2 {
		t.Fatalf("expected multiple frames, got %d", len(frames))
	}
	for i, f := range frames {
		if f.TimestampSeconds != float64(i)*frameInterval {
			t.Errorf("frame %d timestamp: got %g, want %g", i, f.TimestampSeconds, float64(i)*frameInterval)
		}
		if f.Caption == "" {
			t.Errorf("frame %d has no caption", i)
		}
		exists, err := store.Exists(ctx, f.StorageKey)
		if err != nil || !exists {
			t.Errorf("frame %d still not stored: exists=%t err=%v", i, exists, err)
		}
	}

	// Processing an already processed video is a no-op.
	if err := svc.Process(ctx, video.ID); err != nil {
		t.Errorf("reprocess: unexpected error: %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	svc, frameRepo, store := newLibraryFixture(t)
	ctx := context.Background()

	payload := strings.Repeat("x", 10<<20)
	result, err := svc.Upload(ctx, "dusk.mkv", strings.NewReader(payload), int64(len(payload)), nil)
	if err != nil {
		t.Fatalf("upload: unexpected error: %v", err)
	}
	if err := svc.Process(ctx, result.Video.ID); err != nil {
		t.Fatalf("process: unexpected error: %v", err)
	}

	frames, err := frameRepo.ListByVideo(ctx, result.Video.ID)
	if err != nil || len(frames) == 0 {
		t.Fatalf("expected frames before delete: n=%d err=%v", len(frames), err)
	}

	if err := svc.Delete(ctx, result.Video.ID); err != nil {
		t.Fatalf("delete: unexpected error: %v", err)
	}

	if _, err := svc.Get(ctx, result.Video.ID); err == nil {
		t.Error("expected the video record to be gone")
	}
	left, err := frameRepo.ListByVideo(ctx, result.Video.ID)
	if err != nil {
		t.Fatalf("list frames after delete: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("expected frames to cascade, %d left", len(left))
	}
	for _, f := range frames {
		if exists, _ := store.Exists(ctx, f.StorageKey); exists {
			t.Errorf("frame object %s not removed", f.StorageKey)
		}
	}
	if exists, _ := store.Exists(ctx, result.Video.StorageKey); exists {
		t.Error("video object not removed")
	}
}

func TestEstimateDurationBounds(t *testing.T) {
	testCases := []struct {
		name  string
		bytes int64
		want  float64
	}{
		{name: "tiny file clamps to minimum", bytes: 1024, want: frameInterval},
		{name: "mid size scales linearly", bytes: 60 << 20, want: 60},
		{name: "huge file clamps to maximum", bytes: 10 << 30, want: 300},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := estimateDuration(tc.bytes); got != tc.want {
				t.Errorf("got %g, want %g", got, tc.want)
			}
		})
	}
}
