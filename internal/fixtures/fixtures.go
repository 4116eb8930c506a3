// Package fixtures seeds the demo server with a small deterministic driving
// footage library so search and export work out of the box, before anyone
// uploads a video.
package fixtures

import (
	"bytes"
	"context"
	"fmt"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/logger"
	"github.com/drivesearch/drivesearch/internal/repository"
	"github.com/drivesearch/drivesearch/internal/service"
	"github.com/drivesearch/drivesearch/internal/storage"
)

// demoVideo is one seeded video with its frame captions. One frame is
// generated per caption, spaced at the standard extraction interval.
type demoVideo struct {
	id        string
	filename  string
	weather   string
	timeOfDay string
	captions  []string
}

// demoVideos mirrors the kind of footage the product demos with: urban
// driving clips under varied weather and light.
var demoVideos = []demoVideo{
	{
		id:        "demo-video-001",
		filename:  "downtown_day_clear.mp4",
		weather:   "clear",
		timeOfDay: "day",
		captions: []string{
			"pedestrians crossing street at signalized intersection",
			"cyclist riding in bike lane next to parked cars",
			"delivery truck double parked blocking right lane",
			"traffic light turning red, vehicles braking",
			"pedestrian with stroller waiting at crosswalk",
			"bus pulling into bus stop, passengers boarding",
		},
	},
	{
		id:        "demo-video-002",
		filename:  "highway_night_rain.mp4",
		weather:   "rain",
		timeOfDay: "night",
		captions: []string{
			"wet highway at night, headlight glare on asphalt",
			"truck overtaking in left lane, heavy spray",
			"lane markings partially obscured by rain",
			"emergency vehicle on shoulder with flashing lights",
			"car merging from on-ramp in low visibility",
		},
	},
	{
		id:        "demo-video-003",
		filename:  "suburb_dusk_fog.mp4",
		weather:   "fog",
		timeOfDay: "dusk",
		captions: []string{
			"residential street at dusk, low fog over road",
			"deer standing near road edge in fog",
			"stop sign barely visible through fog",
			"children playing near parked school bus",
			"oncoming car with high beams in fog",
		},
	},
	{
		id:        "demo-video-004",
		filename:  "downtown_night_clear.mp4",
		weather:   "clear",
		timeOfDay: "night",
		captions: []string{
			"pedestrians crossing against signal at night",
			"taxi stopping abruptly for passenger pickup",
			"motorcycle lane splitting between vehicles",
			"construction zone with cones narrowing lanes",
		},
	},
}

const frameInterval = 5.0

// Seed inserts the demo library when the database is empty. Safe to call on
// every startup.
func Seed(
	ctx context.Context,
	videoRepo *repository.VideoRepository,
	frameRepo *repository.FrameRepository,
	store storage.ObjectStorage,
) error {
	count, err := videoRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count videos: %w", err)
	}
	if count > 0 {
		return nil
	}

	totalFrames := 0
	for _, dv := range demoVideos {
		video := &domain.Video{
			ID:                  dv.id,
			Filename:            dv.filename,
			StorageKey:          storage.VideoKey(dv.id, dv.filename),
			DurationSeconds:     float64(len(dv.captions)) * frameInterval,
			FPS:                 30,
			Width:               1920,
			Height:              1080,
			SizeBytes:           int64(len(dv.captions)) * (5 << 20),
			Weather:             dv.weather,
			TimeOfDay:           dv.timeOfDay,
			ProcessingStatus:    domain.ProcessingCompleted,
			IsProcessed:         true,
			FramesExtracted:     len(dv.captions),
			EmbeddingsGenerated: len(dv.captions),
		}
		if err := videoRepo.Create(ctx, video); err != nil {
			return fmt.Errorf("failed to seed video %s: %w", dv.id, err)
		}

		frames := make([]domain.Frame, 0, len(dv.captions))
		for i, caption := range dv.captions {
			frame := domain.Frame{
				ID:               fmt.Sprintf("%s-frame-%03d", dv.id, i+1),
				VideoID:          dv.id,
				TimestampSeconds: float64(i) * frameInterval,
				Caption:          caption,
				Weather:          dv.weather,
				TimeOfDay:        dv.timeOfDay,
			}
			frame.StorageKey = storage.FrameKey(dv.id, frame.ID)

			still := service.RenderStill(frame.ID)
			if err := store.Upload(ctx, frame.StorageKey, bytes.NewReader(still), int64(len(still)), "image/png"); err != nil {
				return fmt.Errorf("failed to store seed still %s: %w", frame.ID, err)
			}
			frames = append(frames, frame)
		}
		if err := frameRepo.CreateBatch(ctx, frames); err != nil {
			return fmt.Errorf("failed to seed frames for %s: %w", dv.id, err)
		}
		totalFrames += len(frames)
	}

	logger.With(logger.Fields{logger.FieldCount: totalFrames}).
		Info(ctx, "Seeded demo library: videos=%d", len(demoVideos))
	return nil
}
