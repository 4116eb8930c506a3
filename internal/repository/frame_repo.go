package repository

import (
	"context"

	"github.com/drivesearch/drivesearch/internal/domain"
	"gorm.io/gorm"
)

// FrameRepository handles frame data operations.
type FrameRepository struct {
	db *gorm.DB
}

// NewFrameRepository creates a new FrameRepository bound to db.
func NewFrameRepository(db *gorm.DB) *FrameRepository {
	return &FrameRepository{db: db}
}

// CreateBatch inserts frames in a single statement.
func (r *FrameRepository) CreateBatch(ctx context.Context, frames []domain.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&frames).Error
}

// GetByIDs retrieves frames by their IDs.
func (r *FrameRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Frame, error) {
	var frames []domain.Frame
	if len(ids) == 0 {
		return frames, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&frames).Error; err != nil {
		return nil, err
	}
	return frames, nil
}

// ListByVideo retrieves the frames of one video ordered by timestamp.
func (r *FrameRepository) ListByVideo(ctx context.Context, videoID string) ([]domain.Frame, error) {
	var frames []domain.Frame
	err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("timestamp_seconds ASC").
		Find(&frames).Error
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// ListAll retrieves every frame, ordered by video and timestamp. The demo
// search engine scores over the full set; the fixture corpus is small.
func (r *FrameRepository) ListAll(ctx context.Context) ([]domain.Frame, error) {
	var frames []domain.Frame
	err := r.db.WithContext(ctx).
		Order("video_id ASC, timestamp_seconds ASC").
		Find(&frames).Error
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// CountByVideo returns the number of frames extracted for a video.
func (r *FrameRepository) CountByVideo(ctx context.Context, videoID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Frame{}).
		Where("video_id = ?", videoID).
		Count(&count).Error
	return count, err
}
