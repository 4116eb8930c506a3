package repository

import (
	"context"

	"github.com/drivesearch/drivesearch/internal/domain"
	"gorm.io/gorm"
)

// VideoRepository handles video data operations.
type VideoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new VideoRepository bound to db.
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video record.
func (r *VideoRepository) Create(ctx context.Context, video *domain.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

// Update saves an existing video record.
func (r *VideoRepository) Update(ctx context.Context, video *domain.Video) error {
	return r.db.WithContext(ctx).Save(video).Error
}

// GetByID retrieves a video by its ID.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	var video domain.Video
	if err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

// List retrieves videos ordered by creation time, optionally filtered.
func (r *VideoRepository) List(ctx context.Context, filters *domain.VideoFilters) ([]domain.Video, error) {
	q := r.db.WithContext(ctx).Model(&domain.Video{})
	if filters != nil {
		if filters.Weather != "" {
			q = q.Where("weather = ?", filters.Weather)
		}
		if filters.TimeOfDay != "" {
			q = q.Where("time_of_day = ?", filters.TimeOfDay)
		}
		if filters.Processed != nil {
			q = q.Where("is_processed = ?", *filters.Processed)
		}
	}

	var videos []domain.Video
	if err := q.Order("created_at DESC").Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

// Count returns the number of stored videos.
func (r *VideoRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Video{}).Count(&count).Error
	return count, err
}

// Delete removes a video and its frames. The cascade mirrors the production
// backend, which also drops the frames' embeddings.
func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", id).Delete(&domain.Frame{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Video{}, "id = ?", id).Error
	})
}
