package repository

import (
	"context"
	"time"

	"github.com/drivesearch/drivesearch/internal/domain"
	"gorm.io/gorm"
)

// ExportRepository handles export job data operations.
type ExportRepository struct {
	db *gorm.DB
}

// NewExportRepository creates a new ExportRepository bound to db.
func NewExportRepository(db *gorm.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts a new export job record.
func (r *ExportRepository) Create(ctx context.Context, job *domain.ExportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves an export job by its ID.
func (r *ExportRepository) GetByID(ctx context.Context, exportID string) (*domain.ExportJob, error) {
	var job domain.ExportJob
	if err := r.db.WithContext(ctx).First(&job, "export_id = ?", exportID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkProcessing transitions a job from pending to processing.
func (r *ExportRepository) MarkProcessing(ctx context.Context, exportID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.ExportJob{}).
		Where("export_id = ? AND status = ?", exportID, domain.ExportPending).
		Update("status", domain.ExportProcessing).Error
}

// MarkCompleted transitions a job to completed with its archive metadata.
func (r *ExportRepository) MarkCompleted(ctx context.Context, exportID, storageKey string, sizeBytes int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.ExportJob{}).
		Where("export_id = ?", exportID).
		Updates(map[string]interface{}{
			"status":       domain.ExportCompleted,
			"storage_key":  storageKey,
			"size_bytes":   sizeBytes,
			"completed_at": &now,
		}).Error
}

// MarkFailed transitions a job to failed with an error message.
func (r *ExportRepository) MarkFailed(ctx context.Context, exportID, message string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.ExportJob{}).
		Where("export_id = ?", exportID).
		Updates(map[string]interface{}{
			"status":        domain.ExportFailed,
			"error_message": message,
			"completed_at":  &now,
		}).Error
}

// ListPending returns jobs waiting to be processed, oldest first.
func (r *ExportRepository) ListPending(ctx context.Context, limit int) ([]domain.ExportJob, error) {
	var jobs []domain.ExportJob
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.ExportPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// Delete removes an export job record.
func (r *ExportRepository) Delete(ctx context.Context, exportID string) error {
	return r.db.WithContext(ctx).Delete(&domain.ExportJob{}, "export_id = ?", exportID).Error
}
