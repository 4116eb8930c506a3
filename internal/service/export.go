package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/logger"
	"github.com/drivesearch/drivesearch/internal/repository"
	"github.com/drivesearch/drivesearch/internal/storage"
	"github.com/google/uuid"
)

// ErrExportNotReady is returned when a download is requested before the
// export job has completed.
var ErrExportNotReady = errors.New("export is not ready for download")

// ExportConfig holds configuration for the export service.
type ExportConfig struct {
	Workers int
}

// ExportService packages selected frames into downloadable archives. Jobs
// are processed asynchronously by a small worker pool and move through
// pending, processing, and a terminal completed or failed state.
type ExportService struct {
	exportRepo *repository.ExportRepository
	frameRepo  *repository.FrameRepository
	store      storage.ObjectStorage
	log        *logger.Logger
	workers    int

	queue chan string
	wg    sync.WaitGroup
}

// NewExportService creates a new export service.
func NewExportService(
	exportRepo *repository.ExportRepository,
	frameRepo *repository.FrameRepository,
	store storage.ObjectStorage,
	log *logger.Logger,
	cfg *ExportConfig,
) *ExportService {
	workers := 2
	if cfg != nil && cfg.Workers > 0 {
		workers = cfg.Workers
	}
	return &ExportService{
		exportRepo: exportRepo,
		frameRepo:  frameRepo,
		store:      store,
		log:        log,
		workers:    workers,
		queue:      make(chan string, 64),
	}
}

// Start launches the worker pool and re-enqueues jobs left pending by a
// previous run. Workers exit when ctx is canceled.
func (s *ExportService) Start(ctx context.Context) error {
	pending, err := s.exportRepo.ListPending(ctx, cap(s.queue))
	if err != nil {
		return fmt.Errorf("failed to list pending exports: %w", err)
	}

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go func(workerID int) {
			defer s.wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	for _, job := range pending {
		select {
		case s.queue <- job.ExportID:
		default:
			logger.CtxWarn(ctx, "Export queue full, job stays pending: export_id=%s", job.ExportID)
		}
	}
	return nil
}

// Wait blocks until all workers have exited.
func (s *ExportService) Wait() {
	s.wg.Wait()
}

func (s *ExportService) worker(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		case exportID := <-s.queue:
			jobCtx := logger.SetExportID(ctx, exportID)
			if err := s.process(jobCtx, exportID); err != nil {
				logger.CtxError(jobCtx, "Export failed: worker=%d, error=%v", workerID, err)
			}
		}
	}
}

// Create validates and records a new export job and hands it to the workers.
func (s *ExportService) Create(ctx context.Context, frameIDs []string, format domain.ExportFormat) (*domain.ExportJob, error) {
	if len(frameIDs) == 0 {
		return nil, fmt.Errorf("frame_ids must not be empty")
	}
	if !format.Valid() {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	job := &domain.ExportJob{
		ExportID:   uuid.New().String(),
		Status:     domain.ExportPending,
		FrameIDs:   frameIDs,
		FrameCount: len(frameIDs),
		Format:     format,
	}
	if err := s.exportRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create export job: %w", err)
	}

	select {
	case s.queue <- job.ExportID:
	default:
		// Queue full; the job stays pending and is picked up on restart.
	}

	logger.With(logger.Fields{logger.FieldCount: len(frameIDs)}).
		Info(logger.SetExportID(ctx, job.ExportID), "Export job created: format=%s", format)
	return job, nil
}

// Get returns the current state of an export job.
func (s *ExportService) Get(ctx context.Context, exportID string) (*domain.ExportJob, error) {
	return s.exportRepo.GetByID(ctx, exportID)
}

// Download streams a completed archive. Returns ErrExportNotReady while the
// job is in any non-completed state.
func (s *ExportService) Download(ctx context.Context, exportID string) (io.ReadCloser, *domain.ExportJob, error) {
	job, err := s.exportRepo.GetByID(ctx, exportID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != domain.ExportCompleted {
		return nil, job, ErrExportNotReady
	}

	reader, err := s.store.Download(ctx, job.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return reader, job, nil
}

// Delete removes an export job and its archive.
func (s *ExportService) Delete(ctx context.Context, exportID string) error {
	job, err := s.exportRepo.GetByID(ctx, exportID)
	if err != nil {
		return err
	}
	if job.StorageKey != "" {
		if err := s.store.Delete(ctx, job.StorageKey); err != nil {
			logger.CtxWarn(ctx, "Failed to delete archive object: key=%s, error=%v", job.StorageKey, err)
		}
	}
	return s.exportRepo.Delete(ctx, exportID)
}

// process builds the archive for one job and moves it to a terminal state.
func (s *ExportService) process(ctx context.Context, exportID string) error {
	if err := s.exportRepo.MarkProcessing(ctx, exportID); err != nil {
		return err
	}

	job, err := s.exportRepo.GetByID(ctx, exportID)
	if err != nil {
		return err
	}

	frames, err := s.frameRepo.GetByIDs(ctx, job.FrameIDs)
	if err != nil {
		s.fail(ctx, exportID, "failed to load frames: "+err.Error())
		return err
	}
	if len(frames) == 0 {
		err := fmt.Errorf("no frames found for export")
		s.fail(ctx, exportID, err.Error())
		return err
	}

	archive, contentType, err := s.buildArchive(ctx, job.Format, frames)
	if err != nil {
		s.fail(ctx, exportID, err.Error())
		return err
	}

	key := storage.ExportKey(exportID, job.Format.Extension())
	if err := s.store.Upload(ctx, key, bytes.NewReader(archive), int64(len(archive)), contentType); err != nil {
		s.fail(ctx, exportID, "failed to store archive: "+err.Error())
		return err
	}

	if err := s.exportRepo.MarkCompleted(ctx, exportID, key, int64(len(archive))); err != nil {
		return err
	}

	logger.With(logger.Fields{
		logger.FieldSize:  len(archive),
		logger.FieldCount: len(frames),
	}).Info(ctx, "Export completed: format=%s", job.Format)
	return nil
}

func (s *ExportService) fail(ctx context.Context, exportID, message string) {
	if err := s.exportRepo.MarkFailed(ctx, exportID, message); err != nil {
		logger.CtxError(ctx, "Failed to mark export failed: error=%v", err)
	}
}

// buildArchive packages the frames per format: csv is a metadata table, zip
// holds the frame stills, dataset bundles stills with a manifest and labels.
func (s *ExportService) buildArchive(ctx context.Context, format domain.ExportFormat, frames []domain.Frame) ([]byte, string, error) {
	switch format {
	case domain.FormatCSV:
		data, err := framesCSV(frames)
		return data, "text/csv", err
	case domain.FormatZip:
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		if err := s.addStills(ctx, zw, frames); err != nil {
			return nil, "", err
		}
		if err := zw.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "application/zip", nil
	case domain.FormatDataset:
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		if err := s.addStills(ctx, zw, frames); err != nil {
			return nil, "", err
		}

		manifest, err := json.MarshalIndent(frames, "", "  ")
		if err != nil {
			return nil, "", err
		}
		w, err := zw.Create("manifest.json")
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(manifest); err != nil {
			return nil, "", err
		}

		labels, err := framesCSV(frames)
		if err != nil {
			return nil, "", err
		}
		w, err = zw.Create("labels.csv")
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(labels); err != nil {
			return nil, "", err
		}

		if err := zw.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "application/zip", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %q", format)
	}
}

func (s *ExportService) addStills(ctx context.Context, zw *zip.Writer, frames []domain.Frame) error {
	for _, frame := range frames {
		reader, err := s.store.Download(ctx, frame.StorageKey)
		if err != nil {
			return fmt.Errorf("failed to read frame %s: %w", frame.ID, err)
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return fmt.Errorf("failed to read frame %s: %w", frame.ID, err)
		}

		w, err := zw.Create(fmt.Sprintf("frames/%s.png", frame.ID))
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

func framesCSV(frames []domain.Frame) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"frame_id", "video_id", "timestamp", "weather", "time_of_day", "caption"}); err != nil {
		return nil, err
	}
	for _, f := range frames {
		record := []string{
			f.ID,
			f.VideoID,
			strconv.FormatFloat(f.TimestampSeconds, 'f', 2, 64),
			f.Weather,
			f.TimeOfDay,
			f.Caption,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
