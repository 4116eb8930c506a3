package service

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/drivesearch/drivesearch/internal/config"
	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/logger"
	"github.com/drivesearch/drivesearch/internal/repository"
	"github.com/drivesearch/drivesearch/internal/storage"
	"gorm.io/gorm"
)

// newTestDB opens a throwaway SQLite database with migrations applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "test.db"),
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("failed to init test database: %v", err)
	}
	return db
}

func testLogger() *logger.Logger {
	return logger.New(&logger.Config{Level: "error", Format: "text"})
}

// seedFrame persists a frame and its placeholder still.
func seedFrame(t *testing.T, frameRepo *repository.FrameRepository, store storage.ObjectStorage, frame domain.Frame) {
	t.Helper()
	if frame.StorageKey == "" {
		frame.StorageKey = storage.FrameKey(frame.VideoID, frame.ID)
	}
	still := RenderStill(frame.ID)
	if err := store.Upload(context.Background(), frame.StorageKey, bytes.NewReader(still), int64(len(still)), "image/png"); err != nil {
		t.Fatalf("failed to store still for %s: %v", frame.ID, err)
	}
	if err := frameRepo.CreateBatch(context.Background(), []domain.Frame{frame}); err != nil {
		t.Fatalf("failed to seed frame %s: %v", frame.ID, err)
	}
}
