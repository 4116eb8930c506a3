package storage

import (
	"context"
	"fmt"
	"io"
)

// ObjectStorage defines the interface for object storage operations.
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the URL for accessing an object
	GetURL(key string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)

	// EnsureBucket creates the backing bucket if it doesn't exist
	EnsureBucket(ctx context.Context) error
}

// VideoKey returns the storage key for an uploaded video file.
func VideoKey(videoID, filename string) string {
	return fmt.Sprintf("videos/%s/%s", videoID, filename)
}

// FrameKey returns the storage key for an extracted frame still.
func FrameKey(videoID, frameID string) string {
	return fmt.Sprintf("frames/%s/%s.png", videoID, frameID)
}

// ExportKey returns the storage key for a packaged export archive.
func ExportKey(exportID, ext string) string {
	return fmt.Sprintf("exports/%s.%s", exportID, ext)
}
