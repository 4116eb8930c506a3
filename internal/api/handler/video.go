package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/logger"
	"github.com/drivesearch/drivesearch/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// allowedVideoExts are the container formats accepted for upload.
var allowedVideoExts = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// VideoHandler handles the video library endpoints.
type VideoHandler struct {
	library       *service.LibraryService
	maxUploadSize int64
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(library *service.LibraryService, maxUploadSize int64) *VideoHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 1 << 30
	}
	return &VideoHandler{
		library:       library,
		maxUploadSize: maxUploadSize,
	}
}

// List handles GET /api/v1/videos with optional weather, time_of_day, and
// processed query filters.
func (h *VideoHandler) List(c *gin.Context) {
	filters := &domain.VideoFilters{
		Weather:   c.Query("weather"),
		TimeOfDay: c.Query("time_of_day"),
	}
	if processed := c.Query("processed"); processed != "" {
		if b, err := strconv.ParseBool(processed); err == nil {
			filters.Processed = &b
		}
	}

	videos, err := h.library.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list videos: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"videos": videos,
		"total":  len(videos),
	})
}

// Get handles GET /api/v1/videos/:id.
func (h *VideoHandler) Get(c *gin.Context) {
	video, err := h.library.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get video: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, video)
}

// Upload handles POST /api/v1/videos/upload. The file arrives as multipart
// form data with an optional metadata JSON field; processing runs
// asynchronously after the upload is accepted.
func (h *VideoHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Video file is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedVideoExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Unsupported video format %q (allowed: mp4, avi, mov, mkv, webm)", ext),
		})
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("File size %d exceeds the %d byte ceiling", fileHeader.Size, h.maxUploadSize),
		})
		return
	}

	var meta *domain.VideoMetadata
	if raw := c.PostForm("metadata"); raw != "" {
		meta = &domain.VideoMetadata{}
		if err := json.Unmarshal([]byte(raw), meta); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid metadata JSON: " + err.Error(),
			})
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to open uploaded file: " + err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.library.Upload(c.Request.Context(), fileHeader.Filename, file, fileHeader.Size, meta)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Upload failed: " + err.Error(),
		})
		return
	}

	// Simulated processing runs in the background, detached from the request.
	go func(videoID string) {
		ctx := logger.SetComponent(context.Background(), "processor")
		if err := h.library.Process(ctx, videoID); err != nil {
			logger.CtxError(ctx, "Background processing failed: video_id=%s, error=%v", videoID, err)
		}
	}(result.Video.ID)

	c.JSON(http.StatusAccepted, gin.H{
		"video_id":                  result.Video.ID,
		"filename":                  result.Video.Filename,
		"size_bytes":                result.Video.SizeBytes,
		"duration_seconds":          result.Video.DurationSeconds,
		"processing_status":         result.Video.ProcessingStatus,
		"estimated_processing_time": result.EstimatedProcessingTime,
		"created_at":                result.Video.CreatedAt,
	})
}

// Delete handles DELETE /api/v1/videos/:id. Frames and stored objects go
// with the video.
func (h *VideoHandler) Delete(c *gin.Context) {
	if err := h.library.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete video: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
