package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ExportHandler handles the export job endpoints.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

type createExportRequest struct {
	FrameIDs []string            `json:"frame_ids" binding:"required"`
	Format   domain.ExportFormat `json:"format" binding:"required"`
}

// Create handles POST /api/v1/export.
func (h *ExportHandler) Create(c *gin.Context) {
	var req createExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	job, err := h.exports.Create(c.Request.Context(), req.FrameIDs, req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Export rejected: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"export_id": job.ExportID,
		"status":    job.Status,
	})
}

// Get handles GET /api/v1/export/:id.
func (h *ExportHandler) Get(c *gin.Context) {
	job, err := h.exports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Export not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get export: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// Download handles GET /api/v1/export/:id/download. A job that has not
// completed answers 409 so clients can keep polling.
func (h *ExportHandler) Download(c *gin.Context) {
	reader, job, err := h.exports.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrExportNotReady) {
			c.JSON(http.StatusConflict, gin.H{
				"error":  "Export is not ready for download",
				"status": job.Status,
			})
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Export not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Download failed: " + err.Error(),
		})
		return
	}
	defer reader.Close()

	contentType := "application/zip"
	if job.Format == domain.FormatCSV {
		contentType = "text/csv"
	}
	filename := fmt.Sprintf("export-%s.%s", job.ExportID, job.Format.Extension())

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, job.SizeBytes, contentType, reader, nil)
}

// Delete handles DELETE /api/v1/export/:id.
func (h *ExportHandler) Delete(c *gin.Context) {
	if err := h.exports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Export not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete export: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
