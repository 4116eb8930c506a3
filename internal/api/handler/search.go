package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/service"
	"github.com/gin-gonic/gin"
)

// SearchHandler handles search-related endpoints.
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - searchService: search service instance.
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// TextSearch handles POST /api/v1/search/text.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) TextSearch(c *gin.Context) {
	var req service.TextSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	result, err := h.searchService.TextSearch(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ImageSearch handles POST /api/v1/search/image. The query image arrives as
// multipart form data with optional limit, similarity_threshold, weather, and
// time_of_day fields.
func (h *SearchHandler) ImageSearch(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Image file is required",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to open uploaded image: " + err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read uploaded image: " + err.Error(),
		})
		return
	}

	digest := sha256.Sum256(data)
	req := service.ImageSearchRequest{
		ImageDigest: hex.EncodeToString(digest[:]),
	}

	if limit := c.PostForm("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			req.Limit = n
		}
	}
	if threshold := c.PostForm("similarity_threshold"); threshold != "" {
		if t, err := strconv.ParseFloat(threshold, 32); err == nil {
			t32 := float32(t)
			req.SimilarityThreshold = &t32
		}
	}
	if weather, timeOfDay := c.PostForm("weather"), c.PostForm("time_of_day"); weather != "" || timeOfDay != "" {
		req.Filters = &domain.SearchFilters{Weather: weather, TimeOfDay: timeOfDay}
	}

	result, err := h.searchService.ImageSearch(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
