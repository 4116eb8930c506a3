package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/drivesearch/drivesearch/internal/domain"
	gocache "github.com/patrickmn/go-cache"
)

// MaxUploadSize is the client-side upload ceiling. Larger files are rejected
// before any network call is made.
const MaxUploadSize int64 = 1 << 30 // 1 GiB

// allowedVideoExts are the container formats the backend accepts.
var allowedVideoExts = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

// VideoClient lists, uploads, and deletes video assets. The video list is
// served from a TTL cache; any successful upload or delete invalidates it so
// subsequent reads are consistent.
type VideoClient struct {
	c     *Client
	cache *gocache.Cache
}

func newVideoClient(c *Client, cacheTTL time.Duration) *VideoClient {
	return &VideoClient{
		c:     c,
		cache: gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// VideoList is the response shape of GET /api/v1/videos.
type VideoList struct {
	Videos []domain.Video `json:"videos"`
	Total  int            `json:"total"`
}

// UploadRequest describes a video file to upload.
type UploadRequest struct {
	Filename string
	Reader   io.Reader
	// Size is the file size in bytes. A negative size skips the client-side
	// ceiling check (streams of unknown length).
	Size     int64
	Metadata *domain.VideoMetadata
}

// UploadAccepted is the response shape of POST /api/v1/videos/upload.
type UploadAccepted struct {
	VideoID                 string                  `json:"video_id"`
	Filename                string                  `json:"filename"`
	SizeBytes               int64                   `json:"size_bytes"`
	DurationSeconds         float64                 `json:"duration_seconds"`
	ProcessingStatus        domain.ProcessingStatus `json:"processing_status"`
	EstimatedProcessingTime float64                 `json:"estimated_processing_time,omitempty"`
	CreatedAt               time.Time               `json:"created_at"`
}

// List returns all videos visible to the authenticated user, optionally
// filtered. Results are cached per filter set until the TTL elapses or a
// mutation invalidates the cache.
func (v *VideoClient) List(ctx context.Context, filters *domain.VideoFilters) (*VideoList, error) {
	key := listCacheKey(filters)
	if cached, ok := v.cache.Get(key); ok {
		return cached.(*VideoList), nil
	}

	params := map[string]string{}
	if filters != nil {
		if filters.Weather != "" {
			params["weather"] = filters.Weather
		}
		if filters.TimeOfDay != "" {
			params["time_of_day"] = filters.TimeOfDay
		}
		if filters.Processed != nil {
			params["processed"] = fmt.Sprintf("%t", *filters.Processed)
		}
	}

	var list VideoList
	resp, err := v.c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&list).
		Get("/api/v1/videos")
	if err := v.c.checkResponse(resp, err); err != nil {
		return nil, err
	}

	v.cache.SetDefault(key, &list)
	return &list, nil
}

// Get retrieves a video detail including processing progress.
func (v *VideoClient) Get(ctx context.Context, id string) (*domain.Video, error) {
	if id == "" {
		return nil, &ValidationError{Field: "video_id", Reason: "must not be empty"}
	}

	var video domain.Video
	resp, err := v.c.http.R().
		SetContext(ctx).
		SetResult(&video).
		Get("/api/v1/videos/" + id)
	if err := v.c.checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &video, nil
}

// Upload sends a video file as multipart form data. The file type and size
// are validated before any bytes leave the client; a successful upload
// invalidates the cached video list.
func (v *VideoClient) Upload(ctx context.Context, req *UploadRequest) (*UploadAccepted, error) {
	if err := validateUpload(req); err != nil {
		return nil, err
	}

	r := v.c.http.R().
		SetContext(ctx).
		SetFileReader("file", req.Filename, req.Reader)

	if req.Metadata != nil {
		meta, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, &ValidationError{Field: "metadata", Reason: err.Error()}
		}
		r.SetMultipartFormData(map[string]string{"metadata": string(meta)})
	}

	var accepted UploadAccepted
	resp, err := r.SetResult(&accepted).Post("/api/v1/videos/upload")
	if err := v.c.checkResponse(resp, err); err != nil {
		return nil, err
	}

	v.cache.Flush()
	return &accepted, nil
}

// Delete removes a video. The backend cascades to frames and embeddings; the
// cached video list is invalidated so the next List never returns it.
func (v *VideoClient) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &ValidationError{Field: "video_id", Reason: "must not be empty"}
	}

	resp, err := v.c.http.R().
		SetContext(ctx).
		Delete("/api/v1/videos/" + id)
	if err := v.c.checkResponse(resp, err); err != nil {
		return err
	}

	v.cache.Flush()
	return nil
}

// InvalidateCache drops every cached video list entry.
func (v *VideoClient) InvalidateCache() {
	v.cache.Flush()
}

func validateUpload(req *UploadRequest) error {
	if req == nil || req.Reader == nil {
		return &ValidationError{Field: "file", Reason: "must not be empty"}
	}
	if req.Filename == "" {
		return &ValidationError{Field: "filename", Reason: "must not be empty"}
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !allowedVideoExts[ext] {
		return &ValidationError{
			Field:  "filename",
			Reason: fmt.Sprintf("unsupported video format %q (allowed: mp4, avi, mov, mkv, webm)", ext),
		}
	}

	if req.Size > MaxUploadSize {
		return &ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("size %d exceeds the %d byte ceiling", req.Size, MaxUploadSize),
		}
	}

	return nil
}

func listCacheKey(filters *domain.VideoFilters) string {
	if filters == nil {
		return "videos"
	}
	processed := ""
	if filters.Processed != nil {
		processed = fmt.Sprintf("%t", *filters.Processed)
	}
	return fmt.Sprintf("videos|%s|%s|%s", filters.Weather, filters.TimeOfDay, processed)
}
