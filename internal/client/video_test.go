package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/drivesearch/drivesearch/internal/domain"
)

func TestListCachesUntilInvalidated(t *testing.T) {
	var listRequests int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/videos":
			atomic.AddInt32(&listRequests, 1)
			writeJSON(t, w, http.StatusOK, VideoList{
				Videos: []domain.Video{{ID: "v1", Filename: "a.mp4"}},
				Total:  1,
			})
		case r.Method == http.MethodDelete:
			writeJSON(t, w, http.StatusOK, map[string]bool{"deleted": true})
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		list, err := c.Videos().List(ctx, nil)
		if err != nil {
			t.Fatalf("list %d: unexpected error: %v", i, err)
		}
		if list.Total != 1 {
			t.Fatalf("list %d: total: got %d, want 1", i, list.Total)
		}
	}
	if n := atomic.LoadInt32(&listRequests); n != 1 {
		t.Fatalf("expected 1 list request before invalidation, got %d", n)
	}

	if err := c.Videos().Delete(ctx, "v1"); err != nil {
		t.Fatalf("delete: unexpected error: %v", err)
	}
	if _, err := c.Videos().List(ctx, nil); err != nil {
		t.Fatalf("list after delete: unexpected error: %v", err)
	}
	if n := atomic.LoadInt32(&listRequests); n != 2 {
		t.Errorf("expected delete to invalidate the cache, list requests=%d", n)
	}
}

func TestListCacheKeyedByFilters(t *testing.T) {
	var listRequests int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&listRequests, 1)
		writeJSON(t, w, http.StatusOK, VideoList{})
	})

	ctx := context.Background()
	if _, err := c.Videos().List(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Videos().List(ctx, &domain.VideoFilters{Weather: "rain"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Videos().List(ctx, &domain.VideoFilters{Weather: "rain"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := atomic.LoadInt32(&listRequests); n != 2 {
		t.Errorf("expected one request per distinct filter set, got %d", n)
	}
}

func TestUploadInvalidatesCache(t *testing.T) {
	var listRequests int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/videos":
			atomic.AddInt32(&listRequests, 1)
			writeJSON(t, w, http.StatusOK, VideoList{})
		case "/api/v1/videos/upload":
			writeJSON(t, w, http.StatusAccepted, UploadAccepted{VideoID: "v-new"})
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	if _, err := c.Videos().List(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := c.Videos().Upload(ctx, &UploadRequest{
		Filename: "clip.mp4",
		Reader:   strings.NewReader("fake video bytes"),
		Size:     16,
	})
	if err != nil {
		t.Fatalf("upload: unexpected error: %v", err)
	}

	if _, err := c.Videos().List(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := atomic.LoadInt32(&listRequests); n != 2 {
		t.Errorf("expected upload to invalidate the cache, list requests=%d", n)
	}
}

func TestUploadValidation(t *testing.T) {
	testCases := []struct {
		name      string
		req       *UploadRequest
		wantField string
	}{
		{
			name:      "nil reader",
			req:       &UploadRequest{Filename: "a.mp4"},
			wantField: "file",
		},
		{
			name:      "missing filename",
			req:       &UploadRequest{Reader: strings.NewReader("x")},
			wantField: "filename",
		},
		{
			name:      "unsupported extension",
			req:       &UploadRequest{Filename: "notes.txt", Reader: strings.NewReader("x")},
			wantField: "filename",
		},
		{
			name:      "executable disguised without extension",
			req:       &UploadRequest{Filename: "video", Reader: strings.NewReader("x")},
			wantField: "filename",
		},
		{
			name: "over size ceiling",
			req: &UploadRequest{
				Filename: "huge.mp4",
				Reader:   strings.NewReader("x"),
				Size:     MaxUploadSize + 1,
			},
			wantField: "file",
		},
	}

	var requests int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	})

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Videos().Upload(context.Background(), tc.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.wantField {
				t.Errorf("field: got %q, want %q", verr.Field, tc.wantField)
			}
		})
	}

	if n := atomic.LoadInt32(&requests); n != 0 {
		t.Errorf("expected rejected uploads to send zero requests, got %d", n)
	}
}

func TestUploadSendsMetadata(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
		}
		meta := r.FormValue("metadata")
		if !strings.Contains(meta, `"weather":"rain"`) {
			t.Errorf("metadata field missing weather: %q", meta)
		}
		if _, header, err := r.FormFile("file"); err != nil {
			t.Errorf("expected file part: %v", err)
		} else if header.Filename != "night.mov" {
			t.Errorf("filename: got %q, want %q", header.Filename, "night.mov")
		}
		writeJSON(t, w, http.StatusAccepted, UploadAccepted{
			VideoID:          "v1",
			ProcessingStatus: domain.ProcessingQueued,
		})
	})

	accepted, err := c.Videos().Upload(context.Background(), &UploadRequest{
		Filename: "night.mov",
		Reader:   bytes.NewReader([]byte("bytes")),
		Size:     5,
		Metadata: &domain.VideoMetadata{Weather: "rain", TimeOfDay: "night"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted.VideoID != "v1" {
		t.Errorf("video_id: got %q, want %q", accepted.VideoID, "v1")
	}
	if accepted.ProcessingStatus != domain.ProcessingQueued {
		t.Errorf("status: got %q, want %q", accepted.ProcessingStatus, domain.ProcessingQueued)
	}
}
