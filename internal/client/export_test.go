package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drivesearch/drivesearch/internal/domain"
)

// exportServer serves a job whose status advances one step per GET.
func exportServer(t *testing.T, statuses []domain.ExportStatus, archive []byte) (*httptest.Server, *int32) {
	t.Helper()
	var gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/export":
			writeJSON(t, w, http.StatusAccepted, ExportAccepted{
				ExportID: "e1",
				Status:   domain.ExportPending,
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/export/e1":
			n := atomic.AddInt32(&gets, 1)
			idx := int(n) - 1
			if idx >= len(statuses) {
				idx = len(statuses) - 1
			}
			writeJSON(t, w, http.StatusOK, domain.ExportJob{
				ExportID: "e1",
				Status:   statuses[idx],
				Format:   domain.FormatZip,
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/export/e1/download":
			w.Header().Set("Content-Type", "application/zip")
			w.Write(archive)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/export/e1":
			writeJSON(t, w, http.StatusOK, map[string]bool{"deleted": true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &gets
}

func TestCreateValidation(t *testing.T) {
	var requests int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	})

	testCases := []struct {
		name     string
		frameIDs []string
		format   domain.ExportFormat
	}{
		{name: "empty frame set", frameIDs: nil, format: domain.FormatZip},
		{name: "unknown format", frameIDs: []string{"f1"}, format: "tarball"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Exports().Create(context.Background(), tc.frameIDs, tc.format)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	if n := atomic.LoadInt32(&requests); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestWaitPollsUntilTerminal(t *testing.T) {
	srv, gets := exportServer(t, []domain.ExportStatus{
		domain.ExportPending,
		domain.ExportProcessing,
		domain.ExportCompleted,
	}, []byte("PK archive bytes"))

	c := New(&Options{BaseURL: srv.URL, PollInterval: 10 * time.Millisecond})

	ctx := context.Background()
	accepted, err := c.Exports().Create(ctx, []string{"f1", "f2"}, domain.FormatZip)
	if err != nil {
		t.Fatalf("create: unexpected error: %v", err)
	}

	job, err := c.Exports().Wait(ctx, accepted.ExportID)
	if err != nil {
		t.Fatalf("wait: unexpected error: %v", err)
	}
	if job.Status != domain.ExportCompleted {
		t.Fatalf("status: got %q, want %q", job.Status, domain.ExportCompleted)
	}
	if n := atomic.LoadInt32(gets); n != 3 {
		t.Errorf("expected 3 status polls, got %d", n)
	}

	// Completed has been observed, so download is allowed.
	body, err := c.Exports().Download(ctx, accepted.ExportID)
	if err != nil {
		t.Fatalf("download: unexpected error: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty archive")
	}
}

func TestWaitStopsOnFailure(t *testing.T) {
	srv, _ := exportServer(t, []domain.ExportStatus{
		domain.ExportProcessing,
		domain.ExportFailed,
	}, nil)
	c := New(&Options{BaseURL: srv.URL, PollInterval: 10 * time.Millisecond})

	job, err := c.Exports().Wait(context.Background(), "e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != domain.ExportFailed {
		t.Errorf("status: got %q, want %q", job.Status, domain.ExportFailed)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	srv, _ := exportServer(t, []domain.ExportStatus{domain.ExportProcessing}, nil)
	c := New(&Options{BaseURL: srv.URL, PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Exports().Wait(ctx, "e1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait did not stop promptly after cancellation: %v", elapsed)
	}
}

func TestDownloadBeforeCompletion(t *testing.T) {
	srv, _ := exportServer(t, []domain.ExportStatus{domain.ExportProcessing}, nil)
	c := New(&Options{BaseURL: srv.URL, PollInterval: 10 * time.Millisecond})

	ctx := context.Background()
	if _, err := c.Exports().Get(ctx, "e1"); err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}

	_, err := c.Exports().Download(ctx, "e1")
	var nerr *NotReadyError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
	if nerr.Status != domain.ExportProcessing {
		t.Errorf("status: got %q, want %q", nerr.Status, domain.ExportProcessing)
	}
}

func TestDownloadUnknownJob(t *testing.T) {
	srv, _ := exportServer(t, []domain.ExportStatus{domain.ExportCompleted}, nil)
	c := New(&Options{BaseURL: srv.URL})

	// No status was ever observed for this job.
	_, err := c.Exports().Download(context.Background(), "never-seen")
	var nerr *NotReadyError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
}

func TestDownloadServerConflict(t *testing.T) {
	// The server regressed the job after the client saw completed; the 409
	// must still surface as NotReadyError.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/export/e1":
			writeJSON(t, w, http.StatusOK, domain.ExportJob{
				ExportID: "e1",
				Status:   domain.ExportCompleted,
			})
		case "/api/v1/export/e1/download":
			writeJSON(t, w, http.StatusConflict, map[string]string{"error": "not ready"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New(&Options{BaseURL: srv.URL})

	ctx := context.Background()
	if _, err := c.Exports().Get(ctx, "e1"); err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}

	_, err := c.Exports().Download(ctx, "e1")
	var nerr *NotReadyError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
}

func TestDeleteForgetsObservedStatus(t *testing.T) {
	srv, _ := exportServer(t, []domain.ExportStatus{domain.ExportCompleted}, []byte("zip"))
	c := New(&Options{BaseURL: srv.URL})

	ctx := context.Background()
	if _, err := c.Exports().Get(ctx, "e1"); err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}

	// Deleting drops the tracked status; a later download attempt is refused
	// locally instead of hitting the backend.
	if err := c.Exports().Delete(ctx, "e1"); err != nil {
		t.Fatalf("delete: unexpected error: %v", err)
	}
	_, err := c.Exports().Download(ctx, "e1")
	var nerr *NotReadyError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NotReadyError after delete, got %v", err)
	}
}
