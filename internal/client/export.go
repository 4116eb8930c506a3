package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/drivesearch/drivesearch/internal/domain"
)

// ExportClient creates export jobs, polls them to a terminal state, and
// downloads completed archives. It tracks the last status it observed per
// job so Download can refuse locally before the backend would 409.
type ExportClient struct {
	c            *Client
	pollInterval time.Duration

	mu       sync.Mutex
	observed map[string]domain.ExportStatus
}

func newExportClient(c *Client, pollInterval time.Duration) *ExportClient {
	return &ExportClient{
		c:            c,
		pollInterval: pollInterval,
		observed:     make(map[string]domain.ExportStatus),
	}
}

// ExportAccepted is the response shape of POST /api/v1/export.
type ExportAccepted struct {
	ExportID string              `json:"export_id"`
	Status   domain.ExportStatus `json:"status"`
}

// createExportBody is the wire shape of POST /api/v1/export.
type createExportBody struct {
	FrameIDs []string            `json:"frame_ids"`
	Format   domain.ExportFormat `json:"format"`
}

// Create requests packaging of the given frames into a downloadable archive.
// format must be one of zip, dataset, or csv.
func (e *ExportClient) Create(ctx context.Context, frameIDs []string, format domain.ExportFormat) (*ExportAccepted, error) {
	if len(frameIDs) == 0 {
		return nil, &ValidationError{Field: "frame_ids", Reason: "must not be empty"}
	}
	if !format.Valid() {
		return nil, &ValidationError{
			Field:  "format",
			Reason: fmt.Sprintf("%q is not one of zip, dataset, csv", format),
		}
	}

	var accepted ExportAccepted
	resp, err := e.c.http.R().
		SetContext(ctx).
		SetBody(createExportBody{FrameIDs: frameIDs, Format: format}).
		SetResult(&accepted).
		Post("/api/v1/export")
	if err := e.c.checkResponse(resp, err); err != nil {
		return nil, err
	}

	e.record(accepted.ExportID, accepted.Status)
	return &accepted, nil
}

// Get fetches the current state of an export job.
func (e *ExportClient) Get(ctx context.Context, exportID string) (*domain.ExportJob, error) {
	if exportID == "" {
		return nil, &ValidationError{Field: "export_id", Reason: "must not be empty"}
	}

	var job domain.ExportJob
	resp, err := e.c.http.R().
		SetContext(ctx).
		SetResult(&job).
		Get("/api/v1/export/" + exportID)
	if err := e.c.checkResponse(resp, err); err != nil {
		return nil, err
	}

	e.record(job.ExportID, job.Status)
	return &job, nil
}

// Wait polls the job at a fixed interval until it reaches a terminal status
// (completed or failed) or ctx is canceled. Polling always stops; there is no
// unbounded loop and no dangling timer after cancellation.
func (e *ExportClient) Wait(ctx context.Context, exportID string) (*domain.ExportJob, error) {
	job, err := e.Get(ctx, exportID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return job, nil
	}

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			job, err = e.Get(ctx, exportID)
			if err != nil {
				return nil, err
			}
			if job.Status.Terminal() {
				return job, nil
			}
		}
	}
}

// Download streams the completed archive. It fails with NotReadyError when
// the last observed status for the job is not completed; the caller owns
// closing the returned stream.
func (e *ExportClient) Download(ctx context.Context, exportID string) (io.ReadCloser, error) {
	if exportID == "" {
		return nil, &ValidationError{Field: "export_id", Reason: "must not be empty"}
	}
	if status, ok := e.lastObserved(exportID); !ok || status != domain.ExportCompleted {
		return nil, &NotReadyError{ExportID: exportID, Status: status}
	}

	resp, err := e.c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get("/api/v1/export/" + exportID + "/download")
	if err != nil {
		return nil, &RequestFailedError{Message: err.Error(), Err: err}
	}

	if code := resp.StatusCode(); code != http.StatusOK {
		defer resp.RawBody().Close()
		if code == http.StatusConflict {
			return nil, &NotReadyError{ExportID: exportID}
		}
		if code == http.StatusUnauthorized {
			if e.c.onUnauthorized != nil {
				e.c.onUnauthorized()
			}
			return nil, &UnauthorizedError{Message: resp.Status()}
		}
		return nil, &RequestFailedError{StatusCode: code, Message: resp.Status()}
	}

	return resp.RawBody(), nil
}

// Delete removes an export job and its archive.
func (e *ExportClient) Delete(ctx context.Context, exportID string) error {
	if exportID == "" {
		return &ValidationError{Field: "export_id", Reason: "must not be empty"}
	}

	resp, err := e.c.http.R().
		SetContext(ctx).
		Delete("/api/v1/export/" + exportID)
	if err := e.c.checkResponse(resp, err); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.observed, exportID)
	e.mu.Unlock()
	return nil
}

func (e *ExportClient) record(exportID string, status domain.ExportStatus) {
	if exportID == "" {
		return
	}
	e.mu.Lock()
	e.observed[exportID] = status
	e.mu.Unlock()
}

func (e *ExportClient) lastObserved(exportID string) (domain.ExportStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	status, ok := e.observed[exportID]
	return status, ok
}
