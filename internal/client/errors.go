package client

import (
	"encoding/json"
	"fmt"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/go-resty/resty/v2"
)

// ValidationError reports bad input caught client-side before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RequestFailedError is the generic transport-level failure (network error,
// 5xx, or any unexpected status). The original status and server message are
// attached for the UI layer; no automatic retry is performed.
type RequestFailedError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestFailedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("request failed: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed: %s", e.Message)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// UnauthorizedError reports a 401 response. It triggers the client's
// authentication-refresh hook and must not be treated as a data error.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized: " + e.Message
}

// NotReadyError reports a download attempted before the export job completed.
type NotReadyError struct {
	ExportID string
	Status   domain.ExportStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("export %s is not ready for download: status %s", e.ExportID, e.Status)
}

// apiError is the error envelope the backend uses on non-2xx responses.
type apiError struct {
	Error string `json:"error"`
}

// serverMessage extracts the backend's error message from a response body.
func serverMessage(resp *resty.Response) string {
	var apiErr apiError
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return resp.Status()
}
