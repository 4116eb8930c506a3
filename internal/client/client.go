// Package client is the typed facade over the drivesearch backend REST API.
// It wraps the three resource groups the UI consumes — videos, search, and
// export — and adds the request shaping, validation, and polling the wire
// contract expects. All real work (embedding, similarity ranking, archive
// generation) happens on the backend; the facade only shapes requests and
// caches responses.
package client

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds every individual request.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the fixed interval for export status polling.
	DefaultPollInterval = 5 * time.Second

	// DefaultListCacheTTL bounds staleness of the cached video list.
	DefaultListCacheTTL = time.Minute
)

// Options holds configuration for the API client.
type Options struct {
	// BaseURL is the backend base URL (the API_URL environment setting).
	BaseURL string

	// Token is the bearer token attached to every request.
	Token string

	Timeout      time.Duration
	PollInterval time.Duration
	ListCacheTTL time.Duration

	// OnUnauthorized is invoked once per 401 response to trigger the
	// application's authentication-refresh path. The request itself still
	// fails with UnauthorizedError; re-auth is the caller's concern.
	OnUnauthorized func()
}

// Client is the entry point for the video, search, and export resource clients.
type Client struct {
	http           *resty.Client
	videos         *VideoClient
	search         *SearchClient
	exports        *ExportClient
	onUnauthorized func()
}

// New creates a new API client.
func New(opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	cacheTTL := opts.ListCacheTTL
	if cacheTTL <= 0 {
		cacheTTL = DefaultListCacheTTL
	}

	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if opts.Token != "" {
		httpClient.SetAuthToken(opts.Token)
	}

	c := &Client{
		http:           httpClient,
		onUnauthorized: opts.OnUnauthorized,
	}
	c.videos = newVideoClient(c, cacheTTL)
	c.search = newSearchClient(c)
	c.exports = newExportClient(c, pollInterval)
	return c
}

// SetToken replaces the bearer token, e.g. after a refresh.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// Videos returns the video resource client.
func (c *Client) Videos() *VideoClient {
	return c.videos
}

// Search returns the search resource client.
func (c *Client) Search() *SearchClient {
	return c.search
}

// Exports returns the export resource client.
func (c *Client) Exports() *ExportClient {
	return c.exports
}

// checkResponse maps a resty response to the client error taxonomy.
// 2xx passes through; 401 triggers the refresh hook and returns
// UnauthorizedError; everything else becomes RequestFailedError.
func (c *Client) checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return &RequestFailedError{Message: err.Error(), Err: err}
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &UnauthorizedError{Message: serverMessage(resp)}
	default:
		return &RequestFailedError{StatusCode: code, Message: serverMessage(resp)}
	}
}
