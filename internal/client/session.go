package client

import (
	"context"
	"sync"

	"github.com/drivesearch/drivesearch/internal/domain"
)

// SearchSession serializes overlapping searches for a single UI surface with
// last-response-wins semantics. Each request is tagged with a monotonically
// increasing sequence number; a response is discarded when a newer request
// was issued before it resolved.
type SearchSession struct {
	sc *SearchClient

	mu      sync.Mutex
	issued  uint64
	applied uint64
	current *domain.SearchResponse
}

// NewSession creates a search session bound to this client.
func (s *SearchClient) NewSession() *SearchSession {
	return &SearchSession{sc: s}
}

// SearchByText runs a text search under the session. The returned bool
// reports whether the response became the session's current result; false
// means a newer request superseded it while it was in flight.
func (s *SearchSession) SearchByText(ctx context.Context, q TextQuery) (*domain.SearchResponse, bool, error) {
	seq := s.next()
	resp, err := s.sc.SearchByText(ctx, q)
	if err != nil {
		return nil, false, err
	}
	return resp, s.apply(seq, resp), nil
}

// SearchByImage runs an image search under the session with the same
// last-response-wins behavior as SearchByText.
func (s *SearchSession) SearchByImage(ctx context.Context, q ImageQuery) (*domain.SearchResponse, bool, error) {
	seq := s.next()
	resp, err := s.sc.SearchByImage(ctx, q)
	if err != nil {
		return nil, false, err
	}
	return resp, s.apply(seq, resp), nil
}

// Current returns the most recently applied response, or nil when no search
// has resolved yet.
func (s *SearchSession) Current() *domain.SearchResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *SearchSession) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// apply installs resp as current unless a newer request has been issued.
func (s *SearchSession) apply(seq uint64, resp *domain.SearchResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.issued || seq < s.applied {
		return false
	}
	s.applied = seq
	s.current = resp
	return true
}
