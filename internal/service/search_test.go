package service

import (
	"context"
	"testing"

	"github.com/drivesearch/drivesearch/internal/domain"
	"github.com/drivesearch/drivesearch/internal/repository"
	"github.com/drivesearch/drivesearch/internal/storage"
)

func newSearchFixture(t *testing.T) (*SearchService, *repository.FrameRepository, storage.ObjectStorage) {
	t.Helper()
	db := newTestDB(t)
	frameRepo := repository.NewFrameRepository(db)
	store := storage.NewMemoryStorage("memory://test")
	svc := NewSearchService(frameRepo, store, testLogger(), nil)
	return svc, frameRepo, store
}

func TestTextSearchRanking(t *testing.T) {
	svc, frameRepo, store := newSearchFixture(t)

	seedFrame(t, frameRepo, store, domain.Frame{
		ID: "f-both", VideoID: "v1", TimestampSeconds: 10,
		Caption: "pedestrians crossing street at intersection",
	})
	seedFrame(t, frameRepo, store, domain.Frame{
		ID: "f-one", VideoID: "v1", TimestampSeconds: 20,
		Caption: "cyclist crossing bridge",
	})
	seedFrame(t, frameRepo, store, domain.Frame{
		ID: "f-none", VideoID: "v1", TimestampSeconds: 30,
		Caption: "empty highway at night",
	})

	resp, err := svc.TextSearch(context.Background(), &TextSearchRequest{
		Query: "pedestrians crossing",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// f-none scores 0, below the default 0.2 threshold.
	if resp.TotalFound != 2 {
		t.Fatalf("total_found: got %d, want 2", resp.TotalFound)
	}
	if resp.Results[0].FrameID != "f-both" || resp.Results[1].FrameID != "f-one" {
		t.Errorf("unexpected order: %s, %s", resp.Results[0].FrameID, resp.Results[1].FrameID)
	}
	if resp.Results[0].Similarity != 1.0 {
		t.Errorf("full match similarity: got %g, want 1.0", resp.Results[0].Similarity)
	}
	if resp.Results[1].Similarity != 0.5 {
		t.Errorf("half match similarity: got %g, want 0.5", resp.Results[1].Similarity)
	}
	if resp.Results[0].FrameURL == "" {
		t.Error("expected a frame URL on each result")
	}
}

func TestTextSearchEmptyQuery(t *testing.T) {
	svc, _, _ := newSearchFixture(t)

	for _, q := range []string{"", "   "} {
		if _, err := svc.TextSearch(context.Background(), &TextSearchRequest{Query: q}); err == nil {
			t.Errorf("query %q: expected an error", q)
		}
	}
}

func TestTextSearchLimitAndTotal(t *testing.T) {
	svc, frameRepo, store := newSearchFixture(t)

	for i := 0; i < 15; i++ {
		seedFrame(t, frameRepo, store, domain.Frame{
			ID:      frameID(i),
			VideoID: "v1", TimestampSeconds: float64(i),
			Caption: "rain on highway",
		})
	}

	resp, err := svc.TextSearch(context.Background(), &TextSearchRequest{
		Query: "rain",
		Limit: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Results) != 5 {
		t.Errorf("results: got %d, want 5", len(resp.Results))
	}
	// TotalFound counts every match above the threshold, not just the page.
	if resp.TotalFound != 15 {
		t.Errorf("total_found: got %d, want 15", resp.TotalFound)
	}

	// Equal scores fall back to timestamp order.
	for i := 1; i < len(resp.Results); i++ {
		if resp.Results[i].Timestamp < resp.Results[i-1].Timestamp {
			t.Errorf("tie break by timestamp violated at index %d", i)
		}
	}
}

func frameID(i int) string {
	return string(rune('a'+i/10)) + string(rune('a'+i%10))
}

func TestTextSearchThreshold(t *testing.T) {
	svc, frameRepo, store := newSearchFixture(t)

	seedFrame(t, frameRepo, store, domain.Frame{
		ID: "f1", VideoID: "v1", Caption: "fog over road",
	})
	seedFrame(t, frameRepo, store, domain.Frame{
		ID: "f2", VideoID: "v1", Caption: "fog and deer near road edge",
	})

	strict := float32(0.9)
	resp, err := svc.TextSearch(context.Background(), &TextSearchRequest{
		Query:               "fog road deer",
		SimilarityThreshold: &strict,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalFound != 1 {
		t.Fatalf("total_found: got %d, want 1", resp.TotalFound)
	}
	if resp.Results[0].FrameID != "f2" {
		t.Errorf("expected only the full match, got %s", resp.Results[0].FrameID)
	}
}

func TestTextSearchFilters(t *testing.T) {
	svc, frameRepo, store := newSearchFixture(t)

	seedFrame(t, frameRepo, store, domain.Frame{
		ID: "f-rain-night", VideoID: "v1", Caption: "truck on highway",
		Weather: "rain", TimeOfDay: "night",
	})
	seedFrame(t, frameRepo, store, domain.Frame{
		ID: "f-rain-day", VideoID: "v1", Caption: "truck on highway",
		Weather: "rain", TimeOfDay: "day",
	})
	seedFrame(t, frameRepo, store, domain.Frame{
		ID: "f-clear-night", VideoID: "v1", Caption: "truck on highway",
		Weather: "clear", TimeOfDay: "night",
	})

	testCases := []struct {
		name    string
		filters *domain.SearchFilters
		want    []string
	}{
		{
			name:    "no filters",
			filters: nil,
			want:    []string{"f-rain-night", "f-rain-day", "f-clear-night"},
		},
		{
			name:    "weather only",
			filters: &domain.SearchFilters{Weather: "rain"},
			want:    []string{"f-rain-night", "f-rain-day"},
		},
		{
			name:    "both filters AND-combined",
			filters: &domain.SearchFilters{Weather: "rain", TimeOfDay: "night"},
			want:    []string{"f-rain-night"},
		},
		{
			name:    "case insensitive",
			filters: &domain.SearchFilters{Weather: "Rain", TimeOfDay: "NIGHT"},
			want:    []string{"f-rain-night"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := svc.TextSearch(context.Background(), &TextSearchRequest{
				Query:   "truck",
				Filters: tc.filters,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.TotalFound != len(tc.want) {
				t.Fatalf("total_found: got %d, want %d", resp.TotalFound, len(tc.want))
			}
			got := make(map[string]bool, len(resp.Results))
			for _, r := range resp.Results {
				got[r.FrameID] = true
			}
			for _, id := range tc.want {
				if !got[id] {
					t.Errorf("missing expected frame %s", id)
				}
			}
		})
	}
}

func TestImageSearchDeterministic(t *testing.T) {
	svc, frameRepo, store := newSearchFixture(t)

	for _, id := range []string{"f1", "f2", "f3"} {
		seedFrame(t, frameRepo, store, domain.Frame{
			ID: id, VideoID: "v1", Caption: "driving scene",
		})
	}

	zero := float32(0)
	req := &ImageSearchRequest{ImageDigest: "abc123", SimilarityThreshold: &zero}

	first, err := svc.ImageSearch(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ImageSearch(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Results) != len(second.Results) {
		t.Fatalf("result counts differ: %d vs %d", len(first.Results), len(second.Results))
	}
	for i := range first.Results {
		if first.Results[i].FrameID != second.Results[i].FrameID ||
			first.Results[i].Similarity != second.Results[i].Similarity {
			t.Errorf("result %d differs between identical queries", i)
		}
	}
	for i := 1; i < len(first.Results); i++ {
		if first.Results[i].Similarity > first.Results[i-1].Similarity {
			t.Errorf("results not sorted descending at index %d", i)
		}
	}
}
