package domain

// SearchFilters holds optional metadata filters for a search request.
// Filters are additive: when both are set, results must match both.
type SearchFilters struct {
	TimeOfDay string `json:"time_of_day,omitempty"`
	Weather   string `json:"weather,omitempty"`
}

// Empty reports whether no filter is set.
func (f *SearchFilters) Empty() bool {
	return f == nil || (f.TimeOfDay == "" && f.Weather == "")
}

// FrameMetadata is the per-result metadata block returned with a frame match.
type FrameMetadata struct {
	Weather   string `json:"weather,omitempty"`
	TimeOfDay string `json:"time_of_day,omitempty"`
}

// SearchResult represents a single frame match with a similarity score in [0, 1].
// Results are immutable once returned.
type SearchResult struct {
	FrameID    string        `json:"frame_id"`
	VideoID    string        `json:"video_id"`
	Timestamp  float64       `json:"timestamp"`
	Similarity float32       `json:"similarity"`
	FrameURL   string        `json:"frame_url"`
	Metadata   FrameMetadata `json:"metadata"`
}

// SearchResponse is the ranked result set for a text or image query.
// Results are sorted descending by similarity; tie order is backend-defined.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	TotalFound   int            `json:"total_found"`
	SearchTimeMs int64          `json:"search_time_ms"`
}
