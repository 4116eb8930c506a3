package domain

import "time"

// ProcessingStatus represents the backend processing state of an uploaded video.
// Values include ProcessingQueued, ProcessingRunning, ProcessingCompleted, and ProcessingFailed.
type ProcessingStatus string

const (
	ProcessingQueued    ProcessingStatus = "queued"
	ProcessingRunning   ProcessingStatus = "processing"
	ProcessingCompleted ProcessingStatus = "completed"
	ProcessingFailed    ProcessingStatus = "failed"
)

// Video represents a driving-footage asset and its processing state.
// The backend owns every field; clients hold transient read-mostly copies.
type Video struct {
	ID                  string           `gorm:"type:text;primaryKey" json:"id"`
	Filename            string           `gorm:"type:text;not null" json:"filename"`
	StorageKey          string           `gorm:"type:text" json:"-"`
	DurationSeconds     float64          `json:"duration_seconds"`
	FPS                 float64          `json:"fps"`
	Width               int              `json:"width"`
	Height              int              `json:"height"`
	SizeBytes           int64            `json:"size_bytes"`
	Weather             string           `gorm:"type:text;index:idx_videos_weather" json:"weather,omitempty"`
	TimeOfDay           string           `gorm:"type:text;index:idx_videos_time_of_day" json:"time_of_day,omitempty"`
	ProcessingStatus    ProcessingStatus `gorm:"type:text;index:idx_videos_status;default:queued" json:"processing_status"`
	IsProcessed         bool             `gorm:"default:false" json:"is_processed"`
	FramesExtracted     int              `gorm:"default:0" json:"frames_extracted"`
	EmbeddingsGenerated int              `gorm:"default:0" json:"embeddings_generated"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// TableName returns the database table name for Video.
func (Video) TableName() string {
	return "videos"
}

// VideoMetadata is the optional metadata JSON sent alongside an upload.
type VideoMetadata struct {
	Weather   string `json:"weather,omitempty"`
	TimeOfDay string `json:"time_of_day,omitempty"`
}

// VideoFilters holds optional filters for listing videos.
type VideoFilters struct {
	Weather   string `json:"weather,omitempty"`
	TimeOfDay string `json:"time_of_day,omitempty"`
	Processed *bool  `json:"processed,omitempty"`
}
