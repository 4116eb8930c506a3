package domain

import "time"

// Frame represents a single extracted still from a video at a given timestamp.
// Frames are the unit over which similarity search operates.
type Frame struct {
	ID               string    `gorm:"type:text;primaryKey" json:"id"`
	VideoID          string    `gorm:"type:text;not null;index:idx_frames_video" json:"video_id"`
	TimestampSeconds float64   `json:"timestamp"`
	StorageKey       string    `gorm:"type:text" json:"-"`
	Caption          string    `gorm:"type:text" json:"-"`
	Weather          string    `gorm:"type:text" json:"weather,omitempty"`
	TimeOfDay        string    `gorm:"type:text" json:"time_of_day,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName returns the database table name for Frame.
func (Frame) TableName() string {
	return "frames"
}
