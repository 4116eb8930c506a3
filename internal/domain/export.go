package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ExportStatus represents the lifecycle state of an export job.
// Values include ExportPending, ExportProcessing, ExportCompleted, and ExportFailed.
type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportCompleted  ExportStatus = "completed"
	ExportFailed     ExportStatus = "failed"
)

// Terminal reports whether the status will never change again.
func (s ExportStatus) Terminal() bool {
	return s == ExportCompleted || s == ExportFailed
}

// ExportFormat is the packaging format for an export job.
type ExportFormat string

const (
	FormatZip     ExportFormat = "zip"
	FormatDataset ExportFormat = "dataset"
	FormatCSV     ExportFormat = "csv"
)

// Valid reports whether the format is one of the supported values.
func (f ExportFormat) Valid() bool {
	switch f {
	case FormatZip, FormatDataset, FormatCSV:
		return true
	}
	return false
}

// Extension returns the archive file extension for the format.
func (f ExportFormat) Extension() string {
	if f == FormatCSV {
		return "csv"
	}
	return "zip"
}

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// ExportJob represents an asynchronous packaging task for selected frames.
// Created on export request, polled until a terminal status, and only
// downloadable once Status == ExportCompleted.
type ExportJob struct {
	ExportID     string       `gorm:"type:text;primaryKey;column:export_id" json:"export_id"`
	Status       ExportStatus `gorm:"type:text;index:idx_exports_status;default:pending" json:"status"`
	FrameIDs     StringArray  `gorm:"type:text" json:"-"`
	FrameCount   int          `json:"frame_count"`
	Format       ExportFormat `gorm:"type:text" json:"format"`
	SizeBytes    int64        `json:"file_size"`
	StorageKey   string       `gorm:"type:text" json:"-"`
	ErrorMessage string       `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
}

// TableName returns the database table name for ExportJob.
func (ExportJob) TableName() string {
	return "export_jobs"
}
