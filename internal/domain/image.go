package domain

import "time"

const (
	ImageStatusStored  = "stored"
	ImageStatusMissing = "missing"
)

// ImageRecord represents a persisted generation in the history table
type ImageRecord struct {
	ID        int64
	Prompt    string
	FilePath  string
	SizeBytes int64
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
