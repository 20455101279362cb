package models

import "time"

// VideoStatus is the lifecycle of an uploaded video.
type VideoStatus string

const (
	VideoStatusUploaded   VideoStatus = "uploaded"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusFailed     VideoStatus = "failed"
)

// Video is an uploaded source asset. Duration is only set once Status is ready.
type Video struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"user_id"`
	StorageKey    string      `json:"storage_key"`
	OriginalName  string      `json:"original_name"`
	ContentType   string      `json:"content_type"`
	Size          int64       `json:"size"`
	Duration      *float64    `json:"duration,omitempty"`
	Status        VideoStatus `json:"status"`
	FailureReason string      `json:"failure_reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
