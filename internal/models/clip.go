package models

import "time"

// ClipStatus is the lifecycle of a single derived clip.
type ClipStatus string

const (
	ClipStatusProcessing ClipStatus = "processing"
	ClipStatusReady      ClipStatus = "ready"
	ClipStatusFailed     ClipStatus = "failed"
)

const (
	MinAIScore = 0
	MaxAIScore = 100
)

// Clip is a scored, time-bounded derivative of a Video. UserID always equals the parent video's owner.
type Clip struct {
	ID         int64      `json:"id"`
	VideoID    int64      `json:"video_id"`
	UserID     int64      `json:"user_id"`
	Title      string     `json:"title"`
	StorageKey string     `json:"storage_key"`
	StartTime  float64    `json:"start_time"`
	EndTime    float64    `json:"end_time"`
	Duration   float64    `json:"duration"`
	AIScore    int        `json:"ai_score"`
	Status     ClipStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}
