package models

import "time"

// PostStatus is the lifecycle of a scheduled post.
type PostStatus string

const (
	PostStatusPending  PostStatus = "pending"
	PostStatusPosted   PostStatus = "posted"
	PostStatusCanceled PostStatus = "canceled"
	PostStatusFailed   PostStatus = "failed"
)

// ScheduledPost records a user's intent to publish a clip to one or more platforms.
type ScheduledPost struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	ClipID      int64      `json:"clip_id"`
	Platforms   []Platform `json:"platforms"`
	Caption     string     `json:"caption"`
	Hashtags    string     `json:"hashtags"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Status      PostStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
