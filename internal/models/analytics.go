package models

import "time"

// AnalyticsRecord holds engagement counters for one clip on one platform for one date bucket.
type AnalyticsRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ClipID    int64     `json:"clip_id"`
	Platform  Platform  `json:"platform"`
	Date      time.Time `json:"date"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	Comments  int64     `json:"comments"`
	Shares    int64     `json:"shares"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalyticsSummary is the lifetime rollup across a user's records.
type AnalyticsSummary struct {
	TotalViews    int64 `json:"total_views"`
	TotalLikes    int64 `json:"total_likes"`
	TotalComments int64 `json:"total_comments"`
	TotalShares   int64 `json:"total_shares"`
	TotalPosts    int64 `json:"total_posts"`
}

// PlatformBreakdown is the lifetime rollup for a single platform.
type PlatformBreakdown struct {
	Platform Platform `json:"platform"`
	Views    int64    `json:"views"`
	Likes    int64    `json:"likes"`
	Comments int64    `json:"comments"`
	Shares   int64    `json:"shares"`
	Records  int64    `json:"records"`
}
