package models

import "time"

// Plan is a user's subscription tier.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

// DefaultClipsLimit is the clip quota granted on registration (free plan).
const DefaultClipsLimit = 50

// User represents a platform user and their clip quota.
type User struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	Avatar     string    `json:"avatar,omitempty"`
	Plan       Plan      `json:"plan"`
	ClipsUsed  int       `json:"clips_used"`
	ClipsLimit int       `json:"clips_limit"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuotaExhausted reports whether the user has no clip quota left.
func (u *User) QuotaExhausted() bool {
	return u.ClipsUsed >= u.ClipsLimit
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar,omitempty"`
	Plan       Plan      `json:"plan"`
	ClipsUsed  int       `json:"clips_used"`
	ClipsLimit int       `json:"clips_limit"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Avatar:     u.Avatar,
		Plan:       u.Plan,
		ClipsUsed:  u.ClipsUsed,
		ClipsLimit: u.ClipsLimit,
		CreatedAt:  u.CreatedAt,
	}
}
