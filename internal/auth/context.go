package auth

import "github.com/gin-gonic/gin"

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// SetIdentity stores validated claims on the request context.
func SetIdentity(c *gin.Context, claims *Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserEmail, claims.Email)
}

// UserID returns the authenticated user's id, or 0 when the request is anonymous.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}
