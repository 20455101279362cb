package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clipai/backend/internal/auth"
	"github.com/clipai/backend/pkg/response"
)

// JWT returns a middleware that validates the bearer token and sets the caller's identity in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		auth.SetIdentity(c, claims)
		c.Next()
	}
}
