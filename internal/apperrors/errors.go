// Package apperrors defines the error taxonomy shared by services and HTTP handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipai/backend/pkg/response"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrQuotaExceeded     = errors.New("clip quota exceeded")
	ErrClipNotReady      = errors.New("clip not ready")
	ErrUnsupportedFormat = errors.New("unsupported video format")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrDependency        = errors.New("dependency failure")
	ErrUploadIncomplete  = errors.New("upload incomplete")
)

// Validation wraps ErrValidation with a message for the caller.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Dependency wraps a collaborator error (storage, analysis) as ErrDependency.
func Dependency(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDependency, what, err)
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrClipNotReady):
		return http.StatusConflict
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUploadIncomplete):
		return http.StatusRequestTimeout
	case errors.Is(err, ErrDependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a JSON error envelope. Internal errors are not echoed to the client.
func Respond(c *gin.Context, err error) {
	msg := err.Error()
	switch Status(err) {
	case http.StatusBadRequest:
		response.BadRequest(c, msg)
	case http.StatusForbidden:
		response.Forbidden(c, msg)
	case http.StatusNotFound:
		response.NotFound(c, msg)
	case http.StatusRequestTimeout:
		response.RequestTimeout(c, msg)
	case http.StatusConflict:
		response.Conflict(c, msg)
	case http.StatusRequestEntityTooLarge:
		response.PayloadTooLarge(c, msg)
	case http.StatusUnsupportedMediaType:
		response.UnsupportedMediaType(c, msg)
	case http.StatusServiceUnavailable:
		response.ServiceUnavailable(c, ErrDependency.Error())
	default:
		response.Internal(c, "internal error")
	}
}
