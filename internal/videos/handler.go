package videos

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/auth"
	"github.com/clipai/backend/pkg/response"
)

// multipartOverhead allows for form boundaries and headers on top of the file itself.
const multipartOverhead = 1 << 20

// Handler handles video HTTP endpoints.
type Handler struct {
	svc           *Service
	uploadTimeout time.Duration
	logger        *zap.Logger
}

// NewHandler creates a video handler. A positive uploadTimeout replaces the server's
// read and write deadlines for the duration of an upload request.
func NewHandler(svc *Service, uploadTimeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, uploadTimeout: uploadTimeout, logger: logger}
}

// Upload handles POST /videos/upload (multipart field "video").
func (h *Handler) Upload(c *gin.Context) {
	limit := h.svc.MaxBytes() + multipartOverhead
	if c.Request.ContentLength > limit {
		apperrors.Respond(c, apperrors.ErrPayloadTooLarge)
		return
	}
	if h.uploadTimeout > 0 {
		deadline := time.Now().Add(h.uploadTimeout)
		rc := http.NewResponseController(c.Writer)
		if err := rc.SetReadDeadline(deadline); err != nil {
			h.logger.Debug("extend upload read deadline", zap.Error(err))
		}
		if err := rc.SetWriteDeadline(deadline); err != nil {
			h.logger.Debug("extend upload write deadline", zap.Error(err))
		}
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	fh, err := c.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			apperrors.Respond(c, apperrors.ErrPayloadTooLarge)
		case isTimeout(err):
			h.logger.Warn("upload body read timed out", zap.Int64("user_id", auth.UserID(c)), zap.Error(err))
			apperrors.Respond(c, fmt.Errorf("%w: body not received in time", apperrors.ErrUploadIncomplete))
		default:
			response.BadRequest(c, "video file is required")
		}
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "unreadable upload")
		return
	}
	defer f.Close()

	video, err := h.svc.Ingest(c.Request.Context(), auth.UserID(c), Upload{Filename: fh.Filename, Size: fh.Size, Body: f})
	if err != nil {
		if apperrors.Status(err) >= http.StatusInternalServerError {
			h.logger.Error("ingest video", zap.Error(err))
		}
		apperrors.Respond(c, err)
		return
	}
	response.Created(c, video)
}

// List handles GET /videos.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.logger.Error("list videos", zap.Error(err))
		apperrors.Respond(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /videos/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid video id")
		return
	}
	v, err := h.svc.Get(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	response.OK(c, v)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
