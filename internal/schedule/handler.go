package schedule

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/auth"
	"github.com/clipai/backend/pkg/response"
)

// ScheduleRequest is the body for POST /schedule.
type ScheduleRequest struct {
	ClipID      int64      `json:"clip_id" binding:"required"`
	Platforms   []string   `json:"platforms" binding:"required"`
	Caption     string     `json:"caption"`
	Hashtags    string     `json:"hashtags"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Handler handles scheduling HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a schedule handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /schedule.
func (h *Handler) Create(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	post, err := h.svc.Schedule(c.Request.Context(), auth.UserID(c), Input{
		ClipID:      req.ClipID,
		Platforms:   req.Platforms,
		Caption:     req.Caption,
		Hashtags:    req.Hashtags,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		if apperrors.Status(err) >= http.StatusInternalServerError {
			h.logger.Error("schedule post", zap.Error(err))
		}
		apperrors.Respond(c, err)
		return
	}
	response.Created(c, post)
}

// List handles GET /schedule.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.logger.Error("list scheduled posts", zap.Error(err))
		apperrors.Respond(c, err)
		return
	}
	response.OK(c, list)
}

// Cancel handles DELETE /schedule/:id.
func (h *Handler) Cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid post id")
		return
	}
	post, err := h.svc.Cancel(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	response.OK(c, post)
}
