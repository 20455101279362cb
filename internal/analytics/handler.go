package analytics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/auth"
	"github.com/clipai/backend/pkg/response"
)

// RecordRequest is the body for POST /analytics/records. Date is YYYY-MM-DD.
type RecordRequest struct {
	ClipID   int64  `json:"clip_id" binding:"required"`
	Platform string `json:"platform" binding:"required"`
	Date     string `json:"date"`
	Views    int64  `json:"views"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
	Shares   int64  `json:"shares"`
}

// Handler handles analytics HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Summary handles GET /analytics.
func (h *Handler) Summary(c *gin.Context) {
	s, err := h.svc.Summarize(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.logger.Error("summarize analytics", zap.Error(err))
		apperrors.Respond(c, err)
		return
	}
	response.OK(c, s)
}

// Platforms handles GET /analytics/platforms.
func (h *Handler) Platforms(c *gin.Context) {
	list, err := h.svc.ByPlatform(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.logger.Error("analytics by platform", zap.Error(err))
		apperrors.Respond(c, err)
		return
	}
	response.OK(c, list)
}

// Record handles POST /analytics/records.
func (h *Handler) Record(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in := RecordInput{
		ClipID:   req.ClipID,
		Platform: req.Platform,
		Views:    req.Views,
		Likes:    req.Likes,
		Comments: req.Comments,
		Shares:   req.Shares,
	}
	if req.Date != "" {
		d, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			response.BadRequest(c, "date must be YYYY-MM-DD")
			return
		}
		in.Date = &d
	}
	rec, err := h.svc.Record(c.Request.Context(), auth.UserID(c), in)
	if err != nil {
		if apperrors.Status(err) >= http.StatusInternalServerError {
			h.logger.Error("record analytics", zap.Error(err))
		}
		apperrors.Respond(c, err)
		return
	}
	response.Created(c, rec)
}
