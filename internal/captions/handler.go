package captions

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/pkg/response"
)

// SuggestRequest is the body for POST /ai/caption.
type SuggestRequest struct {
	Context string `json:"context"`
}

// SuggestResponse is the caption suggestion payload.
type SuggestResponse struct {
	Caption string `json:"caption"`
}

// Handler handles caption HTTP endpoints.
type Handler struct {
	suggester Suggester
	logger    *zap.Logger
}

// NewHandler creates a caption handler.
func NewHandler(suggester Suggester, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{suggester: suggester, logger: logger}
}

// Suggest handles POST /ai/caption.
func (h *Handler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	if len(req.Context) > MaxContextLength {
		response.BadRequest(c, "context too long")
		return
	}
	caption, err := h.suggester.Suggest(c.Request.Context(), req.Context)
	if err != nil {
		h.logger.Error("suggest caption", zap.Error(err))
		apperrors.Respond(c, apperrors.Dependency("caption suggestion", err))
		return
	}
	response.OK(c, SuggestResponse{Caption: caption})
}
