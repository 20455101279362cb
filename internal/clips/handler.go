// Package clips serves generated clips to their owners.
package clips

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clipai/backend/internal/apperrors"
	"github.com/clipai/backend/internal/auth"
	"github.com/clipai/backend/internal/models"
	"github.com/clipai/backend/pkg/response"
)

// URLSigner resolves a storage key to a fetchable URL.
type URLSigner interface {
	URL(ctx context.Context, key string) (string, error)
}

// View is a clip with a URL to its media.
type View struct {
	models.Clip
	URL string `json:"url,omitempty"`
}

// Handler handles clip HTTP endpoints.
type Handler struct {
	store  Store
	urls   URLSigner
	logger *zap.Logger
}

// NewHandler creates a clip handler. urls may be nil.
func NewHandler(store Store, urls URLSigner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, urls: urls, logger: logger}
}

// List handles GET /clips?videoId=.
func (h *Handler) List(c *gin.Context) {
	var videoID int64
	if raw := c.Query("videoId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.BadRequest(c, "invalid videoId")
			return
		}
		videoID = id
	}
	list, err := h.store.ListByUser(c.Request.Context(), auth.UserID(c), videoID)
	if err != nil {
		h.logger.Error("list clips", zap.Error(err))
		apperrors.Respond(c, err)
		return
	}
	out := make([]View, len(list))
	for i, cl := range list {
		out[i] = h.view(c.Request.Context(), cl)
	}
	response.OK(c, out)
}

// Get handles GET /clips/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid clip id")
		return
	}
	cl, err := h.store.GetOwned(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	response.OK(c, h.view(c.Request.Context(), *cl))
}

func (h *Handler) view(ctx context.Context, cl models.Clip) View {
	v := View{Clip: cl}
	if h.urls != nil && cl.Status == models.ClipStatusReady {
		url, err := h.urls.URL(ctx, cl.StorageKey)
		if err != nil {
			h.logger.Warn("clip url", zap.Int64("clip_id", cl.ID), zap.Error(err))
		}
		v.URL = url
	}
	return v
}
