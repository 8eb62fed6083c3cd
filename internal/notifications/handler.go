package notifications

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/pkg/response"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Handler handles notification HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a notifications handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// ListByUser GET /notifications/user/:userId?limit=
func (h *Handler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		response.BadRequest(c, "invalid user id")
		return
	}
	limit := defaultLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.BadRequest(c, "invalid limit")
			return
		}
		limit = min(n, maxLimit)
	}
	list, err := h.repo.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list notifications", zap.Error(err), zap.Int64("user_id", userID))
		response.Internal(c, "failed to load notifications")
		return
	}
	response.OK(c, list)
}

// MarkRead POST /notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid notification id")
		return
	}
	if err := h.repo.MarkRead(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		h.logger.Error("mark notification read", zap.Error(err), zap.Int64("notification_id", id))
		response.Internal(c, "failed to update notification")
		return
	}
	response.Done(c, "Notification marked as read")
}
