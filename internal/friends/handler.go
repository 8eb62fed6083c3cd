package friends

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/middleware"
	"github.com/pitstop-trips/backend/pkg/response"
)

type senderBody struct {
	SenderID int64 `json:"sender_id" binding:"required,gt=0"`
}

type userBody struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
}

// Handler handles friend HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a friends handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Request POST /friends/:id sends a request from sender_id to :id.
func (h *Handler) Request(c *gin.Context) {
	receiverID, ok := pathID(c)
	if !ok {
		return
	}
	var body senderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "missing sender_id")
		return
	}
	if !middleware.ActingAs(c, body.SenderID) {
		return
	}
	err := h.repo.Request(c.Request.Context(), body.SenderID, receiverID)
	switch {
	case err == nil:
		response.Created(c, "Friend request sent", nil)
	case errors.Is(err, ErrExists):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrSelf):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(c, err.Error())
	default:
		h.logger.Error("send friend request", zap.Error(err), zap.Int64("sender_id", body.SenderID), zap.Int64("receiver_id", receiverID))
		response.Internal(c, "failed to send friend request")
	}
}

// Accept POST /friends/:id/accept accepts the request from :id to user_id.
func (h *Handler) Accept(c *gin.Context) {
	senderID, ok := pathID(c)
	if !ok {
		return
	}
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid user ids")
		return
	}
	if !middleware.ActingAs(c, body.UserID) {
		return
	}
	err := h.repo.Accept(c.Request.Context(), senderID, body.UserID)
	switch {
	case err == nil:
		response.Done(c, "Friend request accepted")
	case errors.Is(err, ErrNoRequest):
		response.NotFound(c, err.Error())
	default:
		h.logger.Error("accept friend request", zap.Error(err), zap.Int64("sender_id", senderID))
		response.Internal(c, "failed to accept friend request")
	}
}

// List GET /friends?user_id=
func (h *Handler) List(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		response.BadRequest(c, "missing user_id")
		return
	}
	list, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list friends", zap.Error(err), zap.Int64("user_id", userID))
		response.Internal(c, "failed to list friends")
		return
	}
	response.OK(c, list)
}

// Pending GET /friends/requests?user_id=<firebase uid>
func (h *Handler) Pending(c *gin.Context) {
	uid := c.Query("user_id")
	if uid == "" {
		response.BadRequest(c, "missing user_id")
		return
	}
	list, err := h.repo.Pending(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		h.logger.Error("pending friend requests", zap.Error(err))
		response.Internal(c, "failed to list requests")
		return
	}
	response.OK(c, list)
}

// Remove DELETE /friends/:id with body user_id.
func (h *Handler) Remove(c *gin.Context) {
	otherID, ok := pathID(c)
	if !ok {
		return
	}
	var body userBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "missing user_id")
		return
	}
	if !middleware.ActingAs(c, body.UserID) {
		return
	}
	if err := h.repo.Remove(c.Request.Context(), body.UserID, otherID); err != nil {
		h.logger.Error("remove friend", zap.Error(err), zap.Int64("user_id", body.UserID))
		response.Internal(c, "failed to remove friend")
		return
	}
	response.Done(c, "Friendship removed")
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid user id")
		return 0, false
	}
	return id, true
}
