package invites

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/middleware"
	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/response"
)

// SendInviteRequest is the body for POST /trip-invites.
type SendInviteRequest struct {
	TripID     int64 `json:"trip_id" binding:"required,gt=0"`
	SenderID   int64 `json:"sender_id" binding:"required,gt=0"`
	ReceiverID int64 `json:"receiver_id" binding:"required,gt=0"`
}

// RespondRequest is the body for POST /trip-invites/:inviteId/respond.
type RespondRequest struct {
	Action string `json:"action" binding:"required,oneof=accepted declined"`
	UserID int64  `json:"user_id" binding:"required,gt=0"`
}

// Handler handles trip invite HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a trip invites handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Send POST /trip-invites
func (h *Handler) Send(c *gin.Context) {
	var req SendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing fields")
		return
	}
	if !middleware.ActingAs(c, req.SenderID) {
		return
	}
	inv := &models.TripInvite{TripID: req.TripID, SenderID: req.SenderID, ReceiverID: req.ReceiverID}
	if err := h.repo.Send(c.Request.Context(), inv); err != nil {
		if errors.Is(err, ErrTripOrUserAbsent) {
			response.NotFound(c, err.Error())
			return
		}
		h.logger.Error("send invite", zap.Error(err), zap.Int64("trip_id", req.TripID))
		response.Internal(c, "failed to send invite")
		return
	}
	response.Created(c, "Invite sent", inv)
}

// Pending GET /trip-invites/pending/:userId
func (h *Handler) Pending(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		response.BadRequest(c, "invalid user id")
		return
	}
	list, err := h.repo.Pending(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("pending invites", zap.Error(err), zap.Int64("user_id", userID))
		response.Internal(c, "failed to list invites")
		return
	}
	response.OK(c, list)
}

// Respond POST /trip-invites/:inviteId/respond
func (h *Handler) Respond(c *gin.Context) {
	inviteID, err := strconv.ParseInt(c.Param("inviteId"), 10, 64)
	if err != nil || inviteID <= 0 {
		response.BadRequest(c, "missing or invalid parameters")
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing or invalid parameters")
		return
	}
	if !middleware.ActingAs(c, req.UserID) {
		return
	}
	err = h.repo.Respond(c.Request.Context(), inviteID, req.UserID, req.Action)
	switch {
	case err == nil && req.Action == models.InviteAccepted:
		response.Done(c, "Invite accepted and participant added")
	case err == nil:
		response.Done(c, "Invite declined")
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrNotRecipient):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrAlreadyAnswered):
		response.Conflict(c, err.Error())
	default:
		h.logger.Error("respond to invite", zap.Error(err), zap.Int64("invite_id", inviteID))
		response.Internal(c, "failed to respond to invite")
	}
}
