package votes

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/middleware"
	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/response"
)

// SubmitVoteRequest is the body for POST /votes.
type SubmitVoteRequest struct {
	UserID       int64  `json:"user_id" binding:"required,gt=0"`
	ProposalType string `json:"proposal_type" binding:"required,oneof=song stop"`
	ProposalID   int64  `json:"proposal_id" binding:"required,gt=0"`
	VoteValue    string `json:"vote_value" binding:"required,oneof=yes no"`
}

// VoteResult is returned from POST /votes.
type VoteResult struct {
	Status       Status               `json:"status"`
	YesVotes     int                  `json:"yes_votes"`
	NoVotes      int                  `json:"no_votes"`
	Participants int                  `json:"participants"`
	Confirmation *models.Confirmation `json:"confirmation,omitempty"`
}

// Handler handles vote HTTP endpoints.
type Handler struct {
	engine *Engine
	reads  *ReadModel
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a votes handler.
func NewHandler(engine *Engine, reads *ReadModel, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, reads: reads, logger: logger, now: time.Now}
}

// Submit POST /votes
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, ErrInvalidVote.Error())
		return
	}
	if !middleware.ActingAs(c, req.UserID) {
		return
	}

	out, err := h.engine.SubmitVote(c.Request.Context(), Request{
		VoterID:    req.UserID,
		Kind:       models.ProposalKind(req.ProposalType),
		ProposalID: req.ProposalID,
		Value:      models.VoteValue(req.VoteValue),
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidVote):
		response.BadRequest(c, err.Error())
		return
	case errors.Is(err, ErrProposalNotFound):
		response.NotFound(c, err.Error())
		return
	case errors.Is(err, ErrNotParticipant):
		response.Forbidden(c, err.Error())
		return
	case errors.Is(err, ErrProposalClosed):
		response.Conflict(c, err.Error())
		return
	default:
		h.logger.Error("submit vote", zap.Error(err),
			zap.String("kind", req.ProposalType), zap.Int64("proposal_id", req.ProposalID), zap.Int64("user_id", req.UserID))
		response.Internal(c, "failed to submit vote")
		return
	}

	result := VoteResult{
		Status:       out.Status,
		YesVotes:     out.Tally.YesVotes,
		NoVotes:      out.Tally.NoVotes,
		Participants: out.Participants,
		Confirmation: out.Confirmation,
	}
	if out.Inserted {
		response.Created(c, "Vote submitted", result)
		return
	}
	response.Updated(c, "Vote updated", result)
}

// Counts GET /votes/counts/:tripId
func (h *Handler) Counts(c *gin.Context) {
	tripID, err := strconv.ParseInt(c.Param("tripId"), 10, 64)
	if err != nil || tripID <= 0 {
		response.BadRequest(c, "invalid trip id")
		return
	}
	counts, err := h.reads.Counts(c.Request.Context(), tripID, h.now())
	if err != nil {
		h.logger.Error("vote counts", zap.Error(err), zap.Int64("trip_id", tripID))
		response.Internal(c, "failed to load vote counts")
		return
	}
	response.OK(c, counts)
}

// UserVotes GET /votes/trip/:tripId/user/:userId
func (h *Handler) UserVotes(c *gin.Context) {
	tripID, err1 := strconv.ParseInt(c.Param("tripId"), 10, 64)
	userID, err2 := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err1 != nil || err2 != nil || tripID <= 0 || userID <= 0 {
		response.BadRequest(c, "invalid trip or user id")
		return
	}
	list, err := h.reads.UserVotes(c.Request.Context(), tripID, userID, h.now())
	if err != nil {
		h.logger.Error("user votes", zap.Error(err), zap.Int64("trip_id", tripID), zap.Int64("user_id", userID))
		response.Internal(c, "failed to load votes")
		return
	}
	response.OK(c, list)
}
