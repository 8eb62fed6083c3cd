package trips

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/response"
)

const dateLayout = "2006-01-02"

// CreateTripRequest is the body for POST /trips.
type CreateTripRequest struct {
	Name          string `json:"name" binding:"required"`
	StartLocation string `json:"start_location" binding:"required"`
	EndLocation   string `json:"end_location" binding:"required"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date" binding:"required"`
	CreatorID     int64  `json:"creator_id" binding:"required"`
}

// AddParticipantRequest is the body for POST /trips/:id/participants.
type AddParticipantRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// Handler handles trip HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a trips handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// List GET /trips
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list trips", zap.Error(err))
		response.Internal(c, "failed to list trips")
		return
	}
	response.OK(c, list)
}

// ListByCreator GET /trips/creator?creator_id=
func (h *Handler) ListByCreator(c *gin.Context) {
	creatorID, err := strconv.ParseInt(c.Query("creator_id"), 10, 64)
	if err != nil || creatorID <= 0 {
		response.BadRequest(c, "missing creator_id")
		return
	}
	list, err := h.repo.ListByCreator(c.Request.Context(), creatorID)
	if err != nil {
		h.logger.Error("list trips by creator", zap.Error(err), zap.Int64("creator_id", creatorID))
		response.Internal(c, "failed to list trips")
		return
	}
	response.OK(c, list)
}

// ListByUser GET /trips/user/:id
func (h *Handler) ListByUser(c *gin.Context) {
	userID, ok := idParam(c, "id", "invalid user id")
	if !ok {
		return
	}
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list trips by user", zap.Error(err), zap.Int64("user_id", userID))
		response.Internal(c, "failed to list trips")
		return
	}
	response.OK(c, list)
}

// Create POST /trips
func (h *Handler) Create(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing required fields")
		return
	}
	start, err1 := time.Parse(dateLayout, req.StartDate)
	end, err2 := time.Parse(dateLayout, req.EndDate)
	if err1 != nil || err2 != nil {
		response.BadRequest(c, "dates must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		response.BadRequest(c, "end_date is before start_date")
		return
	}

	t := &models.Trip{
		CreatorID:     req.CreatorID,
		Title:         req.Name,
		StartLocation: req.StartLocation,
		EndLocation:   req.EndLocation,
		StartDate:     start,
		EndDate:       end,
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		h.logger.Error("create trip", zap.Error(err), zap.Int64("creator_id", req.CreatorID))
		response.Internal(c, "failed to create trip")
		return
	}
	response.Created(c, "Trip created", gin.H{"tripId": t.ID, "trip": t})
}

// Get GET /trips/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid trip id")
	if !ok {
		return
	}
	t, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		h.logger.Error("get trip", zap.Error(err), zap.Int64("trip_id", id))
		response.Internal(c, "failed to get trip")
		return
	}
	response.OK(c, t)
}

// Delete DELETE /trips/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid trip id")
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		h.logger.Error("delete trip", zap.Error(err), zap.Int64("trip_id", id))
		response.Internal(c, "failed to delete trip")
		return
	}
	response.Done(c, "Trip deleted successfully")
}

// Participants GET /trips/:id/participants
func (h *Handler) Participants(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid trip id")
	if !ok {
		return
	}
	list, err := h.repo.Participants(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list participants", zap.Error(err), zap.Int64("trip_id", id))
		response.Internal(c, "failed to list participants")
		return
	}
	response.OK(c, list)
}

// AddParticipant POST /trips/:id/participants
func (h *Handler) AddParticipant(c *gin.Context) {
	id, ok := idParam(c, "id", "invalid trip id")
	if !ok {
		return
	}
	var req AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID <= 0 {
		response.BadRequest(c, "missing or invalid user_id")
		return
	}
	err := h.repo.AddParticipant(c.Request.Context(), id, req.UserID, models.RoleMember)
	switch {
	case err == nil:
		response.Created(c, "Participant added to trip", nil)
	case errors.Is(err, ErrAlreadyParticipant):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "trip or user not found")
	default:
		h.logger.Error("add participant", zap.Error(err), zap.Int64("trip_id", id), zap.Int64("user_id", req.UserID))
		response.Internal(c, "failed to add participant")
	}
}

func idParam(c *gin.Context, name, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, msg)
		return 0, false
	}
	return id, true
}
