package confirmed

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/pkg/response"
)

// Handler serves the confirmed playlist and itinerary.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a confirmed items handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// ListSongs GET /confirmed/songs/trip/:tripId
func (h *Handler) ListSongs(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	list, err := h.repo.ListSongs(c.Request.Context(), tripID)
	if err != nil {
		h.logger.Error("list confirmed songs", zap.Error(err), zap.Int64("trip_id", tripID))
		response.Internal(c, "Failed to fetch confirmed songs")
		return
	}
	response.OK(c, list)
}

// ListStops GET /confirmed/stops/trip/:tripId
func (h *Handler) ListStops(c *gin.Context) {
	tripID, ok := tripParam(c)
	if !ok {
		return
	}
	list, err := h.repo.ListStops(c.Request.Context(), tripID)
	if err != nil {
		h.logger.Error("list confirmed stops", zap.Error(err), zap.Int64("trip_id", tripID))
		response.Internal(c, "Failed to fetch confirmed stops")
		return
	}
	response.OK(c, list)
}

func tripParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("tripId"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid trip id")
		return 0, false
	}
	return id, true
}
