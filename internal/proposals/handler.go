package proposals

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/response"
)

// ProposeSongRequest is the body for POST /trip-proposals/propose-song.
type ProposeSongRequest struct {
	TripID      int64   `json:"trip_id" binding:"required"`
	UserID      int64   `json:"user_id" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Artist      string  `json:"artist" binding:"required"`
	AlbumCover  *string `json:"album_cover"`
	ReleaseYear *int    `json:"release_year"`
	SpotifyID   string  `json:"spotify_id" binding:"required"`
}

// ProposeStopRequest is the body for POST /trip-proposals/propose-stop.
type ProposeStopRequest struct {
	TripID     int64  `json:"trip_id" binding:"required"`
	UserID     int64  `json:"user_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Address    string `json:"address" binding:"required"`
	DetourTime int    `json:"detour_time"`
}

// Handler handles proposal HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewHandler creates a proposals handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger, now: time.Now}
}

// ListSongs handles GET /trip-proposals/:tripId/proposed-songs.
func (h *Handler) ListSongs(c *gin.Context) {
	h.list(c, models.KindSong)
}

// ListStops handles GET /trip-proposals/:tripId/proposed-stops.
func (h *Handler) ListStops(c *gin.Context) {
	h.list(c, models.KindStop)
}

func (h *Handler) list(c *gin.Context, kind models.ProposalKind) {
	tripID, err := strconv.ParseInt(c.Param("tripId"), 10, 64)
	if err != nil || tripID <= 0 {
		response.BadRequest(c, "invalid trip id")
		return
	}
	list, err := h.repo.ListActive(c.Request.Context(), kind, tripID, h.now())
	if err != nil {
		h.logger.Error("list proposals", zap.Error(err), zap.String("kind", string(kind)), zap.Int64("trip_id", tripID))
		response.Internal(c, "failed to load proposed "+string(kind)+"s")
		return
	}
	response.OK(c, list)
}

// ProposeSong handles POST /trip-proposals/propose-song.
func (h *Handler) ProposeSong(c *gin.Context) {
	var req ProposeSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, models.ErrMissingSongData.Error())
		return
	}
	p := models.NewSongProposal(req.TripID, req.UserID, models.SongPayload{
		Title:       req.Title,
		Artist:      req.Artist,
		AlbumCover:  req.AlbumCover,
		ReleaseYear: req.ReleaseYear,
		SpotifyID:   req.SpotifyID,
	})
	h.propose(c, p, "Song proposed successfully")
}

// ProposeStop handles POST /trip-proposals/propose-stop.
func (h *Handler) ProposeStop(c *gin.Context) {
	var req ProposeStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, models.ErrMissingStopData.Error())
		return
	}
	p := models.NewStopProposal(req.TripID, req.UserID, models.StopPayload{
		Name:       req.Name,
		Address:    req.Address,
		DetourTime: req.DetourTime,
	})
	h.propose(c, p, "Stop proposed successfully")
}

func (h *Handler) propose(c *gin.Context, p *models.Proposal, msg string) {
	if err := p.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.repo.Propose(c.Request.Context(), p, h.now())
	switch {
	case err == nil:
		response.Created(c, msg, p)
	case errors.Is(err, ErrTripNotFound):
		response.NotFound(c, err.Error())
	default:
		h.logger.Error("propose", zap.Error(err), zap.String("kind", string(p.Kind)), zap.Int64("trip_id", p.TripID))
		response.Internal(c, "failed to propose "+string(p.Kind))
	}
}
