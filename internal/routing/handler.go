package routing

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/pkg/response"
)

// CreateRouteRequest is the body for POST /routes/create.
type CreateRouteRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// SearchStopsRequest is the body for POST /stops/search. One of Query or Category is required.
type SearchStopsRequest struct {
	EncodedPolyline string `json:"encodedPolyline" binding:"required"`
	Query           string `json:"query"`
	Category        string `json:"category"`
}

// Handler exposes the route and stop search proxies.
type Handler struct {
	client *Client
	logger *zap.Logger
}

// NewHandler creates a routing handler.
func NewHandler(client *Client, logger *zap.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// CreateRoute POST /routes/create
func (h *Handler) CreateRoute(c *gin.Context) {
	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "start and end are required")
		return
	}
	route, err := h.client.ComputeRoute(c.Request.Context(), req.Start, req.End)
	if err != nil {
		h.upstreamFailure(c, err, "Route fetch failed")
		return
	}
	response.OK(c, route)
}

// SearchStops POST /stops/search
func (h *Handler) SearchStops(c *gin.Context) {
	var req SearchStopsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing encoded polyline or search terms")
		return
	}
	text := strings.TrimSpace(req.Query)
	if text == "" {
		text = strings.TrimSpace(req.Category)
	}
	if text == "" {
		response.BadRequest(c, "missing encoded polyline or search terms")
		return
	}
	places, err := h.client.SearchAlongRoute(c.Request.Context(), req.EncodedPolyline, text)
	if err != nil {
		h.upstreamFailure(c, err, "Failed to fetch places")
		return
	}
	response.OK(c, gin.H{"places": places})
}

func (h *Handler) upstreamFailure(c *gin.Context, err error, msg string) {
	if errors.Is(err, ErrNotConfigured) {
		response.ServiceUnavailable(c, err.Error())
		return
	}
	h.logger.Error(msg, zap.Error(err))
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		response.BadGateway(c, msg, apiErr.Body)
		return
	}
	response.BadGateway(c, msg, err.Error())
}
