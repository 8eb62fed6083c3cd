package music

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/pkg/response"
)

// Handler serves Spotify tokens.
type Handler struct {
	tokens *TokenSource
	logger *zap.Logger
}

// NewHandler creates a music handler.
func NewHandler(tokens *TokenSource, logger *zap.Logger) *Handler {
	return &Handler{tokens: tokens, logger: logger}
}

// Token GET /spotify/token
func (h *Handler) Token(c *gin.Context) {
	tok, err := h.tokens.Token(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			response.ServiceUnavailable(c, err.Error())
			return
		}
		h.logger.Error("Failed to get Spotify token", zap.Error(err))
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			response.BadGateway(c, "Failed to get Spotify token", apiErr.Body)
			return
		}
		response.BadGateway(c, "Failed to get Spotify token", err.Error())
		return
	}
	response.OK(c, gin.H{"accessToken": tok})
}
