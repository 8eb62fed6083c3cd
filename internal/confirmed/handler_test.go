package confirmed

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestListRejectsBadTripID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewRepository(nil), zap.NewNop())
	r := gin.New()
	r.GET("/confirmed/songs/trip/:tripId", h.ListSongs)
	r.GET("/confirmed/stops/trip/:tripId", h.ListStops)

	for _, path := range []string{
		"/confirmed/songs/trip/abc",
		"/confirmed/songs/trip/0",
		"/confirmed/stops/trip/-1",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
