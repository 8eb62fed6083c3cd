package proposals

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/pkg/database/dbtest"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewRepository(nil, 0), zap.NewNop())
	r := gin.New()
	r.GET("/trip-proposals/:tripId/proposed-songs", h.ListSongs)
	r.POST("/trip-proposals/propose-song", h.ProposeSong)
	r.POST("/trip-proposals/propose-stop", h.ProposeStop)
	return r
}

func TestProposeRejectsMissingFields(t *testing.T) {
	r := newTestRouter()
	cases := []struct {
		path string
		body string
		want string
	}{
		{"/trip-proposals/propose-song", `{"trip_id":1,"user_id":2,"title":"t","artist":"a"}`, "missing required song data"},
		{"/trip-proposals/propose-song", `{"trip_id":1,"title":"t","artist":"a","spotify_id":"x"}`, "missing required song data"},
		{"/trip-proposals/propose-stop", `{"trip_id":1,"user_id":2,"name":"Joe's Diner"}`, "missing required stop data"},
		{"/trip-proposals/propose-stop", `not json`, "missing required stop data"},
		{"/trip-proposals/propose-stop", `{"trip_id":-1,"user_id":2,"name":"n","address":"a"}`, "missing required stop data"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, tc.path, bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		assert.Contains(t, w.Body.String(), tc.want)
	}
}

func TestListRejectsBadTripID(t *testing.T) {
	r := newTestRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trip-proposals/abc/proposed-songs", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProposeStopCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(returningID(7))
	h := NewHandler(NewRepository(db, ttl), zap.NewNop())
	h.now = func() time.Time { return now }
	r := gin.New()
	r.POST("/trip-proposals/propose-stop", h.ProposeStop)

	body := `{"trip_id":1,"user_id":2,"name":"Joe's Diner","address":"1 Main St","detour_time":12}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/trip-proposals/propose-stop", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data struct {
			ID        int64     `json:"id"`
			Name      string    `json:"name"`
			ExpiresAt time.Time `json:"expires_at"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Data.ID)
	assert.Equal(t, "Joe's Diner", resp.Data.Name)
	assert.True(t, now.Add(ttl).Equal(resp.Data.ExpiresAt))
}
