package trips

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewRepository(nil), zap.NewNop())
	r := gin.New()
	r.POST("/trips", h.Create)
	r.GET("/trips/creator", h.ListByCreator)
	r.GET("/trips/:id", h.Get)
	r.DELETE("/trips/:id", h.Delete)
	r.POST("/trips/:id/participants", h.AddParticipant)
	return r
}

func TestCreateTripValidation(t *testing.T) {
	r := newTestRouter()
	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing creator", `{"name":"x","start_location":"a","end_location":"b","start_date":"2025-06-01","end_date":"2025-06-03"}`},
		{"bad date", `{"name":"x","start_location":"a","end_location":"b","start_date":"June 1","end_date":"2025-06-03","creator_id":1}`},
		{"end before start", `{"name":"x","start_location":"a","end_location":"b","start_date":"2025-06-03","end_date":"2025-06-01","creator_id":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/trips", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestInvalidIDs(t *testing.T) {
	r := newTestRouter()
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/trips/abc", ""},
		{http.MethodDelete, "/trips/0", ""},
		{http.MethodGet, "/trips/creator", ""},
		{http.MethodPost, "/trips/-3/participants", `{"user_id":2}`},
		{http.MethodPost, "/trips/3/participants", `{}`},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tc.method, tc.path)
	}
}
