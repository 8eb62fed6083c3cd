package invites

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestInvitesHandlerValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewRepository(nil), zap.NewNop())
	r := gin.New()
	r.POST("/trip-invites", h.Send)
	r.GET("/trip-invites/pending/:userId", h.Pending)
	r.POST("/trip-invites/:inviteId/respond", h.Respond)

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/trip-invites", `{"trip_id":1,"sender_id":2}`},
		{http.MethodGet, "/trip-invites/pending/x", ""},
		{http.MethodPost, "/trip-invites/x/respond", `{"action":"accepted","user_id":1}`},
		{http.MethodPost, "/trip-invites/1/respond", `{"action":"maybe","user_id":1}`},
		{http.MethodPost, "/trip-invites/1/respond", `{"action":"accepted"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRespondRejectsUnknownAction(t *testing.T) {
	err := NewRepository(nil).Respond(context.Background(), 1, 1, "ignored")
	assert.ErrorIs(t, err, ErrInvalidAction)
}
