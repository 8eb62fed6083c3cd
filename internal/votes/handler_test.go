package votes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/auth"
	"github.com/pitstop-trips/backend/internal/middleware"
	"github.com/pitstop-trips/backend/internal/models"
)

func newVoteRouter(s *memStore, jwt *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(newTestEngine(s), nil, zap.NewNop())
	r := gin.New()
	r.Use(middleware.OptionalJWT(jwt))
	r.POST("/votes", h.Submit)
	r.GET("/votes/counts/:tripId", h.Counts)
	r.GET("/votes/trip/:tripId/user/:userId", h.UserVotes)
	return r
}

func postVote(r http.Handler, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/votes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitHandler(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice, bob)
	s.addProposal(openStop(30, "Joe's Diner"))
	r := newVoteRouter(s, auth.NewJWTService("k", 1))

	w := postVote(r, `{"user_id":1,"proposal_type":"stop","proposal_id":30,"vote_value":"yes"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Vote submitted")

	w = postVote(r, `{"user_id":1,"proposal_type":"stop","proposal_id":30,"vote_value":"no"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Vote updated")

	w = postVote(r, `{"user_id":2,"proposal_type":"stop","proposal_id":30,"vote_value":"yes"}`, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Data VoteResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusRejected, body.Data.Status)
	assert.Equal(t, 1, body.Data.YesVotes)
	assert.Equal(t, 1, body.Data.NoVotes)

	w = postVote(r, `{"user_id":2,"proposal_type":"stop","proposal_id":30,"vote_value":"yes"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitHandlerErrors(t *testing.T) {
	s := newMemStore()
	s.addTrip(tripID, alice)
	s.addProposal(openStop(31, "Park"))
	jwt := auth.NewJWTService("k", 1)
	r := newVoteRouter(s, jwt)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad kind", `{"user_id":1,"proposal_type":"hotel","proposal_id":31,"vote_value":"yes"}`, http.StatusBadRequest},
		{"bad value", `{"user_id":1,"proposal_type":"stop","proposal_id":31,"vote_value":"maybe"}`, http.StatusBadRequest},
		{"missing id", `{"user_id":1,"proposal_type":"stop","vote_value":"yes"}`, http.StatusBadRequest},
		{"unknown proposal", `{"user_id":1,"proposal_type":"stop","proposal_id":99,"vote_value":"yes"}`, http.StatusNotFound},
		{"not a participant", `{"user_id":4,"proposal_type":"stop","proposal_id":31,"vote_value":"yes"}`, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, postVote(r, tc.body, "").Code)
		})
	}

	other, err := jwt.Generate(bob, "uid-bob", "bob@x.test")
	require.NoError(t, err)
	w := postVote(r, `{"user_id":1,"proposal_type":"stop","proposal_id":31,"vote_value":"yes"}`, other)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, s.voteRows(models.KindStop, 31))
}

func TestReadHandlersRejectBadIDs(t *testing.T) {
	r := newVoteRouter(newMemStore(), auth.NewJWTService("k", 1))
	for _, path := range []string{"/votes/counts/zero", "/votes/counts/0", "/votes/trip/1/user/x"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
