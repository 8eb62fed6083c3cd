package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Body {
	t.Helper()
	var b Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestCreated(t *testing.T) {
	w := record(func(c *gin.Context) { Created(c, "Trip created", gin.H{"tripId": 5}) })
	assert.Equal(t, http.StatusCreated, w.Code)
	b := decode(t, w)
	assert.True(t, b.Success)
	assert.Equal(t, "Trip created", b.Message)
	assert.Equal(t, map[string]interface{}{"tripId": float64(5)}, b.Data)
}

func TestErrorsCarryStatusAndMessage(t *testing.T) {
	cases := []struct {
		fn   func(c *gin.Context)
		code int
	}{
		{func(c *gin.Context) { BadRequest(c, "x") }, http.StatusBadRequest},
		{func(c *gin.Context) { Forbidden(c, "x") }, http.StatusForbidden},
		{func(c *gin.Context) { NotFound(c, "x") }, http.StatusNotFound},
		{func(c *gin.Context) { Conflict(c, "x") }, http.StatusConflict},
		{func(c *gin.Context) { Internal(c, "x") }, http.StatusInternalServerError},
		{func(c *gin.Context) { BadGateway(c, "x", nil) }, http.StatusBadGateway},
	}
	for _, tc := range cases {
		w := record(tc.fn)
		assert.Equal(t, tc.code, w.Code)
		b := decode(t, w)
		assert.False(t, b.Success)
		assert.Equal(t, "x", b.Error)
	}
}

func TestDone(t *testing.T) {
	w := record(func(c *gin.Context) { Done(c, "Expense deleted") })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Expense deleted", decode(t, w).Message)
}
