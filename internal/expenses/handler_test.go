package expenses

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestExpensesHandlerValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewRepository(nil), zap.NewNop())
	r := gin.New()
	r.POST("/expenses", h.Add)
	r.GET("/expenses/trip/:tripId", h.ListByTrip)
	r.PUT("/expenses/:expenseId", h.Update)
	r.DELETE("/expenses/:expenseId", h.Delete)

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/expenses", `{"trip_id":1,"user_id":1,"description":"gas"}`},
		{http.MethodPost, "/expenses", `{"trip_id":1,"user_id":1,"description":"gas","amount":-5}`},
		{http.MethodPost, "/expenses", `{"trip_id":1,"user_id":1,"amount":5}`},
		{http.MethodGet, "/expenses/trip/x", ""},
		{http.MethodPut, "/expenses/0", `{"description":"gas","amount":5}`},
		{http.MethodPut, "/expenses/4", `{"description":"gas"}`},
		{http.MethodDelete, "/expenses/abc", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s %s", tc.method, tc.path, tc.body)
	}
}
