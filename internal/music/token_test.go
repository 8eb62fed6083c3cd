package music

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCache struct {
	mu   sync.Mutex
	vals map[string]string
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{vals: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) GetString(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memCache) SetString(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value
	m.ttls[key] = ttl
	return nil
}

func fakeSpotify(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		id, secret, ok := r.BasicAuth()
		if !ok || id != "cid" || secret != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	}))
}

func TestTokenIsCachedUntilExpiry(t *testing.T) {
	var calls int32
	srv := fakeSpotify(t, &calls)
	defer srv.Close()

	cache := newMemCache()
	src := NewTokenSource("cid", "secret", srv.URL, time.Second, cache, zap.NewNop())

	for i := 0; i < 3; i++ {
		tok, err := src.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", tok)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 59*time.Minute, cache.ttls[tokenCacheKey])
}

func TestTokenWithoutCacheFetchesEachTime(t *testing.T) {
	var calls int32
	srv := fakeSpotify(t, &calls)
	defer srv.Close()

	src := NewTokenSource("cid", "secret", srv.URL, time.Second, nil, zap.NewNop())
	_, err := src.Token(context.Background())
	require.NoError(t, err)
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var calls int32
	srv := fakeSpotify(t, &calls)
	defer srv.Close()

	serve := func(src *TokenSource) *httptest.ResponseRecorder {
		r := gin.New()
		r.GET("/spotify/token", NewHandler(src, zap.NewNop()).Token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/spotify/token", nil))
		return w
	}

	w := serve(NewTokenSource("cid", "secret", srv.URL, time.Second, newMemCache(), zap.NewNop()))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "tok-1", body.Data.AccessToken)

	w = serve(NewTokenSource("cid", "wrong", srv.URL, time.Second, nil, zap.NewNop()))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_client")

	w = serve(NewTokenSource("", "", srv.URL, time.Second, nil, zap.NewNop()))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
