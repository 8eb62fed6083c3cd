// Package music issues Spotify access tokens to clients for catalogue search.
package music

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when Spotify client credentials are missing.
var ErrNotConfigured = errors.New("spotify client credentials not configured")

const (
	tokenCacheKey = "spotify:access_token"
	expiryMargin  = time.Minute
)

// APIError carries a non-2xx answer from the Spotify accounts service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify token status %d: %s", e.Status, e.Body)
}

// TokenCache stores the access token between requests.
type TokenCache interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
}

// TokenSource fetches client-credentials tokens and caches them until shortly before expiry.
type TokenSource struct {
	http         *http.Client
	clientID     string
	clientSecret string
	tokenURL     string
	cache        TokenCache
	logger       *zap.Logger

	mu sync.Mutex
}

// NewTokenSource creates a token source. cache may be nil.
func NewTokenSource(clientID, clientSecret, tokenURL string, timeout time.Duration, cache TokenCache, logger *zap.Logger) *TokenSource {
	return &TokenSource{
		http:         &http.Client{Timeout: timeout},
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		cache:        cache,
		logger:       logger,
	}
}

// Token returns a valid access token, hitting Spotify only on a cache miss.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	if s.clientID == "" || s.clientSecret == "" {
		return "", ErrNotConfigured
	}
	if tok, ok := s.cached(ctx); ok {
		return tok, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.cached(ctx); ok {
		return tok, nil
	}

	tok, ttl, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	if s.cache != nil && ttl > 0 {
		if err := s.cache.SetString(ctx, tokenCacheKey, tok, ttl); err != nil {
			s.logger.Warn("Failed to cache spotify token", zap.Error(err))
		}
	}
	return tok, nil
}

func (s *TokenSource) cached(ctx context.Context) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	tok, ok, err := s.cache.GetString(ctx, tokenCacheKey)
	if err != nil {
		s.logger.Warn("Spotify token cache read failed", zap.Error(err))
		return "", false
	}
	return tok, ok && tok != ""
}

func (s *TokenSource) fetch(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("call spotify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("decode token: %w", err)
	}
	if out.AccessToken == "" {
		return "", 0, errors.New("spotify returned an empty access token")
	}
	ttl := time.Duration(out.ExpiresIn)*time.Second - expiryMargin
	return out.AccessToken, ttl, nil
}
