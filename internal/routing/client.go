// Package routing proxies Google Maps Platform route and place lookups.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/twpayne/go-polyline"
)

// ErrNotConfigured is returned when no Maps API key is set.
var ErrNotConfigured = errors.New("google maps api key not configured")

// ErrNoRoute is returned when Google answers without a usable route.
var ErrNoRoute = errors.New("route or encoded polyline not found in response")

const (
	routeFieldMask = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline"
	placeFieldMask = "places.displayName,places.formattedAddress,places.location"
	maxErrorBody   = 64 << 10
)

// APIError carries a non-2xx answer from Google.
type APIError struct {
	Status int
	Body   json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google api status %d", e.Status)
}

// Route is the best driving route between two addresses.
type Route struct {
	EncodedPolyline string      `json:"encodedPolyline"`
	Duration        string      `json:"duration"`
	Distance        int         `json:"distance"`
	Points          [][]float64 `json:"points"`
}

// Place is a search hit along a route.
type Place struct {
	DisplayName struct {
		Text         string `json:"text"`
		LanguageCode string `json:"languageCode,omitempty"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Location         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

// Client calls the Routes and Places APIs.
type Client struct {
	http      *http.Client
	apiKey    string
	routesURL string
	placesURL string
}

// NewClient creates a Google Maps client. Every call is bounded by timeout.
func NewClient(apiKey, routesURL, placesURL string, timeout time.Duration) *Client {
	return &Client{
		http:      &http.Client{Timeout: timeout},
		apiKey:    apiKey,
		routesURL: routesURL,
		placesURL: placesURL,
	}
}

// ComputeRoute returns the first driving route from start to end with its polyline decoded.
func (c *Client) ComputeRoute(ctx context.Context, start, end string) (*Route, error) {
	body := map[string]interface{}{
		"origin":           map[string]string{"address": start},
		"destination":      map[string]string{"address": end},
		"travelMode":       "DRIVE",
		"polylineEncoding": "ENCODED_POLYLINE",
	}
	var out struct {
		Routes []struct {
			Duration       string `json:"duration"`
			DistanceMeters int    `json:"distanceMeters"`
			Polyline       struct {
				EncodedPolyline string `json:"encodedPolyline"`
			} `json:"polyline"`
		} `json:"routes"`
	}
	if err := c.post(ctx, c.routesURL, routeFieldMask, body, &out); err != nil {
		return nil, err
	}
	if len(out.Routes) == 0 || out.Routes[0].Polyline.EncodedPolyline == "" {
		return nil, ErrNoRoute
	}
	r := out.Routes[0]
	points, err := DecodePolyline(r.Polyline.EncodedPolyline)
	if err != nil {
		return nil, err
	}
	return &Route{
		EncodedPolyline: r.Polyline.EncodedPolyline,
		Duration:        r.Duration,
		Distance:        r.DistanceMeters,
		Points:          points,
	}, nil
}

// SearchAlongRoute finds places matching text near the encoded route.
func (c *Client) SearchAlongRoute(ctx context.Context, encodedPolyline, text string) ([]Place, error) {
	body := map[string]interface{}{
		"textQuery": text,
		"searchAlongRouteParameters": map[string]interface{}{
			"polyline": map[string]string{"encodedPolyline": encodedPolyline},
		},
	}
	var out struct {
		Places []Place `json:"places"`
	}
	if err := c.post(ctx, c.placesURL, placeFieldMask, body, &out); err != nil {
		return nil, err
	}
	if out.Places == nil {
		out.Places = []Place{}
	}
	return out.Places, nil
}

// DecodePolyline turns an encoded polyline into [lat, lng] pairs.
func DecodePolyline(encoded string) ([][]float64, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}
	return coords, nil
}

func (c *Client) post(ctx context.Context, endpoint, fieldMask string, in, out interface{}) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call google: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if !json.Valid(raw) {
			raw, _ = json.Marshal(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Body: raw}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
