// Package routing wraps the external routing engine. The engine is a
// black box to the core: it is asked for a road distance/time summary
// between two waypoints and nothing else.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ambulance-tracker/internal/config"
	"ambulance-tracker/internal/geo"
	appErrors "ambulance-tracker/pkg/errors"
)

// Summary is the engine's answer for one origin/destination pair.
type Summary struct {
	TotalDistanceMeters float64
	TotalTimeSeconds    float64
}

// Provider computes a route summary between two waypoints. A failure is a
// transient condition: callers keep the previous summary and never block
// on it.
type Provider interface {
	Route(ctx context.Context, origin, destination geo.Point) (Summary, error)
}

// OSRMClient talks to an OSRM-compatible HTTP endpoint (the same backend
// the map frontend's routing layer uses).
type OSRMClient struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

// NewOSRMClient builds a client from the routing config section.
func NewOSRMClient(cfg config.RoutingConfig) *OSRMClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	profile := cfg.Profile
	if profile == "" {
		profile = "driving"
	}

	return &OSRMClient{
		baseURL: cfg.BaseURL,
		profile: profile,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route asks the engine for a summary. OSRM takes lon,lat coordinate
// order.
func (c *OSRMClient) Route(ctx context.Context, origin, destination geo.Point) (Summary, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=false",
		c.baseURL, c.profile,
		origin.Longitude, origin.Latitude,
		destination.Longitude, destination.Latitude,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("build routing request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", appErrors.ErrRouteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("%w: status %d", appErrors.ErrRouteUnavailable, resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Summary{}, fmt.Errorf("%w: decode response: %v", appErrors.ErrRouteUnavailable, err)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return Summary{}, fmt.Errorf("%w: no route found (code %q)", appErrors.ErrRouteUnavailable, body.Code)
	}

	return Summary{
		TotalDistanceMeters: body.Routes[0].Distance,
		TotalTimeSeconds:    body.Routes[0].Duration,
	}, nil
}
