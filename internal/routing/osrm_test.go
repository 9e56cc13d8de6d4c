package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ambulance-tracker/internal/config"
	"ambulance-tracker/internal/geo"
	appErrors "ambulance-tracker/pkg/errors"
)

func newTestClient(serverURL string) *OSRMClient {
	return NewOSRMClient(config.RoutingConfig{
		BaseURL:        serverURL,
		Profile:        "driving",
		TimeoutSeconds: 5,
	})
}

func TestRouteParsesSummary(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":9500.2,"duration":720.5}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	summary, err := client.Route(context.Background(),
		geo.Point{Latitude: 12.9, Longitude: 80.2},
		geo.Point{Latitude: 12.8416, Longitude: 80.1566},
	)
	require.NoError(t, err)

	assert.InDelta(t, 9500.2, summary.TotalDistanceMeters, 0.001)
	assert.InDelta(t, 720.5, summary.TotalTimeSeconds, 0.001)

	// OSRM takes lon,lat pairs, origin first.
	assert.Contains(t, requestedPath, "/route/v1/driving/80.2")
}

func TestRouteFailureModes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "engine error status", status: http.StatusBadGateway, body: ""},
		{name: "no route found", status: http.StatusOK, body: `{"code":"NoRoute","routes":[]}`},
		{name: "malformed body", status: http.StatusOK, body: `{"code":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.Route(context.Background(), geo.Point{}, geo.Point{})
			assert.ErrorIs(t, err, appErrors.ErrRouteUnavailable)
		})
	}
}

func TestRouteUnreachableEngine(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")

	_, err := client.Route(context.Background(), geo.Point{}, geo.Point{})
	assert.ErrorIs(t, err, appErrors.ErrRouteUnavailable)
}
