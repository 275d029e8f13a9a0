package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Route is a path between two coordinate pairs with distance and duration
// estimates.
type Route struct {
	Geometry  string  `json:"geometry"` // encoded polyline
	DistanceM float64 `json:"distance_m"`
	DurationS float64 `json:"duration_s"`
	Estimated bool    `json:"estimated"` // true when derived from the haversine fallback
}

// Router fetches path geometry from an OSRM-style HTTP endpoint. When the
// endpoint is unreachable it falls back to a straight-line estimate so the
// map view still renders something useful.
type Router struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

// NewRouter creates a routing client.
func NewRouter(baseURL string, client *http.Client) *Router {
	if client == nil {
		client = http.DefaultClient
	}
	return &Router{BaseURL: baseURL, Client: client, Timeout: 5 * time.Second}
}

type osrmResponse struct {
	Routes []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// walkingSpeedMps sizes the fallback duration estimate.
const walkingSpeedMps = 1.4

// Route returns a path from (fromLat,fromLng) to (toLat,toLng).
func (r *Router) Route(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (*Route, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/route/v1/foot/%f,%f;%f,%f?overview=full",
		r.BaseURL, fromLng, fromLat, toLng, toLat)

	route, err := r.fetch(ctx, endpoint)
	if err != nil {
		return r.estimate(fromLat, fromLng, toLat, toLng), nil
	}
	return route, nil
}

func (r *Router) fetch(ctx context.Context, endpoint string) (*Route, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("router returned status %d", resp.StatusCode)
	}

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode route response: %w", err)
	}
	if len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("no route found")
	}

	best := decoded.Routes[0]
	return &Route{
		Geometry:  best.Geometry,
		DistanceM: best.Distance,
		DurationS: best.Duration,
	}, nil
}

func (r *Router) estimate(fromLat, fromLng, toLat, toLng float64) *Route {
	distanceM := HaversineKm(fromLat, fromLng, toLat, toLng) * 1000
	return &Route{
		DistanceM: distanceM,
		DurationS: distanceM / walkingSpeedMps,
		Estimated: true,
	}
}
