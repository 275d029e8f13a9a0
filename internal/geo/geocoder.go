package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/civiclens/app/internal/models"
)

// ReverseGeocoder resolves coordinates to place names through a
// Nominatim-style HTTP endpoint. Best-effort only: callers treat any error as
// "no geo-tag" and move on.
type ReverseGeocoder struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

// NewReverseGeocoder creates a geocoder client with a short default timeout.
func NewReverseGeocoder(baseURL string, client *http.Client) *ReverseGeocoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &ReverseGeocoder{BaseURL: baseURL, Client: client, Timeout: 3 * time.Second}
}

type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Resolve returns the place names for a coordinate pair. The geo-tag keeps
// the raw coordinates even when name resolution yields nothing.
func (g *ReverseGeocoder) Resolve(ctx context.Context, lat, lng float64) (*models.GeoData, error) {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/reverse?format=jsonv2&lat=%s&lon=%s",
		g.BaseURL,
		url.QueryEscape(fmt.Sprintf("%f", lat)),
		url.QueryEscape(fmt.Sprintf("%f", lng)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var decoded reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}

	locality := decoded.Address.City
	if locality == "" {
		locality = decoded.Address.Town
	}
	if locality == "" {
		locality = decoded.Address.Village
	}

	return &models.GeoData{
		Latitude:  lat,
		Longitude: lng,
		Locality:  locality,
		Region:    decoded.Address.State,
		Country:   decoded.Address.Country,
	}, nil
}
