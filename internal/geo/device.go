package geo

import (
	"context"
	"fmt"

	"github.com/civiclens/app/internal/models"
)

// PositionSource is the platform geolocation boundary: it yields the device's
// current coordinates or an error when permission is denied or no fix exists.
type PositionSource interface {
	Position(ctx context.Context) (lat, lng float64, err error)
}

// StaticPosition is a fixed configured position, used by kiosk deployments
// and tests.
type StaticPosition struct {
	Lat, Lng float64
	Set      bool
}

// Position returns the configured coordinates.
func (p StaticPosition) Position(context.Context) (float64, float64, error) {
	if !p.Set {
		return 0, 0, fmt.Errorf("no device position configured")
	}
	return p.Lat, p.Lng, nil
}

// DeviceResolver resolves the device position to a geo-tag: position fix
// first, then best-effort reverse geocoding. A failed fix yields no tag; a
// failed geocode still tags the raw coordinates.
type DeviceResolver struct {
	Source   PositionSource
	Geocoder *ReverseGeocoder
}

// Resolve implements the composition flow's geo resolution.
func (r *DeviceResolver) Resolve(ctx context.Context) (*models.GeoData, error) {
	lat, lng, err := r.Source.Position(ctx)
	if err != nil {
		return nil, fmt.Errorf("device position: %w", err)
	}

	if r.Geocoder != nil {
		if geo, err := r.Geocoder.Resolve(ctx, lat, lng); err == nil {
			return geo, nil
		}
	}
	return &models.GeoData{Latitude: lat, Longitude: lng}, nil
}
