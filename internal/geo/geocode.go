package geo

import (
	"errors"
	"fmt"

	"github.com/kelvins/geocoder"
)

var ErrNotConfigured = errors.New("geocoder api key not configured")

// Resolver turns a city name into coordinates so endpoints can accept
// either a city or an explicit lat/lon pair.
type Resolver struct {
	configured bool
}

// NewResolver sets the shared geocoder API key. An empty key leaves the
// resolver disabled; coordinate-based requests still work without it.
func NewResolver(apiKey string) *Resolver {
	if apiKey == "" {
		return &Resolver{}
	}
	geocoder.ApiKey = apiKey
	return &Resolver{configured: true}
}

// Resolve returns the coordinates for a city (optionally qualified by
// country).
func (r *Resolver) Resolve(city, country string) (lat, lon float64, err error) {
	if !r.configured {
		return 0, 0, ErrNotConfigured
	}

	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", city, err)
	}
	return loc.Latitude, loc.Longitude, nil
}
