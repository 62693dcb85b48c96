package enviro

import (
	"context"

	"github.com/ecosphere/envcore/internal/reports"
)

// AirProvider yields a normalized air-quality signal for a point. The call
// is total: upstream failures are converted to a fallback record inside the
// provider, so the returned signal is always fully populated.
type AirProvider interface {
	Name() string
	FetchAir(ctx context.Context, lat, lon float64) AirSignal
}

// WeatherProvider yields a normalized meteorological signal for a point.
// Total in the same sense as AirProvider.
type WeatherProvider interface {
	Name() string
	FetchWeather(ctx context.Context, lat, lon float64) WeatherSignal
}

// TrafficProvider yields a vehicular-flow reading. Unlike the other
// providers it may fail (roads without flow coverage); the aggregation
// layer absorbs the error by falling back to the default congestion input,
// while the traffic endpoint surfaces it.
type TrafficProvider interface {
	Name() string
	FetchTraffic(ctx context.Context, lat, lon float64) (TrafficSignal, error)
}

// ComplaintSource is the persistence boundary for nearby civic reports.
type ComplaintSource interface {
	Nearby(lat, lon, radius float64, status reports.Status, limit int) []reports.CivicReport
}

// NoiseSource exposes the acoustic measurements the report assembly uses
// when live samples exist for the area.
type NoiseSource interface {
	LatestLevel(locationTag string) (float64, bool)
}
