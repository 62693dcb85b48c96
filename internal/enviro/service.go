package enviro

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ecosphere/envcore/internal/ai"
	"github.com/ecosphere/envcore/internal/reports"
)

// ErrInvalidCoordinates is returned when a caller-supplied point is absent
// or out of range. Caller inputs are rejected rather than defaulted; only
// upstream-derived sub-fields get fallback values.
var ErrInvalidCoordinates = errors.New("latitude and longitude are required")

// DefaultComplaintRadius is the half-width in degrees of the bounding box
// used for nearby civic reports.
const DefaultComplaintRadius = 0.01

// FullReport extends Report with the restored presentation fields: the
// measured (or assumed) noise level, the full complaint list and grounded
// suggestions.
type FullReport struct {
	Location         Coordinates           `json:"location"`
	AQIData          AirSignal             `json:"aqi_data"`
	WeatherData      WeatherSignal         `json:"weather_data"`
	NoiseLevel       float64               `json:"noise_level"`
	WaterLoggingRisk string                `json:"water_logging_risk"`
	CivicComplaints  []reports.CivicReport `json:"civic_complaints"`
	AISuggestions    []string              `json:"ai_suggestions"`
	Timestamp        time.Time             `json:"timestamp"`
}

// Service orchestrates the signal fetchers, the complaint store and the
// scoring engine.
type Service struct {
	air        AirProvider
	weather    WeatherProvider
	traffic    TrafficProvider
	complaints ComplaintSource
	noise      NoiseSource
	advisor    ai.Responder

	healthCfg       HealthConfig
	complaintRadius float64
}

// NewService wires the collaborators. complaints, noise and advisor may be
// nil; the service degrades to "None reported", the assumed noise baseline
// and canned suggestions respectively.
func NewService(
	air AirProvider,
	weather WeatherProvider,
	traffic TrafficProvider,
	complaints ComplaintSource,
	noise NoiseSource,
	advisor ai.Responder,
	healthCfg HealthConfig,
	complaintRadius float64,
) *Service {
	if complaintRadius <= 0 {
		complaintRadius = DefaultComplaintRadius
	}
	return &Service{
		air:             air,
		weather:         weather,
		traffic:         traffic,
		complaints:      complaints,
		noise:           noise,
		advisor:         advisor,
		healthCfg:       healthCfg,
		complaintRadius: complaintRadius,
	}
}

func validCoordinates(lat, lon float64) error {
	if lat == 0 && lon == 0 {
		return ErrInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: out of range", ErrInvalidCoordinates)
	}
	return nil
}

// BuildEnvironmentalData fetches the air, weather and complaint signals
// concurrently and assembles the environmental view for a point. Fetcher
// failures never surface here; each degraded signal arrives as its
// documented fallback.
func (s *Service) BuildEnvironmentalData(ctx context.Context, lat, lon float64) (Report, error) {
	if err := validCoordinates(lat, lon); err != nil {
		return Report{}, err
	}

	var (
		wg         sync.WaitGroup
		airSig     AirSignal
		weatherSig WeatherSignal
		nearby     []reports.CivicReport
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		airSig = s.air.FetchAir(ctx, lat, lon)
	}()
	go func() {
		defer wg.Done()
		weatherSig = s.weather.FetchWeather(ctx, lat, lon)
	}()
	go func() {
		defer wg.Done()
		nearby = s.nearbyComplaints(lat, lon, 3)
	}()
	wg.Wait()

	return Report{
		Location:         Coordinates{Latitude: lat, Longitude: lon},
		AQIData:          airSig,
		WeatherData:      weatherSig,
		WaterLoggingRisk: waterLoggingRisk(lat, lon),
		CivicComplaints:  summarizeComplaints(nearby),
		Timestamp:        time.Now().UTC(),
	}, nil
}

// FullEnvironmentalReport is the presentation-grade report: signals plus the
// complaint list, a noise level and grounded suggestions.
func (s *Service) FullEnvironmentalReport(ctx context.Context, lat, lon float64) (FullReport, error) {
	report, err := s.BuildEnvironmentalData(ctx, lat, lon)
	if err != nil {
		return FullReport{}, err
	}

	// Assumed baseline when no live acoustic sample exists anywhere.
	noiseLevel := 45.0
	if s.noise != nil {
		if level, ok := s.noise.LatestLevel(""); ok {
			noiseLevel = level
		}
	}

	return FullReport{
		Location:         report.Location,
		AQIData:          report.AQIData,
		WeatherData:      report.WeatherData,
		NoiseLevel:       noiseLevel,
		WaterLoggingRisk: report.WaterLoggingRisk,
		CivicComplaints:  s.nearbyComplaints(lat, lon, 10),
		AISuggestions:    ai.Suggestions(ctx, s.advisor, report.AQIData.AQI, report.WeatherData.Temperature, report.WaterLoggingRisk),
		Timestamp:        report.Timestamp,
	}, nil
}

// Score fetches the live signals for a point and runs the health
// aggregation. A failed traffic fetch falls back to the default congestion
// input rather than failing the score.
func (s *Service) Score(ctx context.Context, lat, lon float64) (ScoreBreakdown, error) {
	if err := validCoordinates(lat, lon); err != nil {
		return ScoreBreakdown{}, err
	}

	var (
		wg         sync.WaitGroup
		airSig     AirSignal
		weatherSig WeatherSignal
		trafficSig TrafficSignal
		trafficErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		airSig = s.air.FetchAir(ctx, lat, lon)
	}()
	go func() {
		defer wg.Done()
		weatherSig = s.weather.FetchWeather(ctx, lat, lon)
	}()
	go func() {
		defer wg.Done()
		trafficSig, trafficErr = s.traffic.FetchTraffic(ctx, lat, lon)
	}()
	wg.Wait()

	in := DefaultHealthInputs()
	in.AQI = airSig.AQI
	in.Temperature = float64(weatherSig.Temperature)
	in.Humidity = float64(weatherSig.Humidity)
	in.WindSpeed = float64(weatherSig.WindSpeed)
	if trafficErr != nil {
		log.Printf("traffic fetch failed for %.4f,%.4f, scoring with default congestion: %v", lat, lon, trafficErr)
	} else {
		in.CongestionScore = trafficSig.CongestionScore
	}

	return CalculateEnvironmentalHealth(in, s.healthCfg), nil
}

// Traffic exposes the raw traffic signal for the traffic endpoint.
func (s *Service) Traffic(ctx context.Context, lat, lon float64) (TrafficSignal, error) {
	if err := validCoordinates(lat, lon); err != nil {
		return TrafficSignal{}, err
	}
	return s.traffic.FetchTraffic(ctx, lat, lon)
}

// Air exposes the air signal for the AQI endpoint.
func (s *Service) Air(ctx context.Context, lat, lon float64) (AirSignal, error) {
	if err := validCoordinates(lat, lon); err != nil {
		return AirSignal{}, err
	}
	return s.air.FetchAir(ctx, lat, lon), nil
}

func (s *Service) nearbyComplaints(lat, lon float64, limit int) []reports.CivicReport {
	if s.complaints == nil {
		return nil
	}
	return s.complaints.Nearby(lat, lon, s.complaintRadius, reports.StatusActive, limit)
}

// summarizeComplaints renders nearby reports as a short "type: description"
// list for prompt grounding.
func summarizeComplaints(nearby []reports.CivicReport) string {
	if len(nearby) == 0 {
		return "None reported"
	}

	parts := make([]string, 0, len(nearby))
	for _, c := range nearby {
		parts = append(parts, fmt.Sprintf("%s: %s", c.ReportType, c.Description))
	}
	return strings.Join(parts, "; ")
}

// waterLoggingRisk is a latitude-band lookup covering the monitored metro
// areas.
func waterLoggingRisk(lat, _ float64) string {
	switch {
	case lat > 28.6 && lat < 28.7:
		return "medium"
	case lat > 19.0 && lat < 19.2:
		return "high"
	default:
		return "low"
	}
}
