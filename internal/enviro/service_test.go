package enviro

import (
	"context"
	"errors"
	"testing"

	"github.com/ecosphere/envcore/internal/ai"
	"github.com/ecosphere/envcore/internal/reports"
)

type stubAir struct{ sig AirSignal }

func (s stubAir) Name() string                                       { return "stub-air" }
func (s stubAir) FetchAir(_ context.Context, _, _ float64) AirSignal { return s.sig }

type stubWeather struct{ sig WeatherSignal }

func (s stubWeather) Name() string { return "stub-weather" }
func (s stubWeather) FetchWeather(_ context.Context, _, _ float64) WeatherSignal {
	return s.sig
}

type stubTraffic struct {
	sig TrafficSignal
	err error
}

func (s stubTraffic) Name() string { return "stub-traffic" }
func (s stubTraffic) FetchTraffic(_ context.Context, _, _ float64) (TrafficSignal, error) {
	return s.sig, s.err
}

type stubNoise struct {
	level float64
	ok    bool
}

func (s stubNoise) LatestLevel(string) (float64, bool) { return s.level, s.ok }

func newTestService(traffic TrafficProvider, complaints ComplaintSource, noiseSrc NoiseSource) *Service {
	air := stubAir{sig: AirSignal{Source: SourceLive, AQI: 100, Status: "Moderate"}}
	weather := stubWeather{sig: WeatherSignal{Source: SourceLive, Temperature: 25, Humidity: 50, WindSpeed: 3}}
	return NewService(air, weather, traffic, complaints, noiseSrc, nil, DefaultHealthConfig(), 0)
}

func TestBuildEnvironmentalDataRejectsMissingCoordinates(t *testing.T) {
	svc := newTestService(stubTraffic{}, nil, nil)

	if _, err := svc.BuildEnvironmentalData(context.Background(), 0, 0); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("error = %v, want ErrInvalidCoordinates", err)
	}
	if _, err := svc.BuildEnvironmentalData(context.Background(), 91, 10); !errors.Is(err, ErrInvalidCoordinates) {
		t.Errorf("out-of-range error = %v, want ErrInvalidCoordinates", err)
	}
}

func TestBuildEnvironmentalDataAssemblesSignals(t *testing.T) {
	store := reports.NewMemoryStore()
	for _, r := range []reports.CivicReport{
		{Location: reports.Location{Latitude: 28.611, Longitude: 77.209}, ReportType: reports.TypeWaterLog, Description: "street flooded", Severity: reports.SeverityHigh},
		{Location: reports.Location{Latitude: 28.609, Longitude: 77.211}, ReportType: reports.TypeTreeFall, Description: "branch down", Severity: reports.SeverityLow},
	} {
		if _, err := store.Create(r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	svc := newTestService(stubTraffic{}, store, nil)

	report, err := svc.BuildEnvironmentalData(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("BuildEnvironmentalData: %v", err)
	}

	if report.AQIData.AQI != 100 {
		t.Errorf("aqi = %v, want the fetched 100", report.AQIData.AQI)
	}
	if report.WaterLoggingRisk != "medium" {
		t.Errorf("water logging risk = %q, want medium for lat 28.61", report.WaterLoggingRisk)
	}
	want := "water_log: street flooded; tree_fall: branch down"
	if report.CivicComplaints != want {
		t.Errorf("complaints = %q, want %q", report.CivicComplaints, want)
	}
	if report.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
}

func TestBuildEnvironmentalDataNoComplaints(t *testing.T) {
	svc := newTestService(stubTraffic{}, reports.NewMemoryStore(), nil)

	report, err := svc.BuildEnvironmentalData(context.Background(), 12.97, 77.59)
	if err != nil {
		t.Fatalf("BuildEnvironmentalData: %v", err)
	}
	if report.CivicComplaints != "None reported" {
		t.Errorf("complaints = %q, want \"None reported\"", report.CivicComplaints)
	}
	if report.WaterLoggingRisk != "low" {
		t.Errorf("water logging risk = %q, want low", report.WaterLoggingRisk)
	}
}

func TestWaterLoggingRiskBands(t *testing.T) {
	cases := []struct {
		lat  float64
		want string
	}{
		{28.65, "medium"},
		{19.1, "high"},
		{12.97, "low"},
		{28.7, "low"}, // band bounds are exclusive
	}
	for _, tc := range cases {
		if got := waterLoggingRisk(tc.lat, 77); got != tc.want {
			t.Errorf("waterLoggingRisk(%v) = %q, want %q", tc.lat, got, tc.want)
		}
	}
}

func TestScoreUsesLiveCongestion(t *testing.T) {
	traffic := stubTraffic{sig: TrafficSignal{Source: SourceLive, CongestionScore: 100}}
	svc := newTestService(traffic, nil, nil)

	got, err := svc.Score(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// Full congestion maps to the top of the 50-85 dB band.
	if got.Breakdown.EstimatedDB != 85 {
		t.Errorf("estimatedDb = %d, want 85", got.Breakdown.EstimatedDB)
	}
}

func TestScoreFallsBackWhenTrafficFails(t *testing.T) {
	svc := newTestService(stubTraffic{err: errors.New("segment not covered")}, nil, nil)

	got, err := svc.Score(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// Default congestion 20 puts the proxy at 57 dB.
	if got.Breakdown.EstimatedDB != 57 {
		t.Errorf("estimatedDb = %d, want 57 from the default congestion", got.Breakdown.EstimatedDB)
	}
	if got.Score != 76 {
		t.Errorf("score = %d, want 76 for the default inputs", got.Score)
	}
}

func TestFullEnvironmentalReportNoiseFallback(t *testing.T) {
	svc := newTestService(stubTraffic{}, nil, stubNoise{ok: false})

	report, err := svc.FullEnvironmentalReport(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("FullEnvironmentalReport: %v", err)
	}
	if report.NoiseLevel != 45.0 {
		t.Errorf("noise level = %v, want the 45.0 baseline", report.NoiseLevel)
	}
	// A nil advisor degrades to the canned suggestions.
	if len(report.AISuggestions) != len(ai.FallbackSuggestions) {
		t.Errorf("suggestions = %v, want the fallback list", report.AISuggestions)
	}
}

func TestFullEnvironmentalReportUsesLiveNoise(t *testing.T) {
	svc := newTestService(stubTraffic{}, nil, stubNoise{level: 71.5, ok: true})

	report, err := svc.FullEnvironmentalReport(context.Background(), 28.61, 77.21)
	if err != nil {
		t.Fatalf("FullEnvironmentalReport: %v", err)
	}
	if report.NoiseLevel != 71.5 {
		t.Errorf("noise level = %v, want the measured 71.5", report.NoiseLevel)
	}
}
