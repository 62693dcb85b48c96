package enviro

import "time"

// Source records whether a signal came from a live upstream call or from
// the documented fallback values.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a named tracked location refreshed by the scheduler.
type Place struct {
	Name string `json:"name"`
	Coordinates
}

// Key returns a canonical string key for indexing this place in stores.
func (p Place) Key() string {
	return p.Name
}

// ForecastDay is one entry of the synthesized 3-day AQI outlook.
type ForecastDay struct {
	Day    string `json:"day"`
	AQI    int    `json:"aqi"`
	Status string `json:"status"`
}

// AirSignal is the normalized air-quality reading for one location.
// Every field is always populated: missing upstream sub-readings are filled
// with fixed defaults before the record leaves the fetcher.
type AirSignal struct {
	Source   Source        `json:"source"`
	AQI      float64       `json:"aqi"`
	PM25     float64       `json:"pm25"`
	PM10     float64       `json:"pm10"`
	O3       float64       `json:"o3"`
	NO2      float64       `json:"no2"`
	SO2      float64       `json:"so2"`
	CO       float64       `json:"co"`
	Status   string        `json:"status"`
	Forecast []ForecastDay `json:"forecast"`
}

// WeatherSignal is the normalized meteorological reading for one location.
// All values are rounded to whole units; Visibility is a heuristic estimate
// in km, never below 0.2.
type WeatherSignal struct {
	Source        Source `json:"source"`
	Temperature   int    `json:"temperature"`
	Humidity      int    `json:"humidity"`
	WindSpeed     int    `json:"wind_speed"`
	WindDirection int    `json:"wind_direction"`
	Pressure      int    `json:"pressure"`
	Visibility    int    `json:"visibility"`
}

// NoiseProxy is the qualitative noise tier derived from road congestion,
// used when no acoustic measurement exists.
type NoiseProxy struct {
	Level   string `json:"level"`
	DBRange string `json:"db_range"`
	Desc    string `json:"desc"`
}

// TrafficSignal is the normalized vehicular-flow reading for one location.
type TrafficSignal struct {
	Source          Source     `json:"source"`
	CurrentSpeed    float64    `json:"currentSpeed"`
	FreeFlowSpeed   float64    `json:"freeFlowSpeed"`
	CongestionScore float64    `json:"congestionScore"`
	Noise           NoiseProxy `json:"noise"`
}

// Report is the assembled environmental view for a point, built from the
// parallel fetch of all signal classes.
type Report struct {
	Location         Coordinates   `json:"location"`
	AQIData          AirSignal     `json:"aqi_data"`
	WeatherData      WeatherSignal `json:"weather_data"`
	WaterLoggingRisk string        `json:"water_logging_risk"`
	CivicComplaints  string        `json:"civic_complaints"`
	Timestamp        time.Time     `json:"timestamp"`
}

// SubScores is the per-signal breakdown behind a health score. Each score is
// in [0,100]; EstimatedDB is the congestion-derived noise proxy in dB.
type SubScores struct {
	AirScore     int `json:"airScore"`
	NoiseScore   int `json:"noiseScore"`
	WeatherScore int `json:"weatherScore"`
	EstimatedDB  int `json:"estimatedDb"`
}

// ScoreBreakdown is the composite Environmental Health Score with its
// breakdown. Score is in [0,100].
type ScoreBreakdown struct {
	Score     int       `json:"score"`
	Breakdown SubScores `json:"breakdown"`
}
