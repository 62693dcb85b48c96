package enviro

import (
	"math"

	"github.com/ecosphere/envcore/internal/common"
)

// Weights controls how the air, noise and weather sub-scores combine into
// the final score. Callers are responsible for supplying weights that sum
// to 1; no re-normalization is applied.
type Weights struct {
	Air     float64
	Noise   float64
	Weather float64
}

// PrecipPenalty maps a rainfall threshold (mm) to a weather-score deduction.
type PrecipPenalty struct {
	AboveMm float64
	Penalty float64
}

// HealthConfig holds every anchor and threshold used by the health-score
// computation so tests and deployments can vary them.
type HealthConfig struct {
	Weights Weights

	// AQIZeroScoreAt is the AQI at which the air sub-score reaches 0.
	AQIZeroScoreAt float64

	// BaseDB and CongestionDBSpan map a 0-100 congestion score linearly
	// onto the [BaseDB, BaseDB+CongestionDBSpan] dB band.
	BaseDB           float64
	CongestionDBSpan float64

	// NoiseFloorDB and NoiseRangeDB anchor the noise sub-score decay.
	NoiseFloorDB float64
	NoiseRangeDB float64

	// Comfort optima and the deviation at which each sub-score reaches 0.
	OptimalTempC       float64
	TempRangeC         float64
	OptimalHumidityPct float64
	HumidityRangePct   float64
	OptimalWindMS      float64
	WindRangeMS        float64

	// Weather sub-score mix (temperature, humidity, wind).
	TempWeight     float64
	HumidityWeight float64
	WindWeight     float64

	// PrecipPenalties must be ordered by ascending threshold; only the
	// single highest matching penalty applies.
	PrecipPenalties []PrecipPenalty
}

// DefaultHealthConfig returns the production scoring anchors.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Weights:            Weights{Air: 0.5, Noise: 0.25, Weather: 0.25},
		AQIZeroScoreAt:     400,
		BaseDB:             50,
		CongestionDBSpan:   35,
		NoiseFloorDB:       40,
		NoiseRangeDB:       50,
		OptimalTempC:       23,
		TempRangeC:         15,
		OptimalHumidityPct: 45,
		HumidityRangePct:   40,
		OptimalWindMS:      3,
		WindRangeMS:        5,
		TempWeight:         0.5,
		HumidityWeight:     0.3,
		WindWeight:         0.2,
		PrecipPenalties: []PrecipPenalty{
			{AboveMm: 5, Penalty: 5},
			{AboveMm: 20, Penalty: 12},
			{AboveMm: 50, Penalty: 25},
		},
	}
}

// HealthInputs are the numeric signals feeding the health score.
type HealthInputs struct {
	AQI             float64
	Temperature     float64
	Humidity        float64
	WindSpeed       float64
	CongestionScore float64
	PrecipitationMm float64
}

// DefaultHealthInputs returns the values assumed when a signal is absent.
func DefaultHealthInputs() HealthInputs {
	return HealthInputs{
		AQI:             100,
		Temperature:     25,
		Humidity:        50,
		WindSpeed:       3,
		CongestionScore: 20,
		PrecipitationMm: 0,
	}
}

// CalculateEnvironmentalHealth fuses the input signals into a bounded
// composite score with a per-signal breakdown. The function is pure: the
// same inputs and config always produce the same output.
func CalculateEnvironmentalHealth(in HealthInputs, cfg HealthConfig) ScoreBreakdown {
	estimatedDB := cfg.BaseDB + (in.CongestionScore/100)*cfg.CongestionDBSpan

	airScore := common.Clamp(100-(in.AQI/cfg.AQIZeroScoreAt)*100, 0, 100)
	noiseScore := common.Clamp(100-((estimatedDB-cfg.NoiseFloorDB)/cfg.NoiseRangeDB)*100, 0, 100)

	tempScore := common.Clamp(100-(math.Abs(in.Temperature-cfg.OptimalTempC)/cfg.TempRangeC)*100, 0, 100)
	humidityScore := common.Clamp(100-(math.Abs(in.Humidity-cfg.OptimalHumidityPct)/cfg.HumidityRangePct)*100, 0, 100)
	windScore := common.Clamp(100-(math.Abs(in.WindSpeed-cfg.OptimalWindMS)/cfg.WindRangeMS)*100, 0, 100)

	weatherScore := tempScore*cfg.TempWeight + humidityScore*cfg.HumidityWeight + windScore*cfg.WindWeight

	var penalty float64
	for _, p := range cfg.PrecipPenalties {
		if in.PrecipitationMm > p.AboveMm {
			penalty = p.Penalty
		}
	}
	weatherScore = common.Clamp(weatherScore-penalty, 0, 100)

	final := airScore*cfg.Weights.Air + noiseScore*cfg.Weights.Noise + weatherScore*cfg.Weights.Weather

	return ScoreBreakdown{
		Score: common.RoundInt(final),
		Breakdown: SubScores{
			AirScore:     common.RoundInt(airScore),
			NoiseScore:   common.RoundInt(noiseScore),
			WeatherScore: common.RoundInt(weatherScore),
			EstimatedDB:  common.RoundInt(estimatedDB),
		},
	}
}
