package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ecosphere/envcore/internal/enviro"
)

type AppConfig struct {
	WAQIToken      string
	TomTomAPIKey   string
	GeminiAPIKey   string
	GeminiModel    string
	GeocoderAPIKey string

	// FetchInterval controls how often tracked places are refreshed.
	FetchInterval time.Duration

	// HTTPTimeout applies to outbound upstream calls.
	HTTPTimeout time.Duration

	// Places to track in the background refresh job.
	Places []enviro.Place

	// Snapshot cache retention.
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	// Noise engine sizing.
	NoiseCapacity int
	NoiseWindow   int

	// Bounding-box half-width in degrees for nearby civic reports.
	ComplaintRadius float64

	// Health-score weights; must sum to 1.
	Weights enviro.Weights

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.WAQIToken = os.Getenv("WAQI_API_TOKEN")
	cfg.TomTomAPIKey = os.Getenv("TOMTOM_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getenvDefault("GEMINI_MODEL", "gemini-2.5-flash")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	interval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals

	maxAge, err := time.ParseDuration(getenvDefault("STORE_MAX_AGE", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	cfg.NoiseCapacity = getenvInt("NOISE_CAPACITY", 10000)
	cfg.NoiseWindow = getenvInt("NOISE_WINDOW", 1000)

	cfg.ComplaintRadius = getenvFloat("COMPLAINT_RADIUS", enviro.DefaultComplaintRadius)

	cfg.Weights = enviro.Weights{
		Air:     getenvFloat("WEIGHT_AIR", 0.5),
		Noise:   getenvFloat("WEIGHT_NOISE", 0.25),
		Weather: getenvFloat("WEIGHT_WEATHER", 0.25),
	}

	cfg.Port = getenvDefault("PORT", "8080")

	places, err := loadPlaces()
	if err != nil {
		return nil, err
	}
	cfg.Places = places

	return cfg, nil
}

// loadPlaces parses TRACKED_LOCATIONS, a comma list of name:lat:lon
// entries, e.g. "Delhi:28.61:77.21,Mumbai:19.07:72.87".
func loadPlaces() ([]enviro.Place, error) {
	raw := os.Getenv("TRACKED_LOCATIONS")
	if raw == "" {
		return nil, nil
	}

	var places []enviro.Place
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid TRACKED_LOCATIONS entry %q; want name:lat:lon", entry)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", entry, err)
		}
		places = append(places, enviro.Place{
			Name:        parts[0],
			Coordinates: enviro.Coordinates{Latitude: lat, Longitude: lon},
		})
	}

	return places, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
