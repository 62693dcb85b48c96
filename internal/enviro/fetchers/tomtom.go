package fetchers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/ecosphere/envcore/internal/enviro"
	"github.com/ecosphere/envcore/internal/httpx"
)

// ErrNoFlowData is returned when the flow feed has no usable segment for
// the requested point.
var ErrNoFlowData = errors.New("no traffic flow data for location")

// TomTomClient implements the traffic provider against the TomTom flow
// segment feed. Congestion is the relative speed reduction against free
// flow, used downstream as a road-noise proxy.
type TomTomClient struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg httpx.Config
	circuit *gobreaker.CircuitBreaker
}

func NewTomTomClient(client *http.Client, apiKey string) *TomTomClient {
	return &TomTomClient{
		name:    "tomtom",
		apiKey:  apiKey,
		baseURL: "https://api.tomtom.com/traffic/services/4/flowSegmentData/relative0/10/json",
		httpCfg: httpx.Config{Client: client, Backoff: httpx.DefaultBackoff()},
		circuit: httpx.NewBreaker("tomtom"),
	}
}

func (c *TomTomClient) Name() string {
	return c.name
}

func (c *TomTomClient) FetchTraffic(ctx context.Context, lat, lon float64) (enviro.TrafficSignal, error) {
	if c.apiKey == "" {
		return enviro.TrafficSignal{}, fmt.Errorf("tomtom api key is not configured")
	}

	var payload struct {
		FlowSegmentData *struct {
			CurrentSpeed  float64 `json:"currentSpeed"`
			FreeFlowSpeed float64 `json:"freeFlowSpeed"`
		} `json:"flowSegmentData"`
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s?point=%f,%f&key=%s", c.baseURL, lat, lon, c.apiKey)
		return http.NewRequest(http.MethodGet, u, nil)
	}

	if err := httpx.GetJSON(ctx, c.httpCfg, c.circuit, buildRequest, &payload); err != nil {
		return enviro.TrafficSignal{}, err
	}

	flow := payload.FlowSegmentData
	if flow == nil || flow.FreeFlowSpeed <= 0 {
		return enviro.TrafficSignal{}, ErrNoFlowData
	}

	congestion := (flow.FreeFlowSpeed - flow.CurrentSpeed) / flow.FreeFlowSpeed * 100

	return enviro.TrafficSignal{
		Source:          enviro.SourceLive,
		CurrentSpeed:    flow.CurrentSpeed,
		FreeFlowSpeed:   flow.FreeFlowSpeed,
		CongestionScore: congestion,
		Noise:           noiseTier(congestion),
	}, nil
}

// noiseTier maps congestion onto the qualitative road-noise bands.
func noiseTier(congestion float64) enviro.NoiseProxy {
	switch {
	case congestion < 20:
		return enviro.NoiseProxy{Level: "Low", DBRange: "50-60 dB", Desc: "Smooth traffic flow"}
	case congestion < 60:
		return enviro.NoiseProxy{Level: "Moderate", DBRange: "60-75 dB", Desc: "Busy road, medium noise"}
	default:
		return enviro.NoiseProxy{Level: "High", DBRange: "75+ dB", Desc: "Traffic jam, high honking"}
	}
}
