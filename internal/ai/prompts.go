package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// NoiseStatsPrompt grounds an advice request with measured noise levels.
func NoiseStatsPrompt(leq, lmax, l90 float64) string {
	return fmt.Sprintf(
		"Based on these noise levels (Leq: %.2f dB, Lmax: %.2f dB, L90: %.2f dB), "+
			"give a simple explanation of how noisy the area is and whether it's healthy. "+
			"Keep it short and easy to understand. Don't show data to the user.",
		leq, lmax, l90)
}

// CurrentNoisePrompt grounds an advice request with the latest sample.
func CurrentNoisePrompt(decibels float64) string {
	return fmt.Sprintf(
		"The current noise level is %.2f dB. Explain in simple terms how noisy the "+
			"area is right now and if it's healthy for people. Keep it short and easy to understand.",
		decibels)
}

// NoiseTrendPrompt grounds an advice request with historical noise levels.
func NoiseTrendPrompt(leq, lmax, l90 float64) string {
	return fmt.Sprintf(
		"Based on these noise levels over time (Leq: %.2f dB, Lmax: %.2f dB, L90: %.2f dB), "+
			"explain the noise pollution trend in this area in simple language and whether "+
			"it's healthy. Keep it brief and helpful. Keep it short and easy to understand. "+
			"Don't show data to the user.",
		leq, lmax, l90)
}

// SuggestionsPrompt grounds a request for actionable environmental advice.
func SuggestionsPrompt(aqi float64, temperatureC int, waterLoggingRisk string) string {
	return fmt.Sprintf(
		"The current AQI is %.0f, the temperature is %d°C and the water logging risk "+
			"is %s. Give three short, practical suggestions for residents, one per line, "+
			"without numbering.",
		aqi, temperatureC, waterLoggingRisk)
}

// FallbackSuggestions are served when the responder is unavailable.
var FallbackSuggestions = []string{
	"Monitor air quality regularly using reliable sources",
	"Stay hydrated and avoid outdoor activities during peak pollution hours",
	"Consider wearing N95 masks when outdoors in high pollution",
}

// Suggestions asks the responder for grounded advice and degrades to the
// canned list on any failure.
func Suggestions(ctx context.Context, r Responder, aqi float64, temperatureC int, waterLoggingRisk string) []string {
	if r == nil {
		return FallbackSuggestions
	}

	text, err := r.Generate(ctx, SuggestionsPrompt(aqi, temperatureC, waterLoggingRisk))
	if err != nil {
		log.Printf("ai suggestions failed: %v", err)
		return FallbackSuggestions
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return FallbackSuggestions
	}
	return out
}
