package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ecosphere/envcore/internal/ai"
	"github.com/ecosphere/envcore/internal/enviro"
	"github.com/ecosphere/envcore/internal/geo"
	"github.com/ecosphere/envcore/internal/noise"
	"github.com/ecosphere/envcore/internal/reports"
	"github.com/ecosphere/envcore/internal/store"
)

var validate = validator.New()

// API bundles the collaborators the HTTP handlers need.
type API struct {
	Env     *enviro.Service
	Noise   *noise.Engine
	Reports reports.Store
	Advisor ai.Responder
	Geo     *geo.Resolver
	Cache   *store.MemoryStore
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, api API) {
	v1 := app.Group("/api/v1")

	v1.Get("/aqi", api.getAQI)
	v1.Post("/traffic", api.postTraffic)

	v1.Post("/environment/report", api.postEnvironmentReport)
	v1.Get("/environment/score", api.getEnvironmentScore)
	v1.Get("/environment/latest", api.getEnvironmentLatest)
	v1.Get("/environment/history", api.getEnvironmentHistory)

	v1.Post("/noise", api.postNoiseSample)
	v1.Get("/noise/stats", api.getNoiseStats)
	v1.Get("/noise/current", api.getNoiseCurrent)
	v1.Get("/noise/trends", api.getNoiseTrends)
	v1.Get("/noise/ai", api.getNoiseAI)

	v1.Post("/reports", api.postReport)
	v1.Get("/reports/nearby", api.getReportsNearby)
}

// parseCoords resolves a location from either lat/lon query parameters or
// a city name run through the geocoder.
func (a API) parseCoords(c *fiber.Ctx) (float64, float64, error) {
	city := c.Query("city")
	latStr, lonStr := c.Query("lat"), c.Query("lon")

	if city == "" && (latStr == "" || lonStr == "") {
		return 0, 0, errors.New("provide either city or lat & lon")
	}

	if city != "" && (latStr == "" || lonStr == "") {
		lat, lon, err := a.Geo.Resolve(city, c.Query("country"))
		if err != nil {
			return 0, 0, err
		}
		return lat, lon, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, errors.New("invalid lon")
	}
	return lat, lon, nil
}

func (a API) getAQI(c *fiber.Ctx) error {
	lat, lon, err := a.parseCoords(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	signal, err := a.Env.Air(c.Context(), lat, lon)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(signal)
}

type pointBody struct {
	Lat float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

func (a API) postTraffic(c *fiber.Ctx) error {
	var body pointBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "latitude and longitude are required")
	}

	signal, err := a.Env.Traffic(c.Context(), body.Lat, body.Lon)
	if err != nil {
		if errors.Is(err, enviro.ErrInvalidCoordinates) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusNotFound, "no traffic data found for this location")
	}

	return c.JSON(fiber.Map{
		"coordinates": fiber.Map{"lat": body.Lat, "lon": body.Lon},
		"traffic": fiber.Map{
			"currentSpeed":    signal.CurrentSpeed,
			"freeFlowSpeed":   signal.FreeFlowSpeed,
			"congestionScore": int(signal.CongestionScore + 0.5),
		},
		"noise": signal.Noise,
	})
}

type reportBody struct {
	Latitude  float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

func (a API) postEnvironmentReport(c *fiber.Ctx) error {
	var body reportBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "latitude and longitude are required")
	}

	report, err := a.Env.FullEnvironmentalReport(c.Context(), body.Latitude, body.Longitude)
	if err != nil {
		if errors.Is(err, enviro.ErrInvalidCoordinates) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build environmental report")
	}
	return c.JSON(report)
}

func (a API) getEnvironmentScore(c *fiber.Ctx) error {
	lat, lon, err := a.parseCoords(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	score, err := a.Env.Score(c.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, enviro.ErrInvalidCoordinates) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute score")
	}
	return c.JSON(score)
}

func (a API) getEnvironmentLatest(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name query parameter is required")
	}

	snap, err := a.Cache.GetLatest(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no environmental data for requested location")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch environmental data")
	}
	return c.JSON(snap)
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Name string    `validate:"required"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Name = c.Query("name")

	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

func (a API) getEnvironmentHistory(c *fiber.Ctx) error {
	var req historyQuery
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snapshots, err := a.Cache.GetRange(req.Name, req.From, req.To)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no environmental history for requested range")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch environmental history")
	}

	return c.JSON(fiber.Map{
		"name":      req.Name,
		"from":      req.From,
		"to":        req.To,
		"snapshots": snapshots,
	})
}

type noiseSampleBody struct {
	TS       string   `json:"ts"`
	DBSPL    *float64 `json:"dbspl"`
	Location string   `json:"location"`
}

func (a API) postNoiseSample(c *fiber.Ctx) error {
	var body noiseSampleBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if body.TS == "" || body.DBSPL == nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing or invalid fields")
	}

	ts, err := parseTime(body.TS)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := a.Noise.Record(ts, *body.DBSPL, body.Location); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"totalSamples": a.Noise.Total(),
	})
}

func (a API) getNoiseStats(c *fiber.Ctx) error {
	stats, err := a.Noise.Statistics(c.Query("location"))
	if err != nil {
		if errors.Is(err, noise.ErrNoData) {
			return fiber.NewError(fiber.StatusNotFound, "no data available for this location")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute noise statistics")
	}
	return c.JSON(stats)
}

func (a API) getNoiseCurrent(c *fiber.Ctx) error {
	location := c.Query("location")

	sample, err := a.Noise.Latest(location)
	if err != nil {
		if errors.Is(err, noise.ErrNoData) {
			return fiber.NewError(fiber.StatusNotFound, "no noise data available for this location")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch noise data")
	}

	advice, err := a.Advisor.Generate(c.Context(), ai.CurrentNoisePrompt(sample.Decibels))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate AI explanation")
	}

	return c.JSON(fiber.Map{
		"location":     locationOrAll(location),
		"currentNoise": sample.Decibels,
		"timestamp":    sample.Timestamp,
		"advice":       advice,
	})
}

func (a API) getNoiseTrends(c *fiber.Ctx) error {
	return a.noiseAdvice(c, ai.NoiseTrendPrompt)
}

func (a API) getNoiseAI(c *fiber.Ctx) error {
	return a.noiseAdvice(c, ai.NoiseStatsPrompt)
}

// noiseAdvice computes windowed statistics and phrases them through the
// text-generation collaborator.
func (a API) noiseAdvice(c *fiber.Ctx, prompt func(leq, lmax, l90 float64) string) error {
	location := c.Query("location")

	stats, err := a.Noise.Statistics(location)
	if err != nil {
		if errors.Is(err, noise.ErrNoData) {
			return fiber.NewError(fiber.StatusNotFound, "no noise data available for analysis in this location")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute noise statistics")
	}

	advice, err := a.Advisor.Generate(c.Context(), prompt(stats.Leq, stats.Lmax, stats.L90))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate AI explanation")
	}

	return c.JSON(fiber.Map{
		"location": locationOrAll(location),
		"stats":    stats,
		"advice":   advice,
	})
}

type civicReportBody struct {
	Latitude    float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Address     string  `json:"address"`
	ReportType  string  `json:"report_type" validate:"required"`
	Description string  `json:"description"`
	Severity    string  `json:"severity" validate:"required"`
	ReporterID  string  `json:"reporter_id"`
}

func (a API) postReport(c *fiber.Ctx) error {
	var body civicReportBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	created, err := a.Reports.Create(reports.CivicReport{
		Location: reports.Location{
			Latitude:  body.Latitude,
			Longitude: body.Longitude,
			Address:   body.Address,
		},
		ReportType:  reports.ReportType(body.ReportType),
		Description: body.Description,
		Severity:    reports.Severity(body.Severity),
		ReporterID:  body.ReporterID,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (a API) getReportsNearby(c *fiber.Ctx) error {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid lon")
	}

	radius := enviro.DefaultComplaintRadius
	if r := c.Query("radius"); r != "" {
		radius, err = strconv.ParseFloat(r, 64)
		if err != nil || radius <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid radius")
		}
	}

	limit := 10
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
		}
	}

	nearby := a.Reports.Nearby(lat, lon, radius, reports.StatusActive, limit)
	return c.JSON(fiber.Map{
		"reports": nearby,
		"count":   len(nearby),
	})
}

func locationOrAll(location string) string {
	if location == "" {
		return "all"
	}
	return location
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
