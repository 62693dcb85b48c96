package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ecosphere/envcore/internal/ai"
	httpapi "github.com/ecosphere/envcore/internal/api/http"
	"github.com/ecosphere/envcore/internal/config"
	"github.com/ecosphere/envcore/internal/enviro"
	"github.com/ecosphere/envcore/internal/enviro/fetchers"
	"github.com/ecosphere/envcore/internal/geo"
	"github.com/ecosphere/envcore/internal/noise"
	"github.com/ecosphere/envcore/internal/reports"
	"github.com/ecosphere/envcore/internal/scheduler"
	"github.com/ecosphere/envcore/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Upstream clients.
	waqi := fetchers.NewWAQIClient(httpClient, cfg.WAQIToken)
	tomtom := fetchers.NewTomTomClient(httpClient, cfg.TomTomAPIKey)
	gemini := ai.NewGeminiClient(httpClient, cfg.GeminiAPIKey, cfg.GeminiModel)
	resolver := geo.NewResolver(cfg.GeocoderAPIKey)

	// Stores and engines.
	reportStore := reports.NewMemoryStore()
	noiseEngine := noise.NewEngine(noise.NewRingStore(cfg.NoiseCapacity), cfg.NoiseWindow)
	cache := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	healthCfg := enviro.DefaultHealthConfig()
	healthCfg.Weights = cfg.Weights

	service := enviro.NewService(
		waqi, waqi, tomtom,
		reportStore, noiseEngine, gemini,
		healthCfg, cfg.ComplaintRadius,
	)

	// Background refresh of tracked places.
	sched := scheduler.New(cfg.Places, cfg.FetchInterval, service, cache)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "envcore",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "envcore",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.API{
		Env:     service,
		Noise:   noiseEngine,
		Reports: reportStore,
		Advisor: gemini,
		Geo:     resolver,
		Cache:   cache,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
