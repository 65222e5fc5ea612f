package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/bobby-s-dev/weather-dashboard/internal/api"
	"github.com/bobby-s-dev/weather-dashboard/internal/config"
	"github.com/bobby-s-dev/weather-dashboard/internal/forecast"
	"github.com/bobby-s-dev/weather-dashboard/internal/geo"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/normalize"
	"github.com/bobby-s-dev/weather-dashboard/internal/scheduler"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/session"
	"github.com/bobby-s-dev/weather-dashboard/internal/storage"
	"github.com/bobby-s-dev/weather-dashboard/pkg/client"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Initialize logger
	zapConfig := zap.NewProductionConfig()
	logger, _ := zapConfig.Build()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Dashboard Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if level, err := zapcore.ParseLevel(cfg.Server.LogLevel); err == nil {
		zapConfig.Level.SetLevel(level)
	} else {
		logger.Warn("Unknown log level, keeping info", zap.String("level", cfg.Server.LogLevel))
	}

	zone := cfg.Location()
	units := models.ParseUnitSystem(cfg.Dashboard.DefaultUnits)

	// Upstream clients
	weatherClientConfig := client.ClientConfig{
		Timeout:           cfg.WeatherAPI.FetchTimeout,
		MaxRetries:        cfg.Retry.MaxRetries,
		RetryDelay:        cfg.Retry.Delay,
		Multiplier:        cfg.Retry.Multiplier,
		Threshold:         cfg.CircuitBreaker.Threshold,
		BreakerTimeout:    cfg.CircuitBreaker.Timeout,
		RequestsPerSecond: cfg.RateLimit.WeatherRPS,
		Burst:             cfg.RateLimit.Burst,
		UserAgent:         cfg.WeatherAPI.UserAgent,
	}
	geocodingClientConfig := weatherClientConfig
	geocodingClientConfig.RequestsPerSecond = cfg.RateLimit.GeocodingRPS

	var providers []services.Provider
	var geocoders []geo.Geocoder
	if cfg.WeatherAPI.WeatherAPIKey != "" {
		weatherAPI := client.NewWeatherAPIClient(cfg.WeatherAPI.WeatherAPIKey, cfg.WeatherAPI.WeatherAPIURL, weatherClientConfig, logger)
		providers = append(providers, weatherAPI)
		geocoders = append(geocoders, weatherAPI)
	} else {
		logger.Warn("WEATHERAPI_API_KEY not set, using Open-Meteo only")
	}
	providers = append(providers, client.NewOpenMeteoClient(cfg.WeatherAPI.OpenMeteoURL, weatherClientConfig, logger))
	geocoders = append(geocoders, client.NewNominatimClient(cfg.WeatherAPI.NominatimURL, geocodingClientConfig, logger))

	// Weather pipeline
	cache := services.NewPayloadCache(cfg.Cache.Duration, cfg.Cache.MaxSize, logger)
	weatherService, err := services.NewWeatherService(providers, cache,
		normalize.New(zone, logger),
		forecast.NewAggregator(zone),
		services.Options{
			ForecastDays: cfg.WeatherAPI.ForecastDays,
			SummaryDays:  cfg.Dashboard.SummaryDays,
			FetchTimeout: cfg.WeatherAPI.FetchTimeout,
		},
		logger)
	if err != nil {
		logger.Fatal("Failed to initialize weather service", zap.Error(err))
	}
	geoService := geo.NewService(logger, geocoders...)

	// Session preferences
	var prefs storage.Store
	if cfg.Storage.SQLitePath != "" {
		sqliteStore, err := storage.NewSQLite(cfg.Storage.SQLitePath, logger)
		if err != nil {
			logger.Fatal("Failed to open preference store", zap.Error(err))
		}
		defer sqliteStore.Close()
		prefs = sqliteStore
	}

	sessions := session.NewManager(weatherService, geoService, prefs, session.Options{
		DefaultUnits:       units,
		GeolocationTimeout: cfg.Dashboard.GeolocationTimeout,
	}, logger)
	if _, err := sessions.Restore(context.Background()); err != nil {
		logger.Error("Failed to restore sessions", zap.Error(err))
	}

	// Periodic refresh
	var refreshScheduler *scheduler.Scheduler
	var status api.StatusReporter
	if cfg.Scheduler.Enabled {
		refreshScheduler = scheduler.NewScheduler(sessions, cfg.Scheduler.RefreshInterval, logger)
		if err := refreshScheduler.Start(); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
		status = refreshScheduler
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler,
	})

	// Setup handlers and routes
	handler := api.NewHandler(weatherService, geoService, sessions, status, api.HandlerConfig{
		Zone:         zone,
		DefaultUnits: units,
		SummaryDays:  cfg.Dashboard.SummaryDays,
	}, logger)
	api.SetupRoutes(app, handler, cfg.Server.CORSOrigins, logger)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if refreshScheduler != nil {
		refreshScheduler.Stop()
	}

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	sessions.Close()
	cache.Stop()

	logger.Info("Server stopped")
}
