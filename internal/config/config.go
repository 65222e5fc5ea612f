package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
		CORSOrigins  string
	}

	WeatherAPI struct {
		WeatherAPIKey string
		WeatherAPIURL string
		OpenMeteoURL  string
		NominatimURL  string
		UserAgent     string
		ForecastDays  int
		FetchTimeout  time.Duration
	}

	Scheduler struct {
		RefreshInterval time.Duration
		Enabled         bool
	}

	Cache struct {
		Duration time.Duration
		MaxSize  int
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Retry struct {
		MaxRetries int
		Delay      time.Duration
		Multiplier float64
	}

	RateLimit struct {
		WeatherRPS   float64
		GeocodingRPS float64
		Burst        int
	}

	Storage struct {
		SQLitePath string
	}

	Dashboard struct {
		Timezone           string
		DefaultUnits       string
		SummaryDays        int
		GeolocationTimeout time.Duration
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "10s"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.Server.CORSOrigins = getEnv("CORS_ORIGINS", "*")

	// Upstream providers
	cfg.WeatherAPI.WeatherAPIKey = getEnv("WEATHERAPI_API_KEY", "")
	cfg.WeatherAPI.WeatherAPIURL = getEnv("WEATHERAPI_URL", "https://api.weatherapi.com/v1")
	cfg.WeatherAPI.OpenMeteoURL = getEnv("OPENMETEO_URL", "https://api.open-meteo.com/v1")
	cfg.WeatherAPI.NominatimURL = getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	cfg.WeatherAPI.UserAgent = getEnv("USER_AGENT", "WeatherDashboard/1.0")
	cfg.WeatherAPI.ForecastDays = parseInt(getEnv("FORECAST_DAYS", "10"))
	cfg.WeatherAPI.FetchTimeout = parseDuration(getEnv("FETCH_TIMEOUT", "15s"))

	// Scheduler configuration
	cfg.Scheduler.RefreshInterval = parseDuration(getEnv("REFRESH_INTERVAL", "15m"))
	cfg.Scheduler.Enabled = parseBool(getEnv("REFRESH_ENABLED", "true"))

	// Cache configuration
	cfg.Cache.Duration = parseDuration(getEnv("CACHE_DURATION", "10m"))
	cfg.Cache.MaxSize = parseInt(getEnv("MAX_CACHE_SIZE", "1000"))

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Retry configuration. The dashboard fails over to the next provider
	// instead of retrying by default.
	cfg.Retry.MaxRetries = parseInt(getEnv("MAX_RETRIES", "0"))
	cfg.Retry.Delay = parseDuration(getEnv("RETRY_DELAY", "1s"))
	cfg.Retry.Multiplier = parseFloat(getEnv("RETRY_MULTIPLIER", "2"))

	// Outbound rate limits, requests per second (0 disables)
	cfg.RateLimit.WeatherRPS = parseFloat(getEnv("WEATHER_RPS", "5"))
	cfg.RateLimit.GeocodingRPS = parseFloat(getEnv("GEOCODING_RPS", "1"))
	cfg.RateLimit.Burst = parseInt(getEnv("RATE_LIMIT_BURST", "1"))

	cfg.Storage.SQLitePath = getEnv("SQLITE_PATH", "")

	// Dashboard configuration
	cfg.Dashboard.Timezone = getEnv("DASHBOARD_TIMEZONE", "Local")
	cfg.Dashboard.DefaultUnits = strings.ToLower(getEnv("DEFAULT_UNITS", "metric"))
	cfg.Dashboard.SummaryDays = parseInt(getEnv("SUMMARY_DAYS", "5"))
	cfg.Dashboard.GeolocationTimeout = parseDuration(getEnv("GEOLOCATION_TIMEOUT", "10s"))

	return cfg, nil
}

// Location resolves the dashboard time zone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Dashboard.Timezone)
	if err != nil {
		zap.L().Warn("Unknown dashboard timezone, using local",
			zap.String("timezone", c.Dashboard.Timezone),
			zap.Error(err))
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

func parseBool(value string) bool {
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		zap.L().Warn("Failed to parse bool", zap.String("value", value), zap.Error(err))
		return false
	}
	return boolValue
}
