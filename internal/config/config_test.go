package config

import (
	"testing"
	"time"
	_ "time/tzdata"
)

func TestLoadConfigDefaults(t *testing.T) {

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.Scheduler.RefreshInterval != 15*time.Minute || !cfg.Scheduler.Enabled {
		t.Errorf("Scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Retry.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.Retry.MaxRetries)
	}
	if cfg.WeatherAPI.ForecastDays != 10 || cfg.Dashboard.SummaryDays != 5 {
		t.Errorf("days = %d/%d", cfg.WeatherAPI.ForecastDays, cfg.Dashboard.SummaryDays)
	}
	if cfg.RateLimit.GeocodingRPS != 1 {
		t.Errorf("GeocodingRPS = %v", cfg.RateLimit.GeocodingRPS)
	}
	if cfg.Storage.SQLitePath != "" {
		t.Errorf("SQLitePath = %q, want empty", cfg.Storage.SQLitePath)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("DEFAULT_UNITS", "IMPERIAL")
	t.Setenv("MAX_CACHE_SIZE", "50")
	t.Setenv("SQLITE_PATH", "/tmp/dash.db")
	t.Setenv("DASHBOARD_TIMEZONE", "Europe/Berlin")
	t.Setenv("REFRESH_ENABLED", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Scheduler.RefreshInterval != 5*time.Minute || cfg.Scheduler.Enabled {
		t.Errorf("Scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Dashboard.DefaultUnits != "imperial" {
		t.Errorf("DefaultUnits = %q", cfg.Dashboard.DefaultUnits)
	}
	if cfg.Cache.MaxSize != 50 || cfg.Storage.SQLitePath != "/tmp/dash.db" {
		t.Errorf("cache/storage = %d/%q", cfg.Cache.MaxSize, cfg.Storage.SQLitePath)
	}
	if cfg.Location().String() != "Europe/Berlin" {
		t.Errorf("Location() = %s", cfg.Location())
	}
}

func TestParseHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"duration", parseDuration("90s"), 90 * time.Second},
		{"bad duration", parseDuration("soon"), time.Duration(0)},
		{"int", parseInt("42"), 42},
		{"bad int", parseInt("x"), 0},
		{"float", parseFloat("1.5"), 1.5},
		{"bool", parseBool("true"), true},
		{"bad bool", parseBool("maybe"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}
