package format

import (
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

func TestTemperature(t *testing.T) {
	tests := []struct {
		name     string
		temp     float64
		units    models.UnitSystem
		expected string
	}{
		{name: "metric", temp: 21.4, units: models.Metric, expected: "21°C"},
		{name: "imperial rounds up", temp: 70.5, units: models.Imperial, expected: "71°F"},
		{name: "negative half rounds up", temp: -2.5, units: models.Metric, expected: "-2°C"},
		{name: "zero", temp: 0, units: models.Metric, expected: "0°C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Temperature(tt.temp, tt.units); got != tt.expected {
				t.Errorf("Temperature(%v, %s) = %q, want %q", tt.temp, tt.units, got, tt.expected)
			}
		})
	}
}

func TestWindSpeed(t *testing.T) {
	if got := WindSpeed(4.6, models.Metric); got != "5 m/s" {
		t.Errorf("WindSpeed metric = %q", got)
	}
	if got := WindSpeed(11.2, models.Imperial); got != "11 mph" {
		t.Errorf("WindSpeed imperial = %q", got)
	}
}

func TestClockAndDay(t *testing.T) {
	ts := time.Date(2024, 3, 4, 15, 4, 0, 0, time.UTC).Unix()

	if got := Clock(ts, 0); got != "3:04 PM" {
		t.Errorf("Clock utc = %q", got)
	}
	if got := Clock(ts, -5*3600); got != "10:04 AM" {
		t.Errorf("Clock utc-5 = %q", got)
	}
	if got := Day(ts, time.UTC); got != "Mon" {
		t.Errorf("Day = %q", got)
	}
}

func TestIsDaytime(t *testing.T) {
	if !IsDaytime(100, 100, 200) || !IsDaytime(200, 100, 200) {
		t.Error("boundaries should count as daytime")
	}
	if IsDaytime(99, 100, 200) || IsDaytime(201, 100, 200) {
		t.Error("outside sunrise..sunset should be night")
	}
}

func TestBackground(t *testing.T) {
	tests := []struct {
		id      int
		daytime bool
		want    string
	}{
		{800, true, bgClearDay},
		{800, false, bgClearNight},
		{211, true, "bg-gradient-to-br from-gray-700 to-gray-900"},
		{211, false, "bg-gradient-to-br from-gray-700 to-gray-900"},
		{501, true, "bg-gradient-to-br from-gray-400 to-blue-600"},
		{601, false, "bg-gradient-to-br from-gray-600 to-blue-800"},
		{741, true, "bg-gradient-to-br from-gray-300 to-gray-500"},
		{803, true, "bg-gradient-to-br from-blue-200 to-gray-400"},
		{999, false, bgClearNight},
	}
	for _, tt := range tests {
		if got := Background(tt.id, tt.daytime); got != tt.want {
			t.Errorf("Background(%d, %v) = %q, want %q", tt.id, tt.daytime, got, tt.want)
		}
	}
}

func TestIconURL(t *testing.T) {
	if got := IconURL("10n"); got != "https://openweathermap.org/img/wn/10n@2x.png" {
		t.Errorf("IconURL = %q", got)
	}
}
