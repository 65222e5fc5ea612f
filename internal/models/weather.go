package models

import (
	"time"
)

type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
)

// ParseUnitSystem falls back to Metric for anything it does not recognise.
func ParseUnitSystem(s string) UnitSystem {
	if UnitSystem(s) == Imperial {
		return Imperial
	}
	return Metric
}

func (u UnitSystem) Toggle() UnitSystem {
	if u == Imperial {
		return Metric
	}
	return Imperial
}

func (u UnitSystem) TemperatureSymbol() string {
	if u == Imperial {
		return "F"
	}
	return "C"
}

func (u UnitSystem) WindSpeedUnit() string {
	if u == Imperial {
		return "mph"
	}
	return "m/s"
}

// ConditionInput is what a collaborator hands to a condition strategy.
// Numeric strategies read Code, keyword strategies read Text.
type ConditionInput struct {
	Code      int
	Text      string
	IsDaytime bool
}

// Condition is the canonical classification of a weather condition.
// SeverityID follows the 2xx thunder / 3xx,5xx rain / 6xx snow / 7xx atmosphere /
// 800 clear / 80x clouds scheme.
type Condition struct {
	SeverityID int    `json:"id"`
	Label      string `json:"main"`
	Icon       string `json:"icon"`
}

type Temperature struct {
	Current   float64    `json:"temp"`
	FeelsLike float64    `json:"feels_like"`
	Min       float64    `json:"temp_min"`
	Max       float64    `json:"temp_max"`
	Units     UnitSystem `json:"units"`
}

type Wind struct {
	Speed   float64  `json:"speed"`
	Degrees float64  `json:"deg"`
	Gust    *float64 `json:"gust,omitempty"`
}

type AirQuality struct {
	CO           float64 `json:"co"`
	NO2          float64 `json:"no2"`
	O3           float64 `json:"o3"`
	SO2          float64 `json:"so2"`
	PM25         float64 `json:"pm2_5"`
	PM10         float64 `json:"pm10"`
	USEPAIndex   int     `json:"us_epa_index"`
	GBDefraIndex int     `json:"gb_defra_index"`
}

type Alert struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Effective   string `json:"time"`
	Expires     string `json:"expires"`
}

// CurrentExtras carries the optional climate data some providers return.
type CurrentExtras struct {
	AirQuality    *AirQuality `json:"aqi,omitempty"`
	UVIndex       *float64    `json:"uv_index,omitempty"`
	Precipitation *float64    `json:"precipitation,omitempty"`
	Alerts        []Alert     `json:"alerts,omitempty"`
	Region        string      `json:"region,omitempty"`
	LocalTime     string      `json:"local_time,omitempty"`
}

// CurrentConditions is a single observation snapshot. It is rebuilt on every
// fetch and never mutated afterwards. Min <= Current <= Max is not guaranteed.
type CurrentConditions struct {
	Name        string         `json:"name"`
	Country     string         `json:"country"`
	Latitude    float64        `json:"lat"`
	Longitude   float64        `json:"lon"`
	ObservedAt  int64          `json:"dt"`
	UTCOffset   int            `json:"timezone"`
	Temperature Temperature    `json:"main"`
	Humidity    float64        `json:"humidity"`
	Pressure    float64        `json:"pressure"`
	Wind        Wind           `json:"wind"`
	CloudCover  float64        `json:"clouds"`
	Visibility  float64        `json:"visibility"`
	Sunrise     int64          `json:"sunrise"`
	Sunset      int64          `json:"sunset"`
	Condition   Condition      `json:"condition"`
	Description string         `json:"description"`
	Extras      *CurrentExtras `json:"extras,omitempty"`
	IsFallback  bool           `json:"is_fallback"`
}

type SampleExtras struct {
	UVIndex       *float64    `json:"uv,omitempty"`
	Precipitation *float64    `json:"precipitation_mm,omitempty"`
	ChanceOfRain  *float64    `json:"chance_of_rain,omitempty"`
	ChanceOfSnow  *float64    `json:"chance_of_snow,omitempty"`
	AirQuality    *AirQuality `json:"air_quality,omitempty"`
}

// ForecastSample is one point of a forecast series.
type ForecastSample struct {
	Timestamp   int64         `json:"dt"`
	Temperature Temperature   `json:"main"`
	Humidity    float64       `json:"humidity"`
	Pressure    float64       `json:"pressure"`
	Wind        Wind          `json:"wind"`
	CloudCover  float64       `json:"clouds"`
	Visibility  float64       `json:"visibility"`
	PoP         float64       `json:"pop"`
	Condition   Condition     `json:"condition"`
	Description string        `json:"description"`
	Extras      *SampleExtras `json:"extras,omitempty"`
}

func (s ForecastSample) Time() time.Time {
	return time.Unix(s.Timestamp, 0)
}

type Origin struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// ForecastSeries holds samples sorted ascending by timestamp. Duplicate
// timestamps are allowed.
type ForecastSeries struct {
	Samples    []ForecastSample `json:"list"`
	Origin     Origin           `json:"city"`
	Units      UnitSystem       `json:"units"`
	IsFallback bool             `json:"is_fallback"`
}

// DailySummary is the sample chosen to represent one calendar day.
type DailySummary struct {
	Date   time.Time      `json:"date"`
	Sample ForecastSample `json:"forecast"`
}
