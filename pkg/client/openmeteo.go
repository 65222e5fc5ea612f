package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

const (
	defaultOpenMeteoURL = "https://api.open-meteo.com/v1"
	openMeteoTimeLayout = "2006-01-02T15:04"

	openMeteoCurrentFields = "temperature_2m,apparent_temperature,relative_humidity_2m,pressure_msl," +
		"wind_speed_10m,wind_direction_10m,wind_gusts_10m,cloud_cover,precipitation,is_day,weather_code"
	openMeteoDailyFields = "temperature_2m_max,temperature_2m_min,sunrise,sunset,weather_code," +
		"precipitation_sum,precipitation_probability_max,uv_index_max,wind_speed_10m_max"
)

// OpenMeteoClient needs coordinates and only reports daily aggregates, so the
// payloads it builds have no hourly entries and describe the sky in words.
type OpenMeteoClient struct {
	*BaseClient
	baseURL string
}

type OpenMeteoResponse struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timezone         string  `json:"timezone"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Current          struct {
		Time                string   `json:"time"`
		Temperature2M       *float64 `json:"temperature_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		RelativeHumidity2M  *float64 `json:"relative_humidity_2m"`
		PressureMSL         *float64 `json:"pressure_msl"`
		WindSpeed10M        *float64 `json:"wind_speed_10m"`
		WindDirection10M    *float64 `json:"wind_direction_10m"`
		WindGusts10M        *float64 `json:"wind_gusts_10m"`
		CloudCover          *float64 `json:"cloud_cover"`
		Precipitation       *float64 `json:"precipitation"`
		IsDay               *int     `json:"is_day"`
		WeatherCode         *int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time                        []string   `json:"time"`
		Temperature2MMax            []*float64 `json:"temperature_2m_max"`
		Temperature2MMin            []*float64 `json:"temperature_2m_min"`
		Sunrise                     []string   `json:"sunrise"`
		Sunset                      []string   `json:"sunset"`
		WeatherCode                 []*int     `json:"weather_code"`
		PrecipitationSum            []*float64 `json:"precipitation_sum"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
		UVIndexMax                  []*float64 `json:"uv_index_max"`
		WindSpeed10MMax             []*float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

func NewOpenMeteoClient(baseURL string, config ClientConfig, logger *zap.Logger) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = defaultOpenMeteoURL
	}
	return &OpenMeteoClient{
		BaseClient: NewBaseClient("openmeteo", config, logger),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *OpenMeteoClient) Source() models.Source {
	return models.SourceOpenMeteo
}

func (c *OpenMeteoClient) Current(ctx context.Context, loc models.Location) (*models.ProviderPayload, error) {
	return c.fetch(ctx, loc, 1)
}

func (c *OpenMeteoClient) Forecast(ctx context.Context, loc models.Location, days int) (*models.ProviderPayload, error) {
	if days < 1 {
		days = 1
	}
	if days > 16 {
		days = 16
	}
	return c.fetch(ctx, loc, days)
}

func (c *OpenMeteoClient) fetch(ctx context.Context, loc models.Location, days int) (*models.ProviderPayload, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	params.Set("current", openMeteoCurrentFields)
	params.Set("daily", openMeteoDailyFields)
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(days))

	var response OpenMeteoResponse
	if err := c.GetJSON(ctx, c.baseURL+"/forecast?"+params.Encode(), &response); err != nil {
		return nil, fmt.Errorf("failed to fetch forecast for %s: %w", loc.Coordinates(), err)
	}
	return response.toPayload(), nil
}

// toPayload adapts the response into the WeatherAPI.com layout the normalizer
// reads. Times are local to the forecast location.
func (r *OpenMeteoResponse) toPayload() *models.ProviderPayload {
	zone := time.FixedZone(r.Timezone, r.UTCOffsetSeconds)

	payload := &models.ProviderPayload{
		Source: models.SourceOpenMeteo,
		Location: &models.PayloadLocation{
			Lat:  models.Float(r.Latitude),
			Lon:  models.Float(r.Longitude),
			TzID: r.Timezone,
		},
	}

	if observed, err := time.ParseInLocation(openMeteoTimeLayout, r.Current.Time, zone); err == nil {
		payload.Location.LocaltimeEpoch = models.Int64(observed.Unix())
		payload.Location.Localtime = observed.Format("2006-01-02 15:04")

		cur := r.Current
		payload.Current = &models.PayloadCurrent{
			LastUpdatedEpoch: models.Int64(observed.Unix()),
			TempC:            cur.Temperature2M,
			FeelsLikeC:       cur.ApparentTemperature,
			IsDay:            cur.IsDay,
			Condition:        models.PayloadCondition{Text: describe(cur.WeatherCode), Code: cur.WeatherCode},
			WindKph:          cur.WindSpeed10M,
			WindDegree:       cur.WindDirection10M,
			GustKph:          cur.WindGusts10M,
			PressureMb:       cur.PressureMSL,
			PrecipMm:         cur.Precipitation,
			Humidity:         cur.RelativeHumidity2M,
			Cloud:            cur.CloudCover,
		}
	}

	days := make([]models.PayloadForecastDay, 0, len(r.Daily.Time))
	for i, date := range r.Daily.Time {
		code := intAt(r.Daily.WeatherCode, i)
		day := models.PayloadForecastDay{
			Date: date,
			Day: models.PayloadDay{
				MaxTempC:          floatAt(r.Daily.Temperature2MMax, i),
				MinTempC:          floatAt(r.Daily.Temperature2MMin, i),
				MaxWindKph:        floatAt(r.Daily.WindSpeed10MMax, i),
				TotalPrecipMm:     floatAt(r.Daily.PrecipitationSum, i),
				DailyChanceOfRain: floatAt(r.Daily.PrecipitationProbabilityMax, i),
				UV:                floatAt(r.Daily.UVIndexMax, i),
				Condition:         models.PayloadCondition{Text: describe(code), Code: code},
			},
		}
		sunrise, okRise := clockAt(r.Daily.Sunrise, i)
		sunset, okSet := clockAt(r.Daily.Sunset, i)
		if okRise || okSet {
			day.Astro = &models.PayloadAstro{Sunrise: sunrise, Sunset: sunset}
		}
		days = append(days, day)
	}
	if len(days) > 0 {
		payload.Forecast = &models.PayloadForecast{ForecastDay: days}
	}
	return payload
}

func floatAt(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func intAt(values []*int, i int) *int {
	if i < len(values) {
		return values[i]
	}
	return nil
}

// clockAt renders a local ISO timestamp as a 12-hour clock, e.g. "05:12 AM".
func clockAt(values []string, i int) (string, bool) {
	if i >= len(values) {
		return "", false
	}
	t, err := time.Parse(openMeteoTimeLayout, values[i])
	if err != nil {
		return "", false
	}
	return t.Format("03:04 PM"), true
}

// WMO weather interpretation codes.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

func describe(code *int) string {
	if code == nil {
		return ""
	}
	if desc, ok := weatherCodes[*code]; ok {
		return desc
	}
	return "Unknown"
}
