package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

const defaultWeatherAPIURL = "https://api.weatherapi.com/v1"

// WeatherAPIClient talks to WeatherAPI.com. Its forecast.json response is
// the canonical ProviderPayload shape and is decoded without adaptation.
type WeatherAPIClient struct {
	*BaseClient
	baseURL string
	apiKey  string
}

type weatherAPISearchResult struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func NewWeatherAPIClient(apiKey, baseURL string, config ClientConfig, logger *zap.Logger) *WeatherAPIClient {
	if baseURL == "" {
		baseURL = defaultWeatherAPIURL
	}
	return &WeatherAPIClient{
		BaseClient: NewBaseClient("weatherapi", config, logger),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (c *WeatherAPIClient) Source() models.Source {
	return models.SourceWeatherAPI
}

// Current fetches a one-day forecast.json so the payload carries today's
// astro block and min/max alongside current conditions.
func (c *WeatherAPIClient) Current(ctx context.Context, loc models.Location) (*models.ProviderPayload, error) {
	return c.forecast(ctx, loc.Query(), 1)
}

func (c *WeatherAPIClient) Forecast(ctx context.Context, loc models.Location, days int) (*models.ProviderPayload, error) {
	if days < 1 {
		days = 1
	}
	return c.forecast(ctx, loc.Query(), days)
}

func (c *WeatherAPIClient) forecast(ctx context.Context, query string, days int) (*models.ProviderPayload, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)
	params.Set("days", strconv.Itoa(days))
	params.Set("aqi", "yes")
	params.Set("alerts", "yes")

	var payload models.ProviderPayload
	if err := c.GetJSON(ctx, c.baseURL+"/forecast.json?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch forecast for %q: %w", query, err)
	}
	payload.Source = models.SourceWeatherAPI
	return &payload, nil
}

// Search resolves free text, or a "lat,lon" pair, to candidate locations.
func (c *WeatherAPIClient) Search(ctx context.Context, query string) ([]models.Location, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query)

	var results []weatherAPISearchResult
	if err := c.GetJSON(ctx, c.baseURL+"/search.json?"+params.Encode(), &results); err != nil {
		return nil, fmt.Errorf("failed to search locations for %q: %w", query, err)
	}

	locations := make([]models.Location, 0, len(results))
	for _, r := range results {
		locations = append(locations, models.Location{
			Latitude:    r.Lat,
			Longitude:   r.Lon,
			DisplayName: r.Name,
			CountryCode: r.Country,
		})
	}
	return locations, nil
}

// Reverse names the place nearest to a coordinate pair.
func (c *WeatherAPIClient) Reverse(ctx context.Context, lat, lon float64) (models.Location, error) {
	loc := models.Location{Latitude: lat, Longitude: lon}
	results, err := c.Search(ctx, loc.Coordinates())
	if err != nil {
		return models.Location{}, err
	}
	if len(results) == 0 {
		return models.Location{}, ErrNotFound
	}
	loc.DisplayName = results[0].DisplayName
	loc.CountryCode = results[0].CountryCode
	return loc, nil
}
