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

const (
	defaultNominatimURL       = "https://nominatim.openstreetmap.org"
	defaultNominatimUserAgent = "WeatherDashboard/1.0"
	nominatimSearchLimit      = 5
)

// NominatimClient geocodes through OpenStreetMap. The public instance allows
// one request per second and requires a User-Agent.
type NominatimClient struct {
	*BaseClient
	baseURL string
}

type nominatimAddress struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	Hamlet  string `json:"hamlet"`
	Country string `json:"country"`
}

type nominatimPlace struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     *nominatimAddress `json:"address"`
}

func NewNominatimClient(baseURL string, config ClientConfig, logger *zap.Logger) *NominatimClient {
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultNominatimUserAgent
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 1
	}
	return &NominatimClient{
		BaseClient: NewBaseClient("nominatim", config, logger),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *NominatimClient) Search(ctx context.Context, query string) ([]models.Location, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(nominatimSearchLimit))

	var places []nominatimPlace
	if err := c.GetJSON(ctx, c.baseURL+"/search?"+params.Encode(), &places); err != nil {
		return nil, fmt.Errorf("failed to search locations for %q: %w", query, err)
	}

	locations := make([]models.Location, 0, len(places))
	for _, p := range places {
		lat, errLat := strconv.ParseFloat(p.Lat, 64)
		lon, errLon := strconv.ParseFloat(p.Lon, 64)
		if errLat != nil || errLon != nil {
			c.logger.Debug("Skipping place with invalid coordinates",
				zap.String("display_name", p.DisplayName))
			continue
		}
		loc := models.Location{
			Latitude:    lat,
			Longitude:   lon,
			DisplayName: strings.TrimSpace(strings.Split(p.DisplayName, ",")[0]),
		}
		if p.Address != nil {
			loc.CountryCode = p.Address.Country
		}
		locations = append(locations, loc)
	}
	return locations, nil
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64) (models.Location, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")

	var place nominatimPlace
	if err := c.GetJSON(ctx, c.baseURL+"/reverse?"+params.Encode(), &place); err != nil {
		return models.Location{}, fmt.Errorf("failed to reverse geocode %.4f,%.4f: %w", lat, lon, err)
	}
	if place.DisplayName == "" {
		return models.Location{}, ErrNotFound
	}

	parts := strings.Split(place.DisplayName, ",")
	loc := models.Location{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: strings.TrimSpace(parts[0]),
		CountryCode: strings.TrimSpace(parts[len(parts)-1]),
	}
	if a := place.Address; a != nil {
		for _, name := range []string{a.City, a.Town, a.Village, a.Hamlet} {
			if name != "" {
				loc.DisplayName = name
				break
			}
		}
		if a.Country != "" {
			loc.CountryCode = a.Country
		}
	}
	return loc, nil
}
