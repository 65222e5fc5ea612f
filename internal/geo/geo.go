// Package geo resolves places for the dashboard: free-text search, reverse
// geocoding and device geolocation. Lookups never fail outwardly; they fall
// back to New York or to a coordinate label.
package geo

import (
	"context"
	"errors"
	"strings"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

var ErrEmptyQuery = errors.New("search query is empty")

type Geocoder interface {
	Search(ctx context.Context, query string) ([]models.Location, error)
	Reverse(ctx context.Context, lat, lon float64) (models.Location, error)
}

// Service asks each geocoder in turn until one answers.
type Service struct {
	geocoders []Geocoder
	logger    *zap.Logger
}

func NewService(logger *zap.Logger, geocoders ...Geocoder) *Service {
	return &Service{
		geocoders: geocoders,
		logger:    logger,
	}
}

// Search returns matching places. When nothing matches, the single result is
// the query itself placed at the default location.
func (s *Service) Search(ctx context.Context, query string) ([]models.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	for _, g := range s.geocoders {
		results, err := g.Search(ctx, query)
		if err != nil {
			s.logger.Warn("Location search failed",
				zap.String("query", query),
				zap.Error(err))
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}

	s.logger.Info("No location results, returning fallback", zap.String("query", query))
	fallback := models.DefaultLocation
	fallback.DisplayName = query
	return []models.Location{fallback}, nil
}

// Reverse names a coordinate pair, labelling it "Location (lat, lon)" when no
// geocoder can.
func (s *Service) Reverse(ctx context.Context, lat, lon float64) models.Location {
	for _, g := range s.geocoders {
		loc, err := g.Reverse(ctx, lat, lon)
		if err != nil {
			s.logger.Warn("Reverse geocoding failed",
				zap.Float64("lat", lat),
				zap.Float64("lon", lon),
				zap.Error(err))
			continue
		}
		if loc.DisplayName != "" {
			return loc
		}
	}

	return models.Location{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: models.CoordinateLabel(lat, lon),
	}
}
