// Package dashboard holds the per-viewer dashboard state: the selected
// location, the unit system and the last fetched weather.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"go.uber.org/zap"
)

var ErrNoLocation = errors.New("no location selected")

// Fetcher loads weather for a location. *services.WeatherService satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, loc models.Location, units models.UnitSystem) services.Report
	Invalidate(loc models.Location)
}

// State is a copy of the store at one instant. Current, Forecast and Daily
// always come from the same fetch.
type State struct {
	Location  *models.Location          `json:"location"`
	Units     models.UnitSystem         `json:"units"`
	Current   *models.CurrentConditions `json:"current"`
	Forecast  *models.ForecastSeries    `json:"forecast"`
	Daily     []models.DailySummary     `json:"daily"`
	Loading   bool                      `json:"loading"`
	Error     string                    `json:"error,omitempty"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

type Store struct {
	mu         sync.RWMutex
	state      State
	generation uint64
	fetcher    Fetcher
	logger     *zap.Logger
}

func NewStore(fetcher Fetcher, units models.UnitSystem, logger *zap.Logger) *Store {
	return &Store{
		state:   State{Units: units},
		fetcher: fetcher,
		logger:  logger,
	}
}

// SetLocation selects a location, clears any error and refreshes.
func (s *Store) SetLocation(ctx context.Context, loc models.Location) error {
	s.mu.Lock()
	s.state.Location = &loc
	s.state.Error = ""
	s.mu.Unlock()

	s.logger.Info("Location selected",
		zap.String("location", loc.Query()))
	return s.Refresh(ctx)
}

// ToggleUnits flips the unit system and refreshes when a location is set.
func (s *Store) ToggleUnits(ctx context.Context) (models.UnitSystem, error) {
	s.mu.Lock()
	s.state.Units = s.state.Units.Toggle()
	units := s.state.Units
	hasLocation := s.state.Location != nil
	s.mu.Unlock()

	if !hasLocation {
		return units, nil
	}
	return units, s.Refresh(ctx)
}

// Refresh refetches weather for the selected location. Results of a refresh
// overtaken by a newer one are dropped.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Location == nil {
		s.mu.Unlock()
		return ErrNoLocation
	}
	s.generation++
	gen := s.generation
	loc := *s.state.Location
	units := s.state.Units
	s.state.Loading = true
	s.mu.Unlock()

	report := s.fetcher.Fetch(ctx, loc, units)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("Discarding stale refresh",
			zap.String("location", loc.Query()),
			zap.Uint64("generation", gen))
		return nil
	}
	s.state.Loading = false
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state.Current = &report.Current
	s.state.Forecast = &report.Forecast
	s.state.Daily = report.Daily
	s.state.UpdatedAt = report.FetchedAt
	return nil
}

// Reload drops cached payloads for the selected location and refreshes.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.RLock()
	loc := s.state.Location
	s.mu.RUnlock()

	if loc == nil {
		return ErrNoLocation
	}
	s.fetcher.Invalidate(*loc)
	return s.Refresh(ctx)
}

// Fail records a user-facing error and stops the loading indicator.
func (s *Store) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.state.Error = err.Error()
	s.state.Loading = false
	s.mu.Unlock()

	s.logger.Warn("Dashboard error", zap.Error(err))
}

// Begin marks the store as loading before a location is known.
func (s *Store) Begin() {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	if st.Location != nil {
		loc := *st.Location
		st.Location = &loc
	}
	if st.Current != nil {
		cur := *st.Current
		st.Current = &cur
	}
	if st.Forecast != nil {
		fc := *st.Forecast
		st.Forecast = &fc
	}
	st.Daily = append([]models.DailySummary(nil), st.Daily...)
	return st
}

// Restore seeds location and units without fetching.
func (s *Store) Restore(loc *models.Location, units models.UnitSystem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loc != nil {
		l := *loc
		s.state.Location = &l
	}
	s.state.Units = units
}
