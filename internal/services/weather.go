package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/forecast"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/normalize"
	"go.uber.org/zap"
)

var ErrNoProviders = errors.New("no weather providers configured")

// Provider fetches raw payloads from one upstream.
type Provider interface {
	Source() models.Source
	Current(ctx context.Context, loc models.Location) (*models.ProviderPayload, error)
	Forecast(ctx context.Context, loc models.Location, days int) (*models.ProviderPayload, error)
}

type Options struct {
	ForecastDays int
	SummaryDays  int
	FetchTimeout time.Duration
}

// Report is everything the dashboard renders for one location.
type Report struct {
	Current   models.CurrentConditions `json:"current"`
	Forecast  models.ForecastSeries    `json:"forecast"`
	Daily     []models.DailySummary    `json:"daily"`
	Units     models.UnitSystem        `json:"units"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// Fallback reports whether either half of the report came from defaults.
func (r Report) Fallback() bool {
	return r.Current.IsFallback || r.Forecast.IsFallback
}

// WeatherService tries providers in order, caches their raw payloads and
// normalizes on every read.
type WeatherService struct {
	providers     []Provider
	cache         *PayloadCache
	normalizer    *normalize.Normalizer
	aggregator    *forecast.Aggregator
	opts          Options
	logger        *zap.Logger
	mu            sync.RWMutex
	lastFetchTime time.Time
	successCount  int
	failureCount  int
	fallbackCount int
	sourceCounts  map[models.Source]int
}

func NewWeatherService(providers []Provider, cache *PayloadCache, normalizer *normalize.Normalizer, aggregator *forecast.Aggregator, opts Options, logger *zap.Logger) (*WeatherService, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	if opts.ForecastDays < 1 {
		opts.ForecastDays = 10
	}
	if opts.SummaryDays < 1 {
		opts.SummaryDays = 5
	}

	for _, p := range providers {
		logger.Info("Weather provider initialized", zap.String("source", string(p.Source())))
	}

	return &WeatherService{
		providers:    providers,
		cache:        cache,
		normalizer:   normalizer,
		aggregator:   aggregator,
		opts:         opts,
		logger:       logger,
		sourceCounts: make(map[models.Source]int),
	}, nil
}

func (s *WeatherService) Current(ctx context.Context, loc models.Location, units models.UnitSystem) models.CurrentConditions {
	payload := s.fetch(ctx, KindCurrent, loc, 0)
	return s.normalizer.NormalizeCurrent(payload, units, loc)
}

func (s *WeatherService) Forecast(ctx context.Context, loc models.Location, units models.UnitSystem) models.ForecastSeries {
	payload := s.fetch(ctx, KindForecast, loc, s.opts.ForecastDays)
	return s.normalizer.NormalizeForecast(payload, units, loc)
}

func (s *WeatherService) DailySummaries(series models.ForecastSeries, maxDays int) []models.DailySummary {
	if maxDays < 1 {
		maxDays = s.opts.SummaryDays
	}
	return s.aggregator.DailySummaries(series, maxDays)
}

// Fetch loads current conditions and the forecast concurrently and returns
// them together.
func (s *WeatherService) Fetch(ctx context.Context, loc models.Location, units models.UnitSystem) Report {
	startTime := time.Now()

	var wg sync.WaitGroup
	var current models.CurrentConditions
	var series models.ForecastSeries

	wg.Add(2)
	go func() {
		defer wg.Done()
		current = s.Current(ctx, loc, units)
	}()
	go func() {
		defer wg.Done()
		series = s.Forecast(ctx, loc, units)
	}()
	wg.Wait()

	report := Report{
		Current:   current,
		Forecast:  series,
		Daily:     s.DailySummaries(series, s.opts.SummaryDays),
		Units:     units,
		FetchedAt: time.Now(),
	}

	s.logger.Info("Weather fetch completed",
		zap.String("location", loc.Query()),
		zap.String("units", string(units)),
		zap.Bool("fallback", report.Fallback()),
		zap.Duration("duration", time.Since(startTime)))

	return report
}

// Invalidate forgets cached payloads for a location so the next fetch goes
// upstream.
func (s *WeatherService) Invalidate(loc models.Location) {
	s.cache.Invalidate(cacheQuery(loc))
}

func cacheQuery(loc models.Location) string {
	return loc.Query() + "|" + loc.Coordinates()
}

func (s *WeatherService) fetch(ctx context.Context, kind PayloadKind, loc models.Location, days int) *models.ProviderPayload {
	s.mu.Lock()
	s.lastFetchTime = time.Now()
	s.mu.Unlock()

	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	for _, p := range s.providers {
		key := CacheKey{Kind: kind, Source: p.Source(), Query: cacheQuery(loc), Days: days}
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debug("Cache hit",
				zap.String("kind", string(kind)),
				zap.String("source", string(p.Source())),
				zap.String("location", loc.Query()))
			return cached
		}

		var payload *models.ProviderPayload
		var err error
		if kind == KindCurrent {
			payload, err = p.Current(ctx, loc)
		} else {
			payload, err = p.Forecast(ctx, loc, days)
		}
		if err != nil {
			s.logger.Warn("Failed to fetch from provider",
				zap.String("kind", string(kind)),
				zap.String("source", string(p.Source())),
				zap.String("location", loc.Query()),
				zap.Error(err))
			s.mu.Lock()
			s.failureCount++
			s.mu.Unlock()
			continue
		}

		s.cache.Set(key, payload)
		s.mu.Lock()
		s.successCount++
		s.sourceCounts[p.Source()]++
		s.mu.Unlock()
		return payload
	}

	s.logger.Warn("All providers failed, normalizing fallback",
		zap.String("kind", string(kind)),
		zap.String("location", loc.Query()))
	s.mu.Lock()
	s.fallbackCount++
	s.mu.Unlock()
	return nil
}

func (s *WeatherService) GetLastFetchTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetchTime
}

func (s *WeatherService) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources := make(map[string]int, len(s.sourceCounts))
	for source, n := range s.sourceCounts {
		sources[string(source)] = n
	}

	breakers := make(map[string]string)
	for _, p := range s.providers {
		if b, ok := p.(interface{ BreakerState() string }); ok {
			breakers[string(p.Source())] = b.BreakerState()
		}
	}

	return map[string]interface{}{
		"last_fetch":       s.lastFetchTime,
		"success_count":    s.successCount,
		"failure_count":    s.failureCount,
		"fallback_count":   s.fallbackCount,
		"sources":          sources,
		"circuit_breakers": breakers,
		"cache":            s.cache.GetStats(),
	}
}
