package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/dashboard"
	"github.com/bobby-s-dev/weather-dashboard/internal/geo"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/session"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var validate = validator.New()

// StatusReporter is implemented by the refresh scheduler.
type StatusReporter interface {
	GetStatus() map[string]interface{}
}

type Handler struct {
	weather      *services.WeatherService
	geo          *geo.Service
	sessions     *session.Manager
	scheduler    StatusReporter
	zone         *time.Location
	defaultUnits models.UnitSystem
	summaryDays  int
	logger       *zap.Logger
}

type HandlerConfig struct {
	Zone         *time.Location
	DefaultUnits models.UnitSystem
	SummaryDays  int
}

// NewHandler wires the HTTP handlers. scheduler may be nil when periodic
// refresh is disabled.
func NewHandler(weather *services.WeatherService, geoService *geo.Service, sessions *session.Manager, scheduler StatusReporter, cfg HandlerConfig, logger *zap.Logger) *Handler {
	if cfg.Zone == nil {
		cfg.Zone = time.Local
	}
	if cfg.SummaryDays <= 0 {
		cfg.SummaryDays = 5
	}
	return &Handler{
		weather:      weather,
		geo:          geoService,
		sessions:     sessions,
		scheduler:    scheduler,
		zone:         cfg.Zone,
		defaultUnits: models.ParseUnitSystem(string(cfg.DefaultUnits)),
		summaryDays:  cfg.SummaryDays,
		logger:       logger,
	}
}

type createSessionRequest struct {
	Latitude      *float64 `json:"lat" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"lon" validate:"required_with=Latitude,omitempty,longitude"`
	PositionError string   `json:"position_error"`
}

type locationRequest struct {
	Query     string   `json:"query" validate:"required_without=Latitude"`
	Latitude  *float64 `json:"lat" validate:"omitempty,latitude"`
	Longitude *float64 `json:"lon" validate:"required_with=Latitude,omitempty,longitude"`
}

type weatherQuery struct {
	Query     string   `validate:"required_without=Latitude"`
	Latitude  *float64 `validate:"omitempty,latitude"`
	Longitude *float64 `validate:"required_with=Latitude,omitempty,longitude"`
	Units     string   `validate:"omitempty,oneof=metric imperial"`
	Days      int      `validate:"min=1,max=16"`
}

func (q weatherQuery) location() models.Location {
	if q.Latitude != nil {
		return models.Location{Latitude: *q.Latitude, Longitude: *q.Longitude}
	}
	return models.Location{DisplayName: q.Query}
}

// CreateSession handles POST /api/v1/sessions. Device coordinates are
// optional; the location is settled in the background.
func (h *Handler) CreateSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	var src geo.PositionSource
	switch {
	case req.Latitude != nil:
		src = geo.Fixed(*req.Latitude, *req.Longitude)
	case req.PositionError != "":
		src = geo.Unavailable(errors.New(req.PositionError))
	}

	sess, err := h.sessions.Create(c.UserContext(), src)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(h.sessionResponse(sess))
}

// GetSession handles GET /api/v1/sessions/:id
func (h *Handler) GetSession(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(h.sessionResponse(sess))
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *Handler) DeleteSession(c *fiber.Ctx) error {
	if err := h.sessions.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetLocation handles PUT /api/v1/sessions/:id/location. A query selects the
// first search result; coordinates are reverse geocoded.
func (h *Handler) SetLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	ctx := c.UserContext()
	var loc models.Location
	if req.Latitude != nil {
		loc = h.geo.Reverse(ctx, *req.Latitude, *req.Longitude)
	} else {
		results, err := h.geo.Search(ctx, req.Query)
		if err != nil {
			return err
		}
		loc = results[0]
	}

	h.logger.Info("Setting session location",
		zap.String("session_id", c.Params("id")),
		zap.String("location", loc.Query()))

	sess, err := h.sessions.SetLocation(ctx, c.Params("id"), loc)
	if err != nil {
		return err
	}
	return c.JSON(h.sessionResponse(sess))
}

// ToggleUnits handles POST /api/v1/sessions/:id/units/toggle
func (h *Handler) ToggleUnits(c *fiber.Ctx) error {
	sess, err := h.sessions.ToggleUnits(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(h.sessionResponse(sess))
}

// RefreshSession handles POST /api/v1/sessions/:id/refresh
func (h *Handler) RefreshSession(c *fiber.Ctx) error {
	sess, err := h.sessions.Refresh(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(h.sessionResponse(sess))
}

func (h *Handler) sessionResponse(sess *session.Session) fiber.Map {
	return fiber.Map{
		"session_id": sess.ID,
		"dashboard":  dashboard.BuildView(sess.Store.Snapshot(), h.zone),
	}
}

// SearchLocations handles GET /api/v1/locations/search
func (h *Handler) SearchLocations(c *fiber.Ctx) error {
	results, err := h.geo.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"results": results,
	})
}

// GetCurrentWeather handles GET /api/v1/weather/current
func (h *Handler) GetCurrentWeather(c *fiber.Ctx) error {
	q, err := h.parseWeatherQuery(c)
	if err != nil {
		return err
	}
	loc := q.location()
	units := h.units(q.Units)

	h.logger.Info("Fetching current weather",
		zap.String("location", loc.Query()),
		zap.String("units", string(units)))

	return c.JSON(h.weather.Current(c.UserContext(), loc, units))
}

// GetForecast handles GET /api/v1/weather/forecast. days limits the daily
// summaries, not the samples.
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	q, err := h.parseWeatherQuery(c)
	if err != nil {
		return err
	}
	loc := q.location()
	units := h.units(q.Units)

	h.logger.Info("Fetching forecast",
		zap.String("location", loc.Query()),
		zap.Int("days", q.Days))

	series := h.weather.Forecast(c.UserContext(), loc, units)
	return c.JSON(fiber.Map{
		"forecast": series,
		"daily":    h.weather.DailySummaries(series, q.Days),
	})
}

func (h *Handler) parseWeatherQuery(c *fiber.Ctx) (weatherQuery, error) {
	q := weatherQuery{
		Query: strings.TrimSpace(c.Query("q")),
		Units: strings.ToLower(c.Query("units")),
		Days:  h.summaryDays,
	}

	var err error
	if q.Latitude, err = optionalFloat(c.Query("lat")); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "lat must be a number")
	}
	if q.Longitude, err = optionalFloat(c.Query("lon")); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "lon must be a number")
	}
	if days := c.Query("days"); days != "" {
		if q.Days, err = strconv.Atoi(days); err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
		}
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (h *Handler) units(s string) models.UnitSystem {
	if s == "" {
		return h.defaultUnits
	}
	return models.ParseUnitSystem(s)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	health := fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"last_fetch": h.weather.GetLastFetchTime(),
		"uptime":     time.Since(startTime).String(),
		"sessions":   h.sessions.Count(),
	}
	if h.scheduler != nil {
		health["scheduler"] = h.scheduler.GetStatus()
	}
	return c.JSON(health)
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	stats := h.weather.GetStats()
	stats["sessions"] = h.sessions.Count()

	return c.JSON(fiber.Map{
		"metrics":   stats,
		"timestamp": time.Now(),
	})
}

var startTime = time.Now()
