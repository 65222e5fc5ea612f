package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/forecast"
	"github.com/bobby-s-dev/weather-dashboard/internal/geo"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/normalize"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/session"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type stubProvider struct{}

func (stubProvider) Source() models.Source { return models.SourceWeatherAPI }

func (stubProvider) Current(ctx context.Context, loc models.Location) (*models.ProviderPayload, error) {
	return &models.ProviderPayload{
		Source:   models.SourceWeatherAPI,
		Location: &models.PayloadLocation{Name: loc.Query(), Country: "Portugal"},
		Current: &models.PayloadCurrent{
			TempC:     models.Float(25),
			TempF:     models.Float(77),
			Condition: models.PayloadCondition{Text: "Sunny", Code: models.Int(1000)},
		},
	}, nil
}

func (stubProvider) Forecast(ctx context.Context, loc models.Location, days int) (*models.ProviderPayload, error) {
	var forecastDays []models.PayloadForecastDay
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		forecastDays = append(forecastDays, models.PayloadForecastDay{
			Date: start.AddDate(0, 0, i).Format("2006-01-02"),
			Day:  models.PayloadDay{MinTempC: models.Float(15), MaxTempC: models.Float(25)},
		})
	}
	return &models.ProviderPayload{
		Source:   models.SourceWeatherAPI,
		Forecast: &models.PayloadForecast{ForecastDay: forecastDays},
	}, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Search(ctx context.Context, query string) ([]models.Location, error) {
	if query == "porto" {
		return []models.Location{{Latitude: 41.15, Longitude: -8.61, DisplayName: "Porto", CountryCode: "Portugal"}}, nil
	}
	return nil, nil
}

func (stubGeocoder) Reverse(ctx context.Context, lat, lon float64) (models.Location, error) {
	return models.Location{Latitude: lat, Longitude: lon, DisplayName: "Lisbon", CountryCode: "Portugal"}, nil
}

type testServer struct {
	app      *fiber.App
	sessions *session.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	cache := services.NewPayloadCache(time.Minute, 100, logger)
	t.Cleanup(cache.Stop)

	weather, err := services.NewWeatherService([]services.Provider{stubProvider{}}, cache,
		normalize.New(time.UTC, logger),
		forecast.NewAggregator(time.UTC),
		services.Options{ForecastDays: 10, SummaryDays: 5},
		logger)
	if err != nil {
		t.Fatalf("NewWeatherService() error: %v", err)
	}

	geoService := geo.NewService(logger, stubGeocoder{})
	sessions := session.NewManager(weather, geoService, nil, session.Options{}, logger)
	t.Cleanup(sessions.Close)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	handler := NewHandler(weather, geoService, sessions, nil, HandlerConfig{Zone: time.UTC}, logger)
	SetupRoutes(app, handler, "*", logger)

	return &testServer{app: app, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, target, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("%s %s: decode body: %v", method, target, err)
		}
	}
	return resp.StatusCode, out
}

// createSession creates a session and waits for its location to settle.
func (s *testServer) createSession(t *testing.T, body string) string {
	t.Helper()
	code, out := s.do(t, http.MethodPost, "/api/v1/sessions", body)
	if code != http.StatusCreated {
		t.Fatalf("create session status = %d, body = %v", code, out)
	}
	id, _ := out["session_id"].(string)

	sess, err := s.sessions.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("session %q not registered: %v", id, err)
	}
	select {
	case <-sess.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("session location never settled")
	}
	return id
}

func dashboardOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["dashboard"].(map[string]interface{})
	if !ok {
		t.Fatalf("no dashboard in %v", body)
	}
	return d
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, `{"lat": 38.72, "lon": -9.14}`)

	code, body := s.do(t, http.MethodGet, "/api/v1/sessions/"+id, "")
	if code != http.StatusOK {
		t.Fatalf("get status = %d", code)
	}
	d := dashboardOf(t, body)
	current := d["current"].(map[string]interface{})
	if current["name"] != "Lisbon" || current["temperature"] != "25°C" {
		t.Errorf("current = %v", current)
	}
	if n := len(d["forecast"].([]interface{})); n != 5 {
		t.Errorf("forecast days = %d, want 5", n)
	}

	code, body = s.do(t, http.MethodPut, "/api/v1/sessions/"+id+"/location", `{"query": "porto"}`)
	if code != http.StatusOK {
		t.Fatalf("set location status = %d, body = %v", code, body)
	}
	if loc := dashboardOf(t, body)["location"].(map[string]interface{}); loc["name"] != "Porto" {
		t.Errorf("location = %v", loc)
	}

	code, body = s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/units/toggle", "")
	if code != http.StatusOK {
		t.Fatalf("toggle status = %d", code)
	}
	d = dashboardOf(t, body)
	if d["units"] != "imperial" || d["current"].(map[string]interface{})["temperature"] != "77°F" {
		t.Errorf("after toggle units = %v, current = %v", d["units"], d["current"])
	}

	code, _ = s.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/refresh", "")
	if code != http.StatusOK {
		t.Errorf("refresh status = %d", code)
	}

	code, _ = s.do(t, http.MethodDelete, "/api/v1/sessions/"+id, "")
	if code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
	code, _ = s.do(t, http.MethodGet, "/api/v1/sessions/"+id, "")
	if code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", code)
	}
}

func TestSessionWithoutGeolocation(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, `{"position_error": "User denied Geolocation"}`)

	_, body := s.do(t, http.MethodGet, "/api/v1/sessions/"+id, "")
	d := dashboardOf(t, body)
	if !strings.Contains(d["error"].(string), "User denied Geolocation") {
		t.Errorf("error = %v", d["error"])
	}
	loc := d["location"].(map[string]interface{})
	if loc["lat"] != models.DefaultLocation.Latitude {
		t.Errorf("location = %v, want default", loc)
	}
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t)
	id := s.createSession(t, "")

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope", "", http.StatusNotFound},
		{"location without query", http.MethodPut, "/api/v1/sessions/" + id + "/location", `{}`, http.StatusBadRequest},
		{"latitude out of range", http.MethodPut, "/api/v1/sessions/" + id + "/location", `{"lat": 120, "lon": 5}`, http.StatusBadRequest},
		{"latitude without longitude", http.MethodPost, "/api/v1/sessions", `{"lat": 10}`, http.StatusBadRequest},
		{"malformed body", http.MethodPut, "/api/v1/sessions/" + id + "/location", `{`, http.StatusBadRequest},
		{"weather without location", http.MethodGet, "/api/v1/weather/current", "", http.StatusBadRequest},
		{"non-numeric lat", http.MethodGet, "/api/v1/weather/current?lat=abc&lon=1", "", http.StatusBadRequest},
		{"bad units", http.MethodGet, "/api/v1/weather/current?q=Lisbon&units=kelvin", "", http.StatusBadRequest},
		{"too many days", http.MethodGet, "/api/v1/weather/forecast?q=Lisbon&days=30", "", http.StatusBadRequest},
		{"empty search", http.MethodGet, "/api/v1/locations/search?q=", "", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/v1/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := s.do(t, tt.method, tt.target, tt.body)
			if code != tt.want {
				t.Errorf("status = %d, want %d (body %v)", code, tt.want, body)
			}
			if body["error"] == nil {
				t.Errorf("body has no error: %v", body)
			}
		})
	}
}

func TestWeatherEndpoints(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/v1/weather/current?q=Lisbon&units=imperial", "")
	if code != http.StatusOK {
		t.Fatalf("current status = %d", code)
	}
	reading := body["main"].(map[string]interface{})
	if reading["temp"] != 77.0 || reading["units"] != "imperial" {
		t.Errorf("main = %v", reading)
	}

	code, body = s.do(t, http.MethodGet, "/api/v1/weather/current?lat=38.72&lon=-9.14", "")
	if code != http.StatusOK || body["name"] != "38.72,-9.14" {
		t.Errorf("coordinate lookup status = %d, name = %v", code, body["name"])
	}

	code, body = s.do(t, http.MethodGet, "/api/v1/weather/forecast?q=Lisbon&days=3", "")
	if code != http.StatusOK {
		t.Fatalf("forecast status = %d", code)
	}
	if n := len(body["daily"].([]interface{})); n != 3 {
		t.Errorf("daily = %d, want 3", n)
	}
	series := body["forecast"].(map[string]interface{})
	if n := len(series["list"].([]interface{})); n != 80 {
		t.Errorf("samples = %d, want 80", n)
	}
}

func TestSearchAndHealth(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/api/v1/locations/search?q=porto", "")
	if code != http.StatusOK {
		t.Fatalf("search status = %d", code)
	}
	results := body["results"].([]interface{})
	if len(results) != 1 || results[0].(map[string]interface{})["name"] != "Porto" {
		t.Errorf("results = %v", results)
	}

	code, body = s.do(t, http.MethodGet, "/api/v1/locations/search?q=atlantis", "")
	if code != http.StatusOK {
		t.Fatalf("fallback search status = %d", code)
	}
	fallback := body["results"].([]interface{})[0].(map[string]interface{})
	if fallback["name"] != "atlantis" || fallback["lat"] != models.DefaultLocation.Latitude {
		t.Errorf("fallback = %v", fallback)
	}

	code, body = s.do(t, http.MethodGet, "/api/v1/health", "")
	if code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("health = %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/v1/metrics", "")
	if code != http.StatusOK || body["metrics"] == nil {
		t.Errorf("metrics = %d %v", code, body)
	}
}
