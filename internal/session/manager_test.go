package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/geo"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/services"
	"github.com/bobby-s-dev/weather-dashboard/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *countingFetcher) Fetch(ctx context.Context, loc models.Location, units models.UnitSystem) services.Report {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[loc.Query()]++
	f.mu.Unlock()

	return services.Report{
		Current:  models.CurrentConditions{Name: loc.Query(), Temperature: models.Temperature{Units: units}},
		Forecast: models.ForecastSeries{Units: units},
		Units:    units,
	}
}

func (f *countingFetcher) Invalidate(models.Location) {}

func (f *countingFetcher) count(query string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[query]
}

type namingGeocoder struct{}

func (namingGeocoder) Search(ctx context.Context, query string) ([]models.Location, error) {
	return nil, nil
}

func (namingGeocoder) Reverse(ctx context.Context, lat, lon float64) (models.Location, error) {
	return models.Location{Latitude: lat, Longitude: lon, DisplayName: "Lisbon", CountryCode: "Portugal"}, nil
}

func newTestManager(t *testing.T, store storage.Store) (*Manager, *countingFetcher) {
	t.Helper()
	f := &countingFetcher{}
	m := NewManager(f, geo.NewService(zap.NewNop(), namingGeocoder{}), store, Options{
		DefaultUnits:       models.Metric,
		GeolocationTimeout: time.Second,
	}, zap.NewNop())
	t.Cleanup(m.Close)
	return m, f
}

func waitReady(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("session never became ready")
	}
}

func TestCreateResolvesLocation(t *testing.T) {
	m, f := newTestManager(t, nil)

	sess, err := m.Create(context.Background(), geo.Fixed(38.72, -9.14))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := uuid.Parse(sess.ID); err != nil {
		t.Errorf("session id %q is not a uuid", sess.ID)
	}
	waitReady(t, sess)

	st := sess.Store.Snapshot()
	if st.Location == nil || st.Location.DisplayName != "Lisbon" {
		t.Fatalf("location = %+v", st.Location)
	}
	if st.Error != "" || st.Loading {
		t.Errorf("state = %+v", st)
	}
	if f.count("Lisbon") != 1 {
		t.Errorf("fetches = %d, want 1", f.count("Lisbon"))
	}
}

func TestCreateRejectedFallsBack(t *testing.T) {
	tests := []struct {
		name string
		src  geo.PositionSource
	}{
		{"denied", geo.Unavailable(errors.New("permission denied"))},
		{"unsupported", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t, nil)
			sess, err := m.Create(context.Background(), tt.src)
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			waitReady(t, sess)

			st := sess.Store.Snapshot()
			if st.Location == nil || st.Location.Latitude != models.DefaultLocation.Latitude {
				t.Fatalf("location = %+v, want default", st.Location)
			}
			if !strings.HasPrefix(st.Error, "unable to get your location") {
				t.Errorf("error = %q", st.Error)
			}
			if st.Current == nil {
				t.Error("default location was not fetched")
			}
		})
	}
}

func TestGetUnknownSession(t *testing.T) {
	m, _ := newTestManager(t, nil)
	if _, err := m.Get(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
	}
	if err := m.Delete(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Delete() error = %v, want ErrSessionNotFound", err)
	}
}

func TestPersistAndRestore(t *testing.T) {
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "sessions.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	m, _ := newTestManager(t, store)
	sess, _ := m.Create(ctx, geo.Fixed(38.72, -9.14))
	waitReady(t, sess)

	tokyo := models.Location{Latitude: 35.68, Longitude: 139.69, DisplayName: "Tokyo", CountryCode: "Japan"}
	if _, err := m.SetLocation(ctx, sess.ID, tokyo); err != nil {
		t.Fatalf("SetLocation() error: %v", err)
	}
	if _, err := m.ToggleUnits(ctx, sess.ID); err != nil {
		t.Fatalf("ToggleUnits() error: %v", err)
	}

	restored, f := newTestManager(t, store)
	n, err := restored.Restore(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Restore() = %d, %v", n, err)
	}
	if f.count("Tokyo") != 0 {
		t.Error("restore should not fetch eagerly")
	}

	got, err := restored.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	st := got.Store.Snapshot()
	if st.Location == nil || *st.Location != tokyo || st.Units != models.Imperial {
		t.Errorf("restored state = %+v", st)
	}
	if st.Current == nil || f.count("Tokyo") != 1 {
		t.Errorf("lazy refresh did not run: fetches = %d", f.count("Tokyo"))
	}

	restored.Get(ctx, sess.ID)
	if f.count("Tokyo") != 1 {
		t.Errorf("second read refetched: fetches = %d", f.count("Tokyo"))
	}

	if err := restored.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Load(ctx, sess.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("preferences survived delete: %v", err)
	}
}

func TestRefreshAll(t *testing.T) {
	m, f := newTestManager(t, nil)
	ctx := context.Background()

	a, _ := m.Create(ctx, geo.Fixed(1, 2))
	waitReady(t, a)
	b, _ := m.Create(ctx, geo.Unavailable(nil))
	waitReady(t, b)

	n, err := m.RefreshAll(ctx)
	if err != nil {
		t.Fatalf("RefreshAll() error: %v", err)
	}
	if n != 2 || m.Count() != 2 {
		t.Errorf("refreshed %d of %d sessions", n, m.Count())
	}
	if f.count("Lisbon") != 2 {
		t.Errorf("Lisbon fetches = %d, want 2", f.count("Lisbon"))
	}
}

func TestDeleteStopsPendingGeolocation(t *testing.T) {
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "sessions.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	release := make(chan struct{})
	slowPosition := geo.PositionFunc(func(context.Context) (float64, float64, error) {
		<-release
		return 38.72, -9.14, nil
	})

	m, f := newTestManager(t, store)
	sess, err := m.Create(ctx, slowPosition)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := m.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	close(release)
	waitReady(t, sess)

	prefs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(prefs) != 0 {
		t.Errorf("deleted session was saved again: %+v", prefs)
	}
	if n := f.count("Lisbon"); n != 0 {
		t.Errorf("deleted session fetched weather %d times", n)
	}
	if st := sess.Store.Snapshot(); st.Location != nil {
		t.Errorf("deleted session got location %+v", st.Location)
	}
}
