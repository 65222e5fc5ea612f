package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "prefs.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	p := Preferences{
		SessionID: "s1",
		Location:  &models.Location{Latitude: 48.8566, Longitude: 2.3522, DisplayName: "Paris", CountryCode: "France"},
		Units:     models.Imperial,
		UpdatedAt: now,
	}
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Location == nil || *got.Location != *p.Location {
		t.Errorf("location = %+v, want %+v", got.Location, p.Location)
	}
	if got.Units != models.Imperial || !got.UpdatedAt.Equal(now) {
		t.Errorf("units = %s, updated_at = %v", got.Units, got.UpdatedAt)
	}
}

func TestSaveWithoutLocation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, Preferences{SessionID: "s2", Units: models.Metric}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load(ctx, "s2")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Location != nil {
		t.Errorf("location = %+v, want nil", got.Location)
	}
}

func TestSaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Save(ctx, Preferences{SessionID: "s1", Units: models.Metric})
	s.Save(ctx, Preferences{SessionID: "s1", Units: models.Imperial, Location: &models.DefaultLocation})

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List returned %d rows, want 1", len(list))
	}
	if list[0].Units != models.Imperial || list[0].Location == nil {
		t.Errorf("row = %+v", list[0])
	}
}

func TestLoadMissingAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Load(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}

	s.Save(ctx, Preferences{SessionID: "gone", Units: models.Metric})
	if err := s.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after Delete error = %v, want ErrNotFound", err)
	}
}
