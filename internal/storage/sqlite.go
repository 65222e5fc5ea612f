// Package storage persists dashboard session preferences in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("preferences not found")

// Preferences is what survives a restart: the selected place and unit system.
type Preferences struct {
	SessionID string
	Location  *models.Location
	Units     models.UnitSystem
	UpdatedAt time.Time
}

// Store is the persistence surface the session manager uses.
type Store interface {
	Save(ctx context.Context, p Preferences) error
	Load(ctx context.Context, sessionID string) (Preferences, error)
	List(ctx context.Context) ([]Preferences, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

const schema = `CREATE TABLE IF NOT EXISTS preferences (
	session_id TEXT PRIMARY KEY,
	has_location INTEGER NOT NULL DEFAULT 0,
	lat REAL,
	lon REAL,
	name TEXT,
	country TEXT,
	units TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// NewSQLite opens or creates the database at path.
func NewSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn("Could not enable WAL mode", zap.Error(err))
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("Preference store opened", zap.String("path", path))
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, p Preferences) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	var (
		hasLocation   int
		lat, lon      sql.NullFloat64
		name, country sql.NullString
	)
	if p.Location != nil {
		hasLocation = 1
		lat = sql.NullFloat64{Float64: p.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: p.Location.Longitude, Valid: true}
		name = sql.NullString{String: p.Location.DisplayName, Valid: true}
		country = sql.NullString{String: p.Location.CountryCode, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO preferences(session_id, has_location, lat, lon, name, country, units, updated_at) VALUES(?,?,?,?,?,?,?,?)`,
		p.SessionID, hasLocation, lat, lon, name, country, string(p.Units), p.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save preferences for %s: %w", p.SessionID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (Preferences, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, has_location, lat, lon, name, country, units, updated_at FROM preferences WHERE session_id = ?`,
		sessionID)

	p, err := scanPreferences(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Preferences{}, ErrNotFound
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to load preferences for %s: %w", sessionID, err)
	}
	return p, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Preferences, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, has_location, lat, lon, name, country, units, updated_at FROM preferences ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	out := make([]Preferences, 0)
	for rows.Next() {
		p, err := scanPreferences(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE session_id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPreferences(sc scanner) (Preferences, error) {
	var (
		p             Preferences
		hasLocation   int
		lat, lon      sql.NullFloat64
		name, country sql.NullString
		units, ts     string
	)
	if err := sc.Scan(&p.SessionID, &hasLocation, &lat, &lon, &name, &country, &units, &ts); err != nil {
		return Preferences{}, err
	}

	p.Units = models.ParseUnitSystem(units)
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		p.UpdatedAt = t
	}
	if hasLocation == 1 {
		p.Location = &models.Location{
			Latitude:    lat.Float64,
			Longitude:   lon.Float64,
			DisplayName: name.String,
			CountryCode: country.String,
		}
	}
	return p, nil
}
