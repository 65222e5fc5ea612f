// Package session tracks dashboard sessions, one dashboard.Store per viewer.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/dashboard"
	"github.com/bobby-s-dev/weather-dashboard/internal/geo"
	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"github.com/bobby-s-dev/weather-dashboard/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")

	errGeolocationUnsupported = errors.New("geolocation is not supported by this client")
)

type Session struct {
	ID        string
	CreatedAt time.Time
	Store     *dashboard.Store

	ctx     context.Context
	cancel  context.CancelFunc
	ready   chan struct{}
	pending atomic.Bool
}

// Ready is closed once the initial location has been settled.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

type Options struct {
	DefaultUnits       models.UnitSystem
	GeolocationTimeout time.Duration
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	fetcher dashboard.Fetcher
	geo     *geo.Service
	store   storage.Store
	opts    Options
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a Manager. store may be nil, in which case preferences
// live only in memory.
func NewManager(fetcher dashboard.Fetcher, geoService *geo.Service, store storage.Store, opts Options, logger *zap.Logger) *Manager {
	if opts.DefaultUnits == "" {
		opts.DefaultUnits = models.Metric
	}
	if opts.GeolocationTimeout <= 0 {
		opts.GeolocationTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions: make(map[string]*Session),
		fetcher:  fetcher,
		geo:      geoService,
		store:    store,
		opts:     opts,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// newSession builds a session whose background work stops when the session
// is deleted or the manager closes.
func (m *Manager) newSession(id string) *Session {
	ctx, cancel := context.WithCancel(m.ctx)
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		Store:     dashboard.NewStore(m.fetcher, m.opts.DefaultUnits, m.logger.With(zap.String("session_id", id))),
		ctx:       ctx,
		cancel:    cancel,
		ready:     make(chan struct{}),
	}
}

// Create starts a session and acquires its location in the background. A nil
// src behaves like a client without geolocation support. When the position is
// rejected the session falls back to the default location and keeps the error.
func (m *Manager) Create(ctx context.Context, src geo.PositionSource) (*Session, error) {
	if err := m.ctx.Err(); err != nil {
		return nil, fmt.Errorf("session manager closed: %w", err)
	}
	if src == nil {
		src = geo.Unavailable(errGeolocationUnsupported)
	}

	sess := m.newSession(uuid.NewString())
	sess.Store.Begin()

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	m.persist(ctx, sess)
	m.logger.Info("Session created", zap.String("session_id", sess.ID))

	outcomes := m.geo.Acquire(sess.ctx, src, m.opts.GeolocationTimeout)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(sess.ready)
		m.settle(sess, outcomes)
	}()

	return sess, nil
}

func (m *Manager) settle(sess *Session, outcomes <-chan geo.Outcome) {
	outcome, ok := <-outcomes
	if !ok || sess.ctx.Err() != nil {
		return
	}

	switch outcome.Kind {
	case geo.Resolved:
		if err := sess.Store.SetLocation(sess.ctx, outcome.Location); err != nil {
			m.logger.Warn("Initial refresh failed",
				zap.String("session_id", sess.ID),
				zap.Error(err))
		}
	case geo.Rejected:
		if err := sess.Store.SetLocation(sess.ctx, models.DefaultLocation); err != nil {
			m.logger.Warn("Initial refresh failed",
				zap.String("session_id", sess.ID),
				zap.Error(err))
		}
		sess.Store.Fail(outcome.Err)
	}
	m.persist(sess.ctx, sess)
}

// Get returns a session. Sessions restored from storage refresh on first read.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}

	if sess.pending.CompareAndSwap(true, false) {
		if err := sess.Store.Refresh(ctx); err != nil && !errors.Is(err, dashboard.ErrNoLocation) {
			m.logger.Warn("Lazy refresh failed",
				zap.String("session_id", id),
				zap.Error(err))
		}
	}
	return sess, nil
}

func (m *Manager) SetLocation(ctx context.Context, id string, loc models.Location) (*Session, error) {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.Store.SetLocation(ctx, loc); err != nil {
		return nil, err
	}
	m.persist(ctx, sess)
	return sess, nil
}

func (m *Manager) ToggleUnits(ctx context.Context, id string) (*Session, error) {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Store.ToggleUnits(ctx); err != nil {
		return nil, err
	}
	m.persist(ctx, sess)
	return sess, nil
}

// Refresh drops cached data for the session's location and refetches.
func (m *Manager) Refresh(ctx context.Context, id string) (*Session, error) {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.Store.Reload(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.cancel()
	if m.store != nil {
		if err := m.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete preferences: %w", err)
		}
	}
	m.logger.Info("Session deleted", zap.String("session_id", id))
	return nil
}

// RefreshAll refreshes every session that has a location and returns how
// many succeeded.
func (m *Manager) RefreshAll(ctx context.Context) (int, error) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.RUnlock()

	var (
		refreshed int
		errs      []error
	)
	for _, sess := range sessions {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		err := sess.Store.Refresh(ctx)
		switch {
		case err == nil:
			sess.pending.Store(false)
			refreshed++
		case errors.Is(err, dashboard.ErrNoLocation):
		default:
			errs = append(errs, fmt.Errorf("session %s: %w", sess.ID, err))
		}
	}
	return refreshed, errors.Join(errs...)
}

// Restore loads persisted sessions. They are refreshed lazily.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}
	prefs, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to restore sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range prefs {
		if _, exists := m.sessions[p.SessionID]; exists {
			continue
		}
		sess := m.newSession(p.SessionID)
		sess.Store.Restore(p.Location, p.Units)
		sess.pending.Store(p.Location != nil)
		close(sess.ready)
		m.sessions[sess.ID] = sess
	}

	m.logger.Info("Sessions restored", zap.Int("count", len(prefs)))
	return len(prefs), nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops background acquisitions and waits for them to finish.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

// persist saves the session's preferences unless it has been deleted. The
// read lock is held through the save so Delete cannot interleave with it.
func (m *Manager) persist(ctx context.Context, sess *Session) {
	if m.store == nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sessions[sess.ID] != sess {
		m.logger.Debug("Skipping persist for deleted session",
			zap.String("session_id", sess.ID))
		return
	}

	st := sess.Store.Snapshot()
	err := m.store.Save(ctx, storage.Preferences{
		SessionID: sess.ID,
		Location:  st.Location,
		Units:     st.Units,
	})
	if err != nil {
		m.logger.Warn("Failed to persist session preferences",
			zap.String("session_id", sess.ID),
			zap.Error(err))
	}
}
