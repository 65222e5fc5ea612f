package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher refreshes every active dashboard. *session.Manager satisfies it.
type Refresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

type Scheduler struct {
	refresher Refresher
	logger    *zap.Logger
	interval  time.Duration
	timeout   time.Duration
	cron      *cron.Cron
	entryID   cron.EntryID

	mu            sync.Mutex
	runMu         sync.Mutex
	running       bool
	lastRun       time.Time
	lastRefreshed int
	lastErr       error
}

func NewScheduler(refresher Refresher, interval time.Duration, logger *zap.Logger) *Scheduler {
	cronLog := cronLogger{logger.Sugar()}
	return &Scheduler{
		refresher: refresher,
		logger:    logger,
		interval:  interval,
		timeout:   60 * time.Second,
		cron: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.interval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	id, err := s.cron.AddFunc("@every "+s.interval.String(), s.runRefresh)
	if err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}
	s.entryID = id
	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval),
		zap.Time("next_run", s.cron.Entry(id).Next))
	return nil
}

func (s *Scheduler) runRefresh() {
	// SkipIfStillRunning only guards cron ticks; this also covers ForceRun.
	if !s.runMu.TryLock() {
		s.logger.Debug("Skipping refresh, previous run still in progress")
		return
	}
	defer s.runMu.Unlock()

	startTime := time.Now()
	s.logger.Info("Starting scheduled dashboard refresh", zap.Time("start_time", startTime))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	refreshed, err := s.refresher.RefreshAll(ctx)

	s.mu.Lock()
	s.lastRun = startTime
	s.lastRefreshed = refreshed
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled refresh finished with errors",
			zap.Int("refreshed", refreshed),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)))
		return
	}
	s.logger.Info("Scheduled refresh completed",
		zap.Int("refreshed", refreshed),
		zap.Duration("duration", time.Since(startTime)))
}

// Stop halts the schedule and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) ForceRun() {
	s.logger.Info("Manually triggering dashboard refresh")
	go s.runRefresh()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":        s.running,
		"interval":       s.interval.String(),
		"last_run":       s.lastRun,
		"last_refreshed": s.lastRefreshed,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	if s.lastErr != nil {
		status["last_error"] = s.lastErr.Error()
	}
	return status
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
