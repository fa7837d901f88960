package quota

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper runs the tracker's sweep on a cron schedule, independent of
// request handling.
type Sweeper struct {
	tracker   *Tracker
	schedule  string
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a sweeper for the given tracker.
//
// Common schedule expressions:
//   - "0 * * * *"   - Hourly on the hour
//   - "*/30 * * * *" - Every 30 minutes
func NewSweeper(tracker *Tracker, schedule string, retention time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		tracker:   tracker,
		schedule:  schedule,
		retention: retention,
		cron:      cron.New(),
		logger:    logger.With("component", "quota.sweeper"),
	}
}

// Start begins scheduled sweeping. An empty schedule disables the sweeper.
func (s *Sweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("sweeper already running")
	}
	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, s.runSweep)
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("sweeper started",
		"schedule", s.schedule,
		"retention", s.retention,
	)
	return nil
}

// Stop halts scheduled sweeping and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("sweeper stopped")
}

// runSweep performs one sweep at the current time.
func (s *Sweeper) runSweep() {
	start := time.Now()
	removed := s.tracker.Sweep(start, s.retention)
	s.logger.Debug("sweep completed",
		"removed", removed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
