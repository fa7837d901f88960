package quota

import (
	"log/slog"
	"time"
)

// Tracker decides, per caller and instant, whether a request may proceed,
// and charges accepted requests against the caller's daily budget.
//
// The tracker enforces three limits, checked in this order:
//
//  1. Short-window request count (burst control)
//  2. Daily request count
//  3. Daily estimated cost
//
// Windows are fixed-size and floor-aligned: a window starting at
// floor(now/size)*size rolls over exactly on the boundary, for every caller
// at once. Rollovers are persisted even on rejected calls so stale windows
// get cleared without waiting for an accepted request.
type Tracker struct {
	config  Config
	store   *Store
	metrics *Metrics
	logger  *slog.Logger
}

// NewTracker creates a tracker over the given store.
// A nil store gets a fresh empty one; metrics may be nil to disable them.
func NewTracker(config Config, store *Store, metrics *Metrics, logger *slog.Logger) *Tracker {
	if store == nil {
		store = NewStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		config:  config,
		store:   store,
		metrics: metrics,
		logger:  logger.With("component", "quota"),
	}
}

// Config returns the tracker's configuration.
func (t *Tracker) Config() Config {
	return t.config
}

// alignedStart floor-aligns t to the window size.
func alignedStart(t time.Time, window time.Duration) time.Time {
	ms := window.Milliseconds()
	return time.UnixMilli(t.UnixMilli() / ms * ms)
}

// Evaluate decides whether a request from callerID at the given instant may
// proceed. On acceptance the caller's counters are incremented and the
// estimated cost charged; on rejection only window rollovers are persisted.
// Evaluate never fails: every call returns a Decision.
func (t *Tracker) Evaluate(callerID string, now time.Time) Decision {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	rec := t.store.getOrCreate(callerID)

	shortWindow := t.config.ShortWindow
	dailyWindow := t.config.dailyWindow()

	windowStart := alignedStart(now, shortWindow)
	dailyStart := alignedStart(now, dailyWindow)

	// Window rollovers persist even when the call is ultimately rejected.
	if windowStart.After(rec.WindowStart) {
		rec.WindowStart = windowStart
		rec.WindowRequests = 0
	}
	if dailyStart.After(rec.DailyStart) {
		rec.DailyStart = dailyStart
		rec.DailyRequests = 0
		rec.DailyCostCents = 0
	}

	if rec.WindowRequests >= t.config.ShortWindowMax {
		retryAfter := windowStart.Add(shortWindow).Sub(now)
		return t.reject(rec, Decision{
			Reason:         ReasonBurstLimit,
			RetryAfter:     retryAfter,
			DailyRemaining: t.config.DailyMax - rec.DailyRequests,
		})
	}

	if rec.DailyRequests >= t.config.DailyMax {
		return t.reject(rec, Decision{
			Reason:          ReasonDailyRequestLimit,
			WindowRemaining: t.config.ShortWindowMax - rec.WindowRequests,
		})
	}

	if rec.DailyCostCents+t.config.EstimatedCostCents > t.config.DailyCostLimitCents {
		return t.reject(rec, Decision{
			Reason:          ReasonDailyCostLimit,
			WindowRemaining: t.config.ShortWindowMax - rec.WindowRequests,
			DailyRemaining:  t.config.DailyMax - rec.DailyRequests,
		})
	}

	rec.WindowRequests++
	rec.DailyRequests++
	rec.DailyCostCents += t.config.EstimatedCostCents

	if t.metrics != nil {
		t.metrics.RecordDecision(true, "")
		t.metrics.SetTrackedCallers(len(t.store.records))
	}

	return Decision{
		Allowed:         true,
		WindowRemaining: t.config.ShortWindowMax - rec.WindowRequests,
		DailyRemaining:  t.config.DailyMax - rec.DailyRequests,
	}
}

// reject finalizes a rejection decision. Caller must hold the store lock.
func (t *Tracker) reject(rec *UsageRecord, d Decision) Decision {
	if t.metrics != nil {
		t.metrics.RecordDecision(false, d.Reason)
	}
	t.logger.Debug("request rejected",
		"caller", rec.CallerID,
		"reason", string(d.Reason),
		"retry_after", d.RetryAfter,
	)
	return d
}

// Sweep removes records whose short window AND daily window both started
// before now minus the retention period, and returns how many were removed.
// It holds the same lock as Evaluate, so it is safe to run concurrently with
// request handling.
func (t *Tracker) Sweep(now time.Time, retention time.Duration) int {
	cutoff := now.Add(-retention)

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	removed := 0
	for key, rec := range t.store.records {
		if rec.WindowStart.Before(cutoff) && rec.DailyStart.Before(cutoff) {
			delete(t.store.records, key)
			removed++
		}
	}

	if t.metrics != nil {
		t.metrics.RecordSweep(removed)
		t.metrics.SetTrackedCallers(len(t.store.records))
	}
	if removed > 0 {
		t.logger.Info("swept stale caller records",
			"removed", removed,
			"remaining", len(t.store.records),
		)
	}
	return removed
}

// Status returns a read-only snapshot of a caller's quota state at the given
// instant. It never mutates the store and never creates a record: repeated
// calls without an intervening Evaluate return identical results. Counters
// from windows that have already rolled over are reported as zero, matching
// what Evaluate would see.
func (t *Tracker) Status(callerID string, now time.Time) StatusSnapshot {
	shortWindow := t.config.ShortWindow
	dailyWindow := t.config.dailyWindow()

	windowStart := alignedStart(now, shortWindow)
	dailyStart := alignedStart(now, dailyWindow)

	snap := StatusSnapshot{
		CallerID:            bucketKey(callerID),
		WindowMax:           t.config.ShortWindowMax,
		WindowResets:        windowStart.Add(shortWindow).Sub(now),
		DailyMax:            t.config.DailyMax,
		DailyCostLimitCents: t.config.DailyCostLimitCents,
		DailyResets:         dailyStart.Add(dailyWindow).Sub(now),
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	rec, ok := t.store.get(callerID)
	if !ok {
		return snap
	}

	if !windowStart.After(rec.WindowStart) {
		snap.WindowRequests = rec.WindowRequests
	}
	if !dailyStart.After(rec.DailyStart) {
		snap.DailyRequests = rec.DailyRequests
		snap.DailyCostCents = rec.DailyCostCents
	}
	return snap
}
