// Package quota enforces per-caller rate and cost limits for chat requests.
//
// # Overview
//
// The quota package tracks each caller's usage across two fixed, floor-aligned
// time windows - a short burst window and a daily window - plus an estimated
// daily cost budget. Every request is evaluated against all three limits in a
// fixed precedence order:
//
//  1. BURST_LIMIT - short-window request count (carries a retry-after hint)
//  2. DAILY_REQUEST_LIMIT - daily request count
//  3. DAILY_COST_LIMIT - daily estimated cost
//
// # Usage
//
//	tracker := quota.NewTracker(cfg, quota.NewStore(), quota.NewMetrics(), logger)
//
//	decision := tracker.Evaluate(callerID, time.Now())
//	if !decision.Allowed {
//	    // Map decision.Reason to an HTTP response
//	}
//
// A Sweeper removes stale caller records on a cron schedule:
//
//	sweeper := quota.NewSweeper(tracker, "0 * * * *", 48*time.Hour, logger)
//	sweeper.Start()
//	defer sweeper.Stop()
//
// # Thread Safety
//
// The store's single mutex makes Evaluate a complete critical section per
// call; Sweep and Status take the same lock, so counts can never exceed
// their limits and no record disappears mid-evaluation.
package quota
