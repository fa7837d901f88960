package quota

import "time"

// Reason identifies why a request was rejected by the tracker.
type Reason string

const (
	// ReasonBurstLimit means the caller exhausted the short burst window.
	ReasonBurstLimit Reason = "BURST_LIMIT"

	// ReasonDailyRequestLimit means the caller exhausted the daily request allowance.
	ReasonDailyRequestLimit Reason = "DAILY_REQUEST_LIMIT"

	// ReasonDailyCostLimit means accepting the request would exceed the daily cost budget.
	ReasonDailyCostLimit Reason = "DAILY_COST_LIMIT"
)

// Config contains quota tracker configuration.
// All fields must be positive; Validate in pkg/config enforces this before
// the tracker is constructed.
type Config struct {
	// ShortWindow is the burst-control window duration (e.g., two minutes).
	ShortWindow time.Duration

	// ShortWindowMax is the maximum accepted requests per short window.
	ShortWindowMax int

	// DailyWindow is the daily window duration. Zero means 24h.
	DailyWindow time.Duration

	// DailyMax is the maximum accepted requests per daily window.
	DailyMax int

	// DailyCostLimitCents is the daily cost budget in cents.
	DailyCostLimitCents int64

	// EstimatedCostCents is the fixed cost charged per accepted request.
	EstimatedCostCents int64
}

// dailyWindow returns the configured daily window, defaulting to 24 hours.
func (c Config) dailyWindow() time.Duration {
	if c.DailyWindow > 0 {
		return c.DailyWindow
	}
	return 24 * time.Hour
}

// UsageRecord holds the tracked state for one caller identity.
// Window start times are always floor-aligned to their window size.
type UsageRecord struct {
	// CallerID is the bucket key. Anonymous callers share the key "anonymous".
	CallerID string

	// WindowStart marks the start of the current short burst window.
	WindowStart time.Time

	// WindowRequests counts requests accepted in the current short window.
	WindowRequests int

	// DailyStart marks the start of the current daily window.
	DailyStart time.Time

	// DailyRequests counts requests accepted in the current daily window.
	DailyRequests int

	// DailyCostCents accumulates estimated cost in the current daily window.
	DailyCostCents int64
}

// Decision is the outcome of evaluating one request against the quotas.
// A Decision is always returned; the tracker has no failure mode.
type Decision struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Reason explains the rejection when Allowed is false.
	Reason Reason

	// RetryAfter is the time remaining in the short window when the burst
	// limit was hit. Zero for daily rejections and for accepted requests.
	RetryAfter time.Duration

	// WindowRemaining is the number of requests left in the short window.
	WindowRemaining int

	// DailyRemaining is the number of requests left in the daily window.
	DailyRemaining int
}

// RetryAfterSeconds returns RetryAfter in whole seconds, rounded up, so a
// client that waits exactly that long always lands in the next window.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	secs := int(d.RetryAfter / time.Second)
	if d.RetryAfter%time.Second != 0 {
		secs++
	}
	return secs
}

// StatusSnapshot is a read-only projection of a caller's current quota state.
// It reflects what Evaluate would see at the given instant, including window
// rollovers, without mutating anything.
type StatusSnapshot struct {
	// CallerID is the bucket key the snapshot describes.
	CallerID string

	// WindowRequests and WindowMax describe the short window.
	WindowRequests int
	WindowMax      int

	// WindowResets is the time remaining until the short window rolls over.
	WindowResets time.Duration

	// DailyRequests and DailyMax describe the daily request allowance.
	DailyRequests int
	DailyMax      int

	// DailyCostCents and DailyCostLimitCents describe the daily budget.
	DailyCostCents      int64
	DailyCostLimitCents int64

	// DailyResets is the time remaining until the daily window rolls over.
	DailyResets time.Duration
}
