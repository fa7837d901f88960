package storage

import (
	"context"
	"time"

	"github.com/parable-systems/shepherd/pkg/intent"
)

// UsageEvent records one accepted chat request for offline analysis.
// The journal is write-mostly: nothing on the request path reads it, and
// quota decisions never consult it.
type UsageEvent struct {
	// ID is a unique event identifier.
	ID string

	// CallerID is the caller the request was attributed to.
	CallerID string

	// Label is the intent label assigned to the message.
	Label intent.Label

	// CostCents is the estimated cost charged against the caller's budget.
	CostCents int64

	// PromptTokens and CompletionTokens are the upstream token counts,
	// zero when the upstream call failed.
	PromptTokens     int
	CompletionTokens int

	// CreatedAt is when the request was accepted.
	CreatedAt time.Time
}

// UsageSummary aggregates a caller's events since a point in time. It is the
// operator-facing view of the journal; the quota tracker keeps its own
// counters and never reads this.
type UsageSummary struct {
	// CallerID is the caller the summary covers.
	CallerID string

	// Requests is the number of events in the range.
	Requests int

	// CostCents is the total estimated cost charged in the range.
	CostCents int64

	// PromptTokens and CompletionTokens are totals across the range.
	PromptTokens     int
	CompletionTokens int

	// ByLabel counts events per intent label.
	ByLabel map[intent.Label]int
}

// Journal persists usage events.
//
// Implementations must be safe for concurrent use.
type Journal interface {
	// Append records a usage event.
	Append(ctx context.Context, event *UsageEvent) error

	// Recent returns up to limit events for a caller, newest first.
	// An empty callerID returns events for all callers.
	Recent(ctx context.Context, callerID string, limit int) ([]*UsageEvent, error)

	// Summarize aggregates a caller's events created at or after since.
	Summarize(ctx context.Context, callerID string, since time.Time) (*UsageSummary, error)

	// Purge removes events created before the cutoff and returns the
	// number removed.
	Purge(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases any resources held by the journal.
	Close() error
}
