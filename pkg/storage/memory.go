package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parable-systems/shepherd/pkg/intent"
)

// MemoryJournal implements Journal with an in-memory slice.
// Events are lost on restart. Suitable for development and tests.
type MemoryJournal struct {
	mu     sync.RWMutex
	events []*UsageEvent
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append records a usage event.
func (j *MemoryJournal) Append(ctx context.Context, event *UsageEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.ID == "" {
		return fmt.Errorf("event ID cannot be empty")
	}

	stored := *event

	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, &stored)
	return nil
}

// Recent returns up to limit events for a caller, newest first.
func (j *MemoryJournal) Recent(ctx context.Context, callerID string, limit int) ([]*UsageEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []*UsageEvent
	for i := len(j.events) - 1; i >= 0 && len(result) < limit; i-- {
		if callerID != "" && j.events[i].CallerID != callerID {
			continue
		}
		event := *j.events[i]
		result = append(result, &event)
	}
	return result, nil
}

// Summarize aggregates a caller's events created at or after since.
func (j *MemoryJournal) Summarize(ctx context.Context, callerID string, since time.Time) (*UsageSummary, error) {
	if callerID == "" {
		return nil, fmt.Errorf("caller ID cannot be empty")
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	summary := &UsageSummary{
		CallerID: callerID,
		ByLabel:  make(map[intent.Label]int),
	}
	for _, event := range j.events {
		if event.CallerID != callerID || event.CreatedAt.Before(since) {
			continue
		}
		summary.Requests++
		summary.CostCents += event.CostCents
		summary.PromptTokens += event.PromptTokens
		summary.CompletionTokens += event.CompletionTokens
		summary.ByLabel[event.Label]++
	}
	return summary, nil
}

// Purge removes events created before the cutoff.
func (j *MemoryJournal) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	kept := j.events[:0]
	removed := 0
	for _, event := range j.events {
		if event.CreatedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, event)
	}
	j.events = kept
	return removed, nil
}

// Close is a no-op for the in-memory journal.
func (j *MemoryJournal) Close() error {
	return nil
}
