package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/parable-systems/shepherd/pkg/intent"
)

var base = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

func newEvent(callerID string, label intent.Label, at time.Time) *UsageEvent {
	return &UsageEvent{
		ID:               uuid.NewString(),
		CallerID:         callerID,
		Label:            label,
		CostCents:        1,
		PromptTokens:     12,
		CompletionTokens: 34,
		CreatedAt:        at,
	}
}

// journalFactories lets the same suite run against both backends.
func journalFactories(t *testing.T) map[string]func(t *testing.T) Journal {
	t.Helper()
	return map[string]func(t *testing.T) Journal{
		"memory": func(t *testing.T) Journal {
			return NewMemoryJournal()
		},
		"sqlite": func(t *testing.T) Journal {
			j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "usage.db"))
			if err != nil {
				t.Fatalf("NewSQLiteJournal() error = %v", err)
			}
			return j
		},
	}
}

// ============================================================================
// Append and Recent
// ============================================================================

func TestJournal_AppendAndRecent(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				event := newEvent("alice", intent.LabelPrayer, base.Add(time.Duration(i)*time.Minute))
				if err := j.Append(ctx, event); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}
			if err := j.Append(ctx, newEvent("bob", intent.LabelPractical, base)); err != nil {
				t.Fatalf("Append() error = %v", err)
			}

			events, err := j.Recent(ctx, "alice", 10)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if len(events) != 3 {
				t.Fatalf("Recent(alice) returned %d events, want 3", len(events))
			}
			// Newest first
			if !events[0].CreatedAt.After(events[1].CreatedAt) {
				t.Errorf("events not ordered newest first: %v, %v", events[0].CreatedAt, events[1].CreatedAt)
			}
			if events[0].Label != intent.LabelPrayer {
				t.Errorf("Label = %q, want %q", events[0].Label, intent.LabelPrayer)
			}

			all, err := j.Recent(ctx, "", 10)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if len(all) != 4 {
				t.Errorf("Recent(all) returned %d events, want 4", len(all))
			}
		})
	}
}

func TestJournal_RecentHonorsLimit(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				if err := j.Append(ctx, newEvent("alice", intent.LabelConversational, base.Add(time.Duration(i)*time.Second))); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}

			events, err := j.Recent(ctx, "alice", 2)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if len(events) != 2 {
				t.Errorf("Recent() returned %d events, want 2", len(events))
			}
		})
	}
}

func TestJournal_AppendRejectsInvalidEvents(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()
			ctx := context.Background()

			if err := j.Append(ctx, nil); err == nil {
				t.Error("Append(nil) succeeded, want error")
			}
			if err := j.Append(ctx, &UsageEvent{CallerID: "alice"}); err == nil {
				t.Error("Append(no ID) succeeded, want error")
			}
		})
	}
}

// ============================================================================
// Summarize
// ============================================================================

func TestJournal_Summarize(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()
			ctx := context.Background()

			// Two prayer events and one practical for alice inside the range,
			// one alice event before it, plus noise from bob.
			for i := 0; i < 2; i++ {
				if err := j.Append(ctx, newEvent("alice", intent.LabelPrayer, base.Add(time.Duration(i)*time.Minute))); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}
			if err := j.Append(ctx, newEvent("alice", intent.LabelPractical, base.Add(5*time.Minute))); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if err := j.Append(ctx, newEvent("alice", intent.LabelPrayer, base.Add(-1*time.Hour))); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if err := j.Append(ctx, newEvent("bob", intent.LabelPrayer, base)); err != nil {
				t.Fatalf("Append() error = %v", err)
			}

			summary, err := j.Summarize(ctx, "alice", base)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			if summary.CallerID != "alice" {
				t.Errorf("CallerID = %q, want %q", summary.CallerID, "alice")
			}
			if summary.Requests != 3 {
				t.Errorf("Requests = %d, want 3", summary.Requests)
			}
			if summary.CostCents != 3 {
				t.Errorf("CostCents = %d, want 3", summary.CostCents)
			}
			if summary.PromptTokens != 36 || summary.CompletionTokens != 102 {
				t.Errorf("tokens = %d/%d, want 36/102", summary.PromptTokens, summary.CompletionTokens)
			}
			if summary.ByLabel[intent.LabelPrayer] != 2 {
				t.Errorf("ByLabel[prayer] = %d, want 2", summary.ByLabel[intent.LabelPrayer])
			}
			if summary.ByLabel[intent.LabelPractical] != 1 {
				t.Errorf("ByLabel[practical] = %d, want 1", summary.ByLabel[intent.LabelPractical])
			}
		})
	}
}

func TestJournal_SummarizeUnknownCaller(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()
			ctx := context.Background()

			summary, err := j.Summarize(ctx, "nobody", base)
			if err != nil {
				t.Fatalf("Summarize() error = %v", err)
			}
			if summary.Requests != 0 || summary.CostCents != 0 {
				t.Errorf("expected zero summary, got %+v", summary)
			}

			if _, err := j.Summarize(ctx, "", base); err == nil {
				t.Error("Summarize(empty caller) succeeded, want error")
			}
		})
	}
}

// ============================================================================
// Purge
// ============================================================================

func TestJournal_PurgeRemovesOldEvents(t *testing.T) {
	for name, factory := range journalFactories(t) {
		t.Run(name, func(t *testing.T) {
			j := factory(t)
			defer j.Close()
			ctx := context.Background()

			old := newEvent("alice", intent.LabelPrayer, base.Add(-72*time.Hour))
			fresh := newEvent("alice", intent.LabelPrayer, base)
			if err := j.Append(ctx, old); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if err := j.Append(ctx, fresh); err != nil {
				t.Fatalf("Append() error = %v", err)
			}

			removed, err := j.Purge(ctx, base.Add(-48*time.Hour))
			if err != nil {
				t.Fatalf("Purge() error = %v", err)
			}
			if removed != 1 {
				t.Errorf("Purge() removed %d, want 1", removed)
			}

			events, err := j.Recent(ctx, "alice", 10)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			if len(events) != 1 || events[0].ID != fresh.ID {
				t.Errorf("expected only the fresh event to survive, got %d events", len(events))
			}
		})
	}
}

// ============================================================================
// SQLite specifics
// ============================================================================

func TestSQLiteJournal_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	ctx := context.Background()

	j, err := NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("NewSQLiteJournal() error = %v", err)
	}
	event := newEvent("alice", intent.LabelInformational, base)
	if err := j.Append(ctx, event); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteJournal(path)
	if err != nil {
		t.Fatalf("NewSQLiteJournal() reopen error = %v", err)
	}
	defer reopened.Close()

	events, err := reopened.Recent(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != event.ID {
		t.Fatalf("expected persisted event after reopen, got %d events", len(events))
	}
	if !events[0].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", events[0].CreatedAt, base)
	}
}

func TestSQLiteJournal_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteJournal(""); err == nil {
		t.Fatal("expected error for empty path, got nil")
	}
}

func TestSQLiteJournal_CloseIsIdempotent(t *testing.T) {
	j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("NewSQLiteJournal() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
