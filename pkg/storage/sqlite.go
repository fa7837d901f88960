package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/parable-systems/shepherd/pkg/intent"
)

// SQLiteJournal implements Journal using SQLite.
// It uses a write-ahead log (WAL) for better concurrent performance and is
// suitable for single-instance deployments.
type SQLiteJournal struct {
	db        *sql.DB
	mu        sync.RWMutex
	closeOnce sync.Once

	appendStmt *sql.Stmt
	purgeStmt  *sql.Stmt
}

// NewSQLiteJournal opens (creating if necessary) a SQLite journal at path.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &SQLiteJournal{db: db}

	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := j.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return j, nil
}

// initSchema creates the database schema if it doesn't exist.
func (j *SQLiteJournal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_events (
		id TEXT PRIMARY KEY,
		caller_id TEXT NOT NULL,
		label TEXT NOT NULL,
		cost_cents INTEGER NOT NULL,
		prompt_tokens INTEGER NOT NULL,
		completion_tokens INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_caller ON usage_events(caller_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_usage_created ON usage_events(created_at);
	`

	_, err := j.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (j *SQLiteJournal) prepareStatements() error {
	var err error

	j.appendStmt, err = j.db.Prepare(`
		INSERT INTO usage_events (id, caller_id, label, cost_cents, prompt_tokens, completion_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare append statement: %w", err)
	}

	j.purgeStmt, err = j.db.Prepare(`
		DELETE FROM usage_events
		WHERE created_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare purge statement: %w", err)
	}

	return nil
}

// Append records a usage event.
func (j *SQLiteJournal) Append(ctx context.Context, event *UsageEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.ID == "" {
		return fmt.Errorf("event ID cannot be empty")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.appendStmt.ExecContext(ctx,
		event.ID,
		event.CallerID,
		string(event.Label),
		event.CostCents,
		event.PromptTokens,
		event.CompletionTokens,
		event.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Recent returns up to limit events for a caller, newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, callerID string, limit int) ([]*UsageEvent, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	query := `
		SELECT id, caller_id, label, cost_cents, prompt_tokens, completion_tokens, created_at
		FROM usage_events
	`
	args := []any{}
	if callerID != "" {
		query += " WHERE caller_id = ?"
		args = append(args, callerID)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*UsageEvent
	for rows.Next() {
		var (
			event     UsageEvent
			label     string
			createdAt int64
		)
		if err := rows.Scan(&event.ID, &event.CallerID, &label, &event.CostCents,
			&event.PromptTokens, &event.CompletionTokens, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		event.Label = intent.Label(label)
		event.CreatedAt = time.UnixMilli(createdAt)
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

// Summarize aggregates a caller's events created at or after since.
func (j *SQLiteJournal) Summarize(ctx context.Context, callerID string, since time.Time) (*UsageSummary, error) {
	if callerID == "" {
		return nil, fmt.Errorf("caller ID cannot be empty")
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	summary := &UsageSummary{
		CallerID: callerID,
		ByLabel:  make(map[intent.Label]int),
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT label, COUNT(*), COALESCE(SUM(cost_cents), 0),
		       COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(completion_tokens), 0)
		FROM usage_events
		WHERE caller_id = ? AND created_at >= ?
		GROUP BY label
	`, callerID, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			label            string
			count            int
			cost             int64
			prompt, complete int
		)
		if err := rows.Scan(&label, &count, &cost, &prompt, &complete); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summary.Requests += count
		summary.CostCents += cost
		summary.PromptTokens += prompt
		summary.CompletionTokens += complete
		summary.ByLabel[intent.Label(label)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating summary rows: %w", err)
	}

	return summary, nil
}

// Purge removes events created before the cutoff.
func (j *SQLiteJournal) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	result, err := j.purgeStmt.ExecContext(ctx, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(removed), nil
}

// Close releases database resources. Close is idempotent.
func (j *SQLiteJournal) Close() error {
	var closeErr error

	j.closeOnce.Do(func() {
		if j.appendStmt != nil {
			j.appendStmt.Close()
		}
		if j.purgeStmt != nil {
			j.purgeStmt.Close()
		}
		if j.db != nil {
			_, _ = j.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = j.db.Close()
		}
	})

	return closeErr
}
