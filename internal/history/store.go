// Package history keeps an optional local record of past report runs so
// consecutive runs over the same mailbox can be compared.
package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"mailscope.app/triage/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY,
	generated_at  TEXT NOT NULL,
	draft_model   TEXT NOT NULL,
	resolve_model TEXT NOT NULL,
	summary_model TEXT NOT NULL,
	thread_count  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_threads (
	run_id          INTEGER NOT NULL REFERENCES runs(id),
	thread_id       TEXT NOT NULL,
	issue_count     INTEGER NOT NULL,
	attention_count INTEGER NOT NULL,
	PRIMARY KEY (run_id, thread_id)
);
`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run-history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun appends one report run and its per-thread attention counts.
func (s *Store) RecordRun(ctx context.Context, runID int64, r report.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, generated_at, draft_model, resolve_model, summary_model, thread_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, r.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		r.Models.Draft, r.Models.Resolve, r.Models.Summary, len(r.Threads))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, t := range r.Threads {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_threads (run_id, thread_id, issue_count, attention_count)
			 VALUES (?, ?, ?, ?)`,
			runID, t.ThreadID, len(t.AllIssues), t.AttentionCount())
		if err != nil {
			return fmt.Errorf("insert run thread %s: %w", t.ThreadID, err)
		}
	}

	return tx.Commit()
}

// ThreadTrend is one thread's attention count in a past run.
type ThreadTrend struct {
	RunID          int64
	GeneratedAt    string
	AttentionCount int
}

// ThreadHistory returns the most recent runs mentioning the thread, newest
// first.
func (s *Store) ThreadHistory(ctx context.Context, threadID string, limit int) ([]ThreadTrend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.generated_at, rt.attention_count
		 FROM run_threads rt JOIN runs r ON r.id = rt.run_id
		 WHERE rt.thread_id = ?
		 ORDER BY r.id DESC LIMIT ?`,
		threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("query thread history: %w", err)
	}
	defer rows.Close()

	var trends []ThreadTrend
	for rows.Next() {
		var t ThreadTrend
		if err := rows.Scan(&t.RunID, &t.GeneratedAt, &t.AttentionCount); err != nil {
			return nil, fmt.Errorf("scan thread history: %w", err)
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}
