// Package history persists one record per build in a local SQLite database,
// so authors can inspect what recent builds did and why they failed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// BuildRecord is one completed build.
type BuildRecord struct {
	BuildID   string
	Started   time.Time
	Finished  time.Time
	Outcome   string
	Documents int
	Emitted   int
	Assets    int
	Issues    int
}

// Issue is one reported problem attached to a build record.
type Issue struct {
	BuildID  string
	Severity string
	Stage    string
	Source   string
	Message  string
}

// Store is a SQLite-backed build history. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (and if needed initializes) the history database. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		build_id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		finished INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		documents INTEGER NOT NULL,
		emitted INTEGER NOT NULL,
		assets INTEGER NOT NULL,
		issues INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		severity TEXT NOT NULL,
		stage TEXT NOT NULL,
		source TEXT,
		message TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_issues_build_id ON issues(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordBuild stores a build record and its issues in one transaction.
func (s *Store) RecordBuild(ctx context.Context, rec BuildRecord, issues []Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO builds (build_id, started, finished, outcome, documents, emitted, assets, issues)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.Started.Unix(), rec.Finished.Unix(), rec.Outcome,
		rec.Documents, rec.Emitted, rec.Assets, rec.Issues)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}

	for _, issue := range issues {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO issues (build_id, severity, stage, source, message) VALUES (?, ?, ?, ?, ?)`,
			rec.BuildID, issue.Severity, issue.Stage, issue.Source, issue.Message)
		if err != nil {
			return fmt.Errorf("insert build issue: %w", err)
		}
	}

	return tx.Commit()
}

// Recent returns the n most recent builds, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]BuildRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, started, finished, outcome, documents, emitted, assets, issues
		 FROM builds ORDER BY started DESC, build_id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent builds: %w", err)
	}
	defer rows.Close()

	var records []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var started, finished int64
		if err := rows.Scan(&rec.BuildID, &started, &finished, &rec.Outcome,
			&rec.Documents, &rec.Emitted, &rec.Assets, &rec.Issues); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		rec.Started = time.Unix(started, 0).UTC()
		rec.Finished = time.Unix(finished, 0).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// IssuesFor returns the issues recorded for one build.
func (s *Store) IssuesFor(ctx context.Context, buildID string) ([]Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, severity, stage, source, message FROM issues WHERE build_id = ? ORDER BY id`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query build issues: %w", err)
	}
	defer rows.Close()

	var issues []Issue
	for rows.Next() {
		var issue Issue
		var source sql.NullString
		if err := rows.Scan(&issue.BuildID, &issue.Severity, &issue.Stage, &source, &issue.Message); err != nil {
			return nil, fmt.Errorf("scan build issue: %w", err)
		}
		issue.Source = source.String
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}
