package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/branch-tracker/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveRun inserts a run and its rows in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run model.Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Found, run.Waiting = model.CountStatuses(run.Rows)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			id, started_at, calendar_id, quarter_start, quarter_end,
			output_path, found, waiting
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.CalendarID,
		run.QuarterStart.UTC(), run.QuarterEnd.UTC(),
		run.OutputPath, run.Found, run.Waiting,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO report_rows (
			run_id, position, event_title, event_date, branch_id, status
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing row insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range run.Rows {
		_, err := stmt.ExecContext(ctx,
			run.ID, i, r.EventTitle, r.EventDate, r.BranchID, string(r.Status),
		)
		if err != nil {
			return "", fmt.Errorf("inserting row %d of run %s: %w", i, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or
// less returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	query := "SELECT * FROM runs ORDER BY started_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var runs []model.Run
	if err := s.db.SelectContext(ctx, &runs, query); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run whose ID equals or uniquely starts with id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	var runs []model.Run
	err := s.db.SelectContext(ctx, &runs,
		"SELECT * FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2",
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", id, err)
	}

	switch {
	case len(runs) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(runs) > 1 && runs[0].ID != id:
		return nil, fmt.Errorf("run prefix %q is ambiguous", id)
	}

	run := runs[0]
	if err := s.loadRows(ctx, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// LatestRun returns the most recently started run.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*model.Run, error) {
	var run model.Run
	err := s.db.GetContext(ctx, &run, "SELECT * FROM runs ORDER BY started_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest run: %w", err)
	}

	if err := s.loadRows(ctx, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// LatestStatus returns the status of branchID in the newest run that
// has a row for it. When that run lists the branch under several events,
// Found wins.
func (s *SQLiteStore) LatestStatus(ctx context.Context, branchID string) (model.Status, error) {
	var status model.Status
	err := s.db.GetContext(ctx, &status, `
		SELECT r.status
		FROM report_rows r
		JOIN runs u ON u.id = r.run_id
		WHERE r.branch_id = ?
		ORDER BY u.started_at DESC, (r.status = ?) DESC
		LIMIT 1`, branchID, string(model.StatusFound))
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no run reported %s", ErrNotFound, branchID)
	}
	if err != nil {
		return "", fmt.Errorf("querying status of %s: %w", branchID, err)
	}
	return status, nil
}

func (s *SQLiteStore) loadRows(ctx context.Context, run *model.Run) error {
	err := s.db.SelectContext(ctx, &run.Rows, `
		SELECT event_title, event_date, branch_id, status
		FROM report_rows
		WHERE run_id = ?
		ORDER BY position`, run.ID)
	if err != nil {
		return fmt.Errorf("querying rows of run %s: %w", run.ID, err)
	}
	return nil
}

// escapeLike drops LIKE wildcards, which never occur in run IDs.
func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}
