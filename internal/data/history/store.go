// Package history stores analysis runs in SQLite so consecutive runs can be
// compared.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	// Fixed width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates or opens the history database at path. busyTimeout bounds
// how long SQLite waits on a locked database.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun stores run and its findings in one transaction. Saving the same
// run ID again replaces it.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	return s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, started_at_utc, duration_ms, fingerprint, project_count, finding_count)
VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.StartedAt.UTC().Format(timeLayout),
			run.Duration.Milliseconds(),
			run.Fingerprint,
			run.Projects,
			len(run.Findings),
		); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO findings (run_id, project, kind, configuration, dependency, message)
VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range run.Findings {
			if _, err := stmt.ExecContext(ctx, run.ID, r.Project, r.Kind, r.Configuration, r.Dependency, r.Message); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun(ctx context.Context) (Run, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		run        Run
		startedRaw string
		durationMS int64
	)
	err := s.withRetry("load latest run", func() error {
		return s.db.QueryRowContext(ctx, `
SELECT id, started_at_utc, duration_ms, fingerprint, project_count
FROM runs
ORDER BY started_at_utc DESC, created_at_utc DESC
LIMIT 1`).Scan(&run.ID, &startedRaw, &durationMS, &run.Fingerprint, &run.Projects)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}

	started, err := time.Parse(timeLayout, startedRaw)
	if err != nil {
		return Run{}, false, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
	}
	run.StartedAt = started.UTC()
	run.Duration = time.Duration(durationMS) * time.Millisecond

	run.Findings, err = s.loadFindings(ctx, run.ID)
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

func (s *Store) loadFindings(ctx context.Context, runID string) ([]Record, error) {
	var rows *sql.Rows
	err := s.withRetry("load findings", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT project, kind, configuration, dependency, message
FROM findings
WHERE run_id = ?
ORDER BY project, kind, configuration, dependency`, runID)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Project, &r.Kind, &r.Configuration, &r.Dependency, &r.Message); err != nil {
			return nil, fmt.Errorf("scan finding row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate finding rows: %w", err)
	}
	return records, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
