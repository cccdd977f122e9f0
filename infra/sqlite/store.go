// Package sqlite persists reconciliation cycle history.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"driftd/internal/reconcile"
)

// HistoryStore implements reconcile.HistoryRecorder backed by SQLite.
type HistoryStore struct {
	db *sql.DB
}

var _ reconcile.HistoryRecorder = (*HistoryStore)(nil)

// Entry is one recorded cycle.
type Entry struct {
	ID             int64
	Started        time.Time
	Finished       time.Time
	Phase          reconcile.Phase
	DriftCount     int
	Reasons        map[string][]string
	Remediated     bool
	RemediationErr string
	ManifestErr    string
	DetectErr      string
	Sync           string
	SyncErr        string
}

func Open(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &HistoryStore{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS cycles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	phase TEXT NOT NULL,
	drift_count INTEGER NOT NULL DEFAULT 0,
	reasons TEXT NOT NULL DEFAULT '{}',
	remediated INTEGER NOT NULL DEFAULT 0,
	remediation_error TEXT NOT NULL DEFAULT '',
	manifest_error TEXT NOT NULL DEFAULT '',
	detect_error TEXT NOT NULL DEFAULT '',
	sync_result TEXT NOT NULL DEFAULT '',
	sync_error TEXT NOT NULL DEFAULT ''
)`); err != nil {
		return fmt.Errorf("create cycles table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS cycles_started_at ON cycles (started_at)`); err != nil {
		return fmt.Errorf("create cycles index: %w", err)
	}
	return nil
}

// Record appends a finished cycle.
func (s *HistoryStore) Record(ctx context.Context, out reconcile.Outcome) error {
	reasons, err := json.Marshal(out.Report.Reasons())
	if err != nil {
		return fmt.Errorf("encode drift reasons: %w", err)
	}
	var syncResult string
	if out.Sync.IsValid() {
		syncResult = out.Sync.String()
	}

	if _, err := s.db.ExecContext(ctx, `
INSERT INTO cycles (
	started_at,
	finished_at,
	phase,
	drift_count,
	reasons,
	remediated,
	remediation_error,
	manifest_error,
	detect_error,
	sync_result,
	sync_error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(out.Started),
		formatTime(out.Finished),
		out.Phase.String(),
		out.Report.Count(),
		string(reasons),
		boolToInt(out.Remediated),
		errString(out.RemediationErr),
		errString(out.ManifestErr),
		errString(out.DetectErr),
		syncResult,
		errString(out.SyncErr),
	); err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// Recent returns up to limit cycles, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, finished_at, phase, drift_count, reasons, remediated,
	remediation_error, manifest_error, detect_error, sync_result, sync_error
FROM cycles
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                 Entry
			started, finished string
			phase, reasons    string
			remediated        int
		)
		if err := rows.Scan(
			&e.ID,
			&started,
			&finished,
			&phase,
			&e.DriftCount,
			&reasons,
			&remediated,
			&e.RemediationErr,
			&e.ManifestErr,
			&e.DetectErr,
			&e.Sync,
			&e.SyncErr,
		); err != nil {
			return nil, fmt.Errorf("scan cycle row: %w", err)
		}
		if e.Started, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at of cycle %d: %w", e.ID, err)
		}
		if e.Finished, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at of cycle %d: %w", e.ID, err)
		}
		p, ok := reconcile.ParsePhase(phase)
		if !ok {
			return nil, fmt.Errorf("cycle %d has invalid phase %q", e.ID, phase)
		}
		e.Phase = p
		if err := json.Unmarshal([]byte(reasons), &e.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons of cycle %d: %w", e.ID, err)
		}
		e.Remediated = remediated != 0
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return out, nil
}

func (s *HistoryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
