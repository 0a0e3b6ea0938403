package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRecorder persists attempt telemetry in a local SQLite database
type SQLiteRecorder struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (and if needed creates) the telemetry database
func NewSQLite(path string) (*SQLiteRecorder, error) {
	// Expand the path (handle ~ and relative paths)
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	} else if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		path = absPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database at '%s': %w", path, err)
	}

	r := &SQLiteRecorder{db: db, path: path}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		purpose TEXT,
		success INTEGER NOT NULL,
		error TEXT,
		latency_ms INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_model ON attempts(model);
	`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create stats schema: %w", err)
	}
	return nil
}

// RecordAttempt stores one attempt outcome
func (r *SQLiteRecorder) RecordAttempt(ctx context.Context, attempt *Attempt) error {
	createdAt := attempt.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attempts (provider, model, purpose, success, error, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		attempt.Provider, attempt.Model, attempt.Purpose,
		boolToInt(attempt.Success), attempt.Error, attempt.LatencyMs, createdAt)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ModelStats aggregates recorded attempts per model
func (r *SQLiteRecorder) ModelStats(ctx context.Context) ([]ModelStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT model, COUNT(*), SUM(1 - success), CAST(AVG(latency_ms) AS INTEGER)
		 FROM attempts GROUP BY model ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("failed to query model stats: %w", err)
	}
	defer rows.Close()

	var out []ModelStat
	for rows.Next() {
		var s ModelStat
		if err := rows.Scan(&s.Model, &s.Attempts, &s.Failures, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("failed to scan model stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the underlying database
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
