package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/studiowebux/loadcli/internal/config"
	"github.com/studiowebux/loadcli/internal/stats"
)

// Run is one recorded engine run
type Run struct {
	ID          int64
	StartedAt   time.Time
	CompletedAt *time.Time
	Status      string // "running", "completed", "interrupted"
	Rate        int
	Concurrency int
	Targets     int
	TotalDone   int64
	TotalOK     int64
	TotalErr    int64
	AvgMs       float64
	MinMs       float64
	MaxMs       float64
	P50Ms       float64
	P90Ms       float64
	P99Ms       float64
}

// Manager handles run history persistence
type Manager struct {
	db *sql.DB
}

// NewManager opens (creating if needed) the history database
func NewManager(dbPath string) (*Manager, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, config.DirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	m := &Manager{db: db}
	if err := m.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func (m *Manager) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		status TEXT NOT NULL,
		rate INTEGER NOT NULL,
		concurrency INTEGER NOT NULL,
		targets INTEGER NOT NULL,
		total_done INTEGER NOT NULL DEFAULT 0,
		total_ok INTEGER NOT NULL DEFAULT 0,
		total_err INTEGER NOT NULL DEFAULT 0,
		avg_ms REAL NOT NULL DEFAULT 0,
		min_ms REAL NOT NULL DEFAULT 0,
		max_ms REAL NOT NULL DEFAULT 0,
		p50_ms REAL NOT NULL DEFAULT 0,
		p90_ms REAL NOT NULL DEFAULT 0,
		p99_ms REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		sent INTEGER NOT NULL,
		done INTEGER NOT NULL,
		ok INTEGER NOT NULL,
		err INTEGER NOT NULL,
		p50_ms REAL NOT NULL,
		p90_ms REAL NOT NULL,
		p99_ms REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_snapshots_run_id ON snapshots(run_id);
	`
	if _, err := m.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	return m.db.Close()
}

// CreateRun inserts a new run record and fills in its ID
func (m *Manager) CreateRun(run *Run) error {
	result, err := m.db.Exec(`
		INSERT INTO runs (started_at, status, rate, concurrency, targets)
		VALUES (?, ?, ?, ?, ?)
	`, run.StartedAt, run.Status, run.Rate, run.Concurrency, run.Targets)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// FinalizeRun completes a run record with its summary statistics
func (m *Manager) FinalizeRun(run *Run, summary stats.Summary) error {
	now := time.Now()
	run.CompletedAt = &now
	run.TotalDone = summary.Done
	run.TotalOK = summary.OK
	run.TotalErr = summary.Err
	run.AvgMs = summary.AvgMs
	run.MinMs = summary.MinMs
	run.MaxMs = summary.MaxMs
	run.P50Ms = summary.P50Ms
	run.P90Ms = summary.P90Ms
	run.P99Ms = summary.P99Ms

	_, err := m.db.Exec(`
		UPDATE runs
		SET completed_at = ?, status = ?, total_done = ?, total_ok = ?, total_err = ?,
		    avg_ms = ?, min_ms = ?, max_ms = ?, p50_ms = ?, p90_ms = ?, p99_ms = ?
		WHERE id = ?
	`, run.CompletedAt, run.Status, run.TotalDone, run.TotalOK, run.TotalErr,
		run.AvgMs, run.MinMs, run.MaxMs, run.P50Ms, run.P90Ms, run.P99Ms, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}
	return nil
}

// SaveSnapshots batch-inserts window snapshots in one transaction
func (m *Manager) SaveSnapshots(runID int64, startSeq int, snaps []stats.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO snapshots (run_id, seq, sent, done, ok, err, p50_ms, p90_ms, p99_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, s := range snaps {
		_, err := stmt.Exec(runID, startSeq+i, s.Sent, s.Done, s.OK, s.Err, s.P50Ms, s.P90Ms, s.P99Ms)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID
func (m *Manager) GetRun(id int64) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime

	err := m.db.QueryRow(`
		SELECT id, started_at, completed_at, status, rate, concurrency, targets,
		       total_done, total_ok, total_err, avg_ms, min_ms, max_ms, p50_ms, p90_ms, p99_ms
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.StartedAt, &completedAt, &run.Status, &run.Rate,
		&run.Concurrency, &run.Targets, &run.TotalDone, &run.TotalOK, &run.TotalErr,
		&run.AvgMs, &run.MinMs, &run.MaxMs, &run.P50Ms, &run.P90Ms, &run.P99Ms)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first
func (m *Manager) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, completed_at, status, rate, concurrency, targets,
		       total_done, total_ok, total_err, avg_ms, min_ms, max_ms, p50_ms, p90_ms, p99_ms
		FROM runs
		ORDER BY started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime
		err := rows.Scan(&run.ID, &run.StartedAt, &completedAt, &run.Status, &run.Rate,
			&run.Concurrency, &run.Targets, &run.TotalDone, &run.TotalOK, &run.TotalErr,
			&run.AvgMs, &run.MinMs, &run.MaxMs, &run.P50Ms, &run.P90Ms, &run.P99Ms)
		if err != nil {
			return nil, err
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetSnapshots retrieves every window snapshot of a run in order
func (m *Manager) GetSnapshots(runID int64) ([]stats.Snapshot, error) {
	rows, err := m.db.Query(`
		SELECT sent, done, ok, err, p50_ms, p90_ms, p99_ms
		FROM snapshots
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []stats.Snapshot
	for rows.Next() {
		var s stats.Snapshot
		if err := rows.Scan(&s.Sent, &s.Done, &s.OK, &s.Err, &s.P50Ms, &s.P90Ms, &s.P99Ms); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
