// Package persistence provides the run-id-keyed SQLite store the CLI uses
// to save and resume simulation runs, built on sqlx over modernc.org/sqlite
// with a migrate step run on Open and JSON-serialized nested structs in
// TEXT columns. Each run is keyed by run_id, with append-only
// daily_metrics/events/network_snapshots tables plus a single patchable
// row per run in the runs table. The core simulation package never imports this package
// directly; only cmd/simrun wires the two together.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite connection for run persistence.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		scenario_name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		current_day INTEGER NOT NULL DEFAULT 0,
		state_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		metrics_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		event_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS network_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		snapshot_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_daily_metrics_run ON daily_metrics(run_id, day);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, day);
	CREATE INDEX IF NOT EXISTS idx_network_snapshots_run ON network_snapshots(run_id, day);
	`
	_, err := s.conn.ExecContext(context.Background(), schema)
	return err
}

// RunStatus values a caller may set via SetRunStatus. The store never
// writes these itself beyond the initial "running" on InsertRun — callers
// are responsible for tracking their own running/paused/completed
// transitions.
const (
	RunStatusRunning   = "running"
	RunStatusPaused    = "paused"
	RunStatusCompleted = "completed"
)

// RunRow is the top-level persisted record for one run.
type RunRow struct {
	RunID        string `db:"run_id"`
	ScenarioName string `db:"scenario_name"`
	Seed         uint32 `db:"seed"`
	CreatedAt    string `db:"created_at"`
	Status       string `db:"status"`
	CurrentDay   int    `db:"current_day"`
	StateJSON    string `db:"state_json"`
}

// InsertRun creates a new run row with a freshly generated run ID and the
// given initial serialized state, returning the run ID. The new run starts
// at day 0 with status "running".
func (s *Store) InsertRun(ctx context.Context, scenarioName string, seed uint32, state any) (string, error) {
	runID := uuid.NewString()
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO runs (run_id, scenario_name, seed, created_at, status, current_day, state_json) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, scenarioName, seed, time.Now().UTC().Format(time.RFC3339), RunStatusRunning, 0, string(stateJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// LoadRun fetches a run row by ID — including its status and current day —
// and decodes its state_json into out.
func (s *Store) LoadRun(ctx context.Context, runID string, out any) (RunRow, error) {
	var row RunRow
	err := s.conn.GetContext(ctx, &row, `SELECT run_id, scenario_name, seed, created_at, status, current_day, state_json FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return RunRow{}, fmt.Errorf("load run %s: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(row.StateJSON), out); err != nil {
		return RunRow{}, fmt.Errorf("decode run %s state: %w", runID, err)
	}
	return row, nil
}

// PatchRunState overwrites a run's state_json and current_day with the
// current serialized state, used after every StepDay to make resume
// possible.
func (s *Store) PatchRunState(ctx context.Context, runID string, day int, state any) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `UPDATE runs SET state_json = ?, current_day = ? WHERE run_id = ?`, string(stateJSON), day, runID)
	if err != nil {
		return fmt.Errorf("patch run %s: %w", runID, err)
	}
	return nil
}

// SetRunStatus updates a run's status column. The core simulation never
// calls this; only the caller driving the day-step loop knows whether a run
// is paused, still running, or complete.
func (s *Store) SetRunStatus(ctx context.Context, runID, status string) error {
	_, err := s.conn.ExecContext(ctx, `UPDATE runs SET status = ? WHERE run_id = ?`, status, runID)
	if err != nil {
		return fmt.Errorf("set run %s status: %w", runID, err)
	}
	return nil
}

// AppendDailyMetrics appends one day's metrics to the run's append-only
// metrics log.
func (s *Store) AppendDailyMetrics(ctx context.Context, runID string, day int, metrics any) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `INSERT INTO daily_metrics (run_id, day, metrics_json) VALUES (?, ?, ?)`, runID, day, string(payload))
	if err != nil {
		return fmt.Errorf("append daily metrics: %w", err)
	}
	return nil
}

// AppendEvents appends a batch of events (task logs, reflections, causal
// links) for one day.
func (s *Store) AppendEvents(ctx context.Context, runID string, day int, events []any) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin events tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO events (run_id, day, event_json) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare events insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, day, string(payload)); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

// AppendNetworkSnapshot records the social network's edge list for one day.
func (s *Store) AppendNetworkSnapshot(ctx context.Context, runID string, day int, snapshot any) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal network snapshot: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `INSERT INTO network_snapshots (run_id, day, snapshot_json) VALUES (?, ?, ?)`, runID, day, string(payload))
	if err != nil {
		return fmt.Errorf("append network snapshot: %w", err)
	}
	return nil
}
