package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/routecheck/internal/harness"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// timeLayout stores timestamps as fixed-width UTC text so that string
// order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RunRecord is a stored run with its aggregate counts.
type RunRecord struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Summary    harness.Summary `json:"summary"`
}

// TestRecord is one stored test result. Record holds the full result JSON
// as written by SaveRun.
type TestRecord struct {
	RunID          string          `json:"runId"`
	Seq            int             `json:"seq"`
	Manifest       string          `json:"manifest"`
	Skill          string          `json:"skill,omitempty"`
	Agent          string          `json:"agent,omitempty"`
	Model          string          `json:"model"`
	TestID         string          `json:"testId"`
	ShouldTrigger  bool            `json:"shouldTrigger"`
	Triggered      bool            `json:"triggered"`
	AgentTriggered bool            `json:"agentTriggered"`
	Pass           bool            `json:"pass"`
	Error          string          `json:"error,omitempty"`
	DurationMS     int64           `json:"durationMs"`
	Record         json.RawMessage `json:"record"`
}

// SaveRun writes a run and all of its test results in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - saving the same run ID
// twice leaves the first copy in place.
func (s *Store) SaveRun(ctx context.Context, run *harness.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	sum := run.Summary()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, finished_at, manifests, total, passed, failed, errored, pass_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		sum.Manifests,
		sum.Total,
		sum.Passed,
		sum.Failed,
		sum.Errored,
		sum.PassRate,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}

	seq := 0
	for _, m := range run.Manifests {
		for _, r := range m.Results {
			record, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("save run: marshal result %s: %w", r.ID, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO test_results
				(run_id, seq, manifest, skill, agent, model, test_id, should_trigger,
				 triggered, agent_triggered, pass, error, duration_ms, record)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				run.ID, seq, m.Manifest, m.Skill, m.Agent, m.Model, r.ID, r.ShouldTrigger,
				r.Triggered, r.AgentTriggered, r.Pass, r.Error, r.DurationMS, string(record),
			)
			if err != nil {
				return fmt.Errorf("save run: insert result %s: %w", r.ID, err)
			}
			seq++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run: commit: %w", err)
	}
	return nil
}

// ListRuns returns stored runs newest first. A limit <= 0 returns all runs.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, manifests, total, passed, failed, errored, pass_rate
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run by ID, or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, manifests, total, passed, failed, errored, pass_rate
		FROM runs
		WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// RunResults returns a run's test results in execution order.
//
// Returns an empty slice (not nil) if the run has no results.
func (s *Store) RunResults(ctx context.Context, runID string) ([]TestRecord, error) {
	return s.queryTests(ctx, `
		SELECT run_id, seq, manifest, skill, agent, model, test_id, should_trigger,
		       triggered, agent_triggered, pass, error, duration_ms, record
		FROM test_results
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
}

// TestHistory returns the most recent results for one test across runs,
// newest first. A limit <= 0 returns all of them.
func (s *Store) TestHistory(ctx context.Context, manifest, testID string, limit int) ([]TestRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryTests(ctx, `
		SELECT t.run_id, t.seq, t.manifest, t.skill, t.agent, t.model, t.test_id, t.should_trigger,
		       t.triggered, t.agent_triggered, t.pass, t.error, t.duration_ms, t.record
		FROM test_results t
		JOIN runs r ON r.id = t.run_id
		WHERE t.manifest = ? AND t.test_id = ?
		ORDER BY r.started_at DESC, r.id COLLATE BINARY DESC
		LIMIT ?
	`, manifest, testID, limit)
}

func (s *Store) queryTests(ctx context.Context, query string, args ...any) ([]TestRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query test results: %w", err)
	}
	defer rows.Close()

	tests := []TestRecord{}
	for rows.Next() {
		var (
			t      TestRecord
			record string
		)
		if err := rows.Scan(
			&t.RunID, &t.Seq, &t.Manifest, &t.Skill, &t.Agent, &t.Model, &t.TestID, &t.ShouldTrigger,
			&t.Triggered, &t.AgentTriggered, &t.Pass, &t.Error, &t.DurationMS, &record,
		); err != nil {
			return nil, fmt.Errorf("scan test result: %w", err)
		}
		t.Record = json.RawMessage(record)
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test results: %w", err)
	}
	return tests, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		r                 RunRecord
		started, finished string
	)
	err := row.Scan(
		&r.ID, &started, &finished,
		&r.Summary.Manifests, &r.Summary.Total, &r.Summary.Passed,
		&r.Summary.Failed, &r.Summary.Errored, &r.Summary.PassRate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return RunRecord{}, fmt.Errorf("parse started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return RunRecord{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return r, nil
}
