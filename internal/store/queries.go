package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/qxxt/pkgup/internal/upgrade"
)

// Refresh state operations

// LastRefresh returns when the index was last refreshed, or the zero time
// when no refresh has ever been recorded.
func (s *Store) LastRefresh() (time.Time, error) {
	var raw string
	err := s.db.QueryRow(`SELECT last_refresh FROM refresh_state WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read refresh state: %w", err)
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last_refresh: %w", err)
	}
	return t, nil
}

// SetLastRefresh records a successful index refresh.
func (s *Store) SetLastRefresh(t time.Time) error {
	query := `
		INSERT INTO refresh_state (id, last_refresh) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET last_refresh = excluded.last_refresh
	`
	if _, err := s.db.Exec(query, t.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to store refresh state: %w", err)
	}
	return nil
}

// Run history operations

// RecordRun stores one pipeline run and its per-package events.
func (s *Store) RecordRun(trigger string, startedAt time.Time, report *upgrade.Report) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (started_at, trigger, outcome) VALUES (?, ?, ?)`,
		startedAt.UTC().Format(time.RFC3339), trigger, outcomeOf(report),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run id: %w", err)
	}

	failed := make(map[string]string, len(report.Failures))
	for _, f := range report.Failures {
		failed[f.Package] = f.Error()
	}
	for _, name := range report.Upgraded {
		// A package can appear in both lists when only the old-keg
		// delete failed; the failure row carries the detail.
		if _, ok := failed[name]; ok {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO run_events (run_id, package, status) VALUES (?, ?, ?)`,
			runID, name, StatusUpgraded,
		); err != nil {
			return fmt.Errorf("failed to insert event for %s: %w", name, err)
		}
	}
	for _, f := range report.Failures {
		if _, err := tx.Exec(
			`INSERT INTO run_events (run_id, package, status, error) VALUES (?, ?, ?, ?)`,
			runID, f.Package, StatusFailed, f.Error(),
		); err != nil {
			return fmt.Errorf("failed to insert event for %s: %w", f.Package, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// outcomeOf maps a report onto a stored run outcome.
func outcomeOf(r *upgrade.Report) string {
	switch {
	case r.UpToDate:
		return OutcomeUpToDate
	case r.Cancelled:
		return OutcomeCancelled
	case len(r.Failures) == 0:
		return OutcomeUpgraded
	case len(r.Upgraded) == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// ListRuns returns the most recent runs, newest first, with their events.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, trigger, outcome
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var startedAt string
		if err := rows.Scan(&run.ID, &startedAt, &run.Trigger, &run.Outcome); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	for _, run := range runs {
		events, err := s.listEvents(run.ID)
		if err != nil {
			return nil, err
		}
		run.Events = events
	}
	return runs, nil
}

func (s *Store) listEvents(runID int64) ([]RunEvent, error) {
	rows, err := s.db.Query(
		`SELECT run_id, package, status, COALESCE(error, '') FROM run_events WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for run %d: %w", runID, err)
	}
	defer rows.Close()

	var events []RunEvent
	for rows.Next() {
		var ev RunEvent
		if err := rows.Scan(&ev.RunID, &ev.Package, &ev.Status, &ev.Error); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
