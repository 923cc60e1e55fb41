package store

import (
	"errors"
	"testing"
	"time"

	"github.com/qxxt/pkgup/internal/upgrade"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s
}

func TestRefreshStateRoundTrip(t *testing.T) {
	s := newTestStore(t)

	last, err := s.LastRefresh()
	if err != nil {
		t.Fatalf("LastRefresh failed: %v", err)
	}
	if !last.IsZero() {
		t.Errorf("fresh store should report zero time, got %v", last)
	}

	want := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)
	if err := s.SetLastRefresh(want); err != nil {
		t.Fatalf("SetLastRefresh failed: %v", err)
	}
	got, err := s.LastRefresh()
	if err != nil {
		t.Fatalf("LastRefresh failed: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("LastRefresh = %v, want %v", got, want)
	}

	// Overwrites, single-row table.
	later := want.Add(48 * time.Hour)
	if err := s.SetLastRefresh(later); err != nil {
		t.Fatalf("SetLastRefresh failed: %v", err)
	}
	got, err = s.LastRefresh()
	if err != nil {
		t.Fatalf("LastRefresh failed: %v", err)
	}
	if !got.Equal(later) {
		t.Errorf("LastRefresh = %v, want %v", got, later)
	}
}

func TestRecordAndListRuns(t *testing.T) {
	s := newTestStore(t)
	started := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC)

	report := &upgrade.Report{
		Upgraded: []string{"alpha", "beta"},
		Failures: []*upgrade.UpgradeError{
			{Package: "gamma", Stage: upgrade.StageInstall, Err: errors.New("mirror down")},
		},
	}
	if err := s.RecordRun("scheduled", started, report); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := s.RecordRun("manual", started.Add(24*time.Hour), &upgrade.Report{UpToDate: true}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	// Newest first.
	if runs[0].Trigger != "manual" || runs[0].Outcome != OutcomeUpToDate {
		t.Errorf("runs[0] = %s/%s, want manual/%s", runs[0].Trigger, runs[0].Outcome, OutcomeUpToDate)
	}
	if runs[1].Trigger != "scheduled" || runs[1].Outcome != OutcomePartial {
		t.Errorf("runs[1] = %s/%s, want scheduled/%s", runs[1].Trigger, runs[1].Outcome, OutcomePartial)
	}

	events := runs[1].Events
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	byName := map[string]RunEvent{}
	for _, ev := range events {
		byName[ev.Package] = ev
	}
	if byName["alpha"].Status != StatusUpgraded {
		t.Errorf("alpha status = %s, want %s", byName["alpha"].Status, StatusUpgraded)
	}
	if byName["gamma"].Status != StatusFailed || byName["gamma"].Error == "" {
		t.Errorf("gamma event = %+v, want failed with error text", byName["gamma"])
	}
}

func TestListRunsLimit(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		report := &upgrade.Report{Upgraded: []string{"pkg"}}
		if err := s.RecordRun("scheduled", base.Add(time.Duration(i)*24*time.Hour), report); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := s.ListRuns(3)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("got %d runs, want 3", len(runs))
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		name   string
		report *upgrade.Report
		want   string
	}{
		{"up to date", &upgrade.Report{UpToDate: true}, OutcomeUpToDate},
		{"cancelled", &upgrade.Report{Cancelled: true}, OutcomeCancelled},
		{"all upgraded", &upgrade.Report{Upgraded: []string{"a"}}, OutcomeUpgraded},
		{"all failed", &upgrade.Report{
			Failures: []*upgrade.UpgradeError{{Package: "a"}},
		}, OutcomeFailed},
		{"partial", &upgrade.Report{
			Upgraded: []string{"a"},
			Failures: []*upgrade.UpgradeError{{Package: "b"}},
		}, OutcomePartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outcomeOf(tt.report); got != tt.want {
				t.Errorf("outcomeOf = %s, want %s", got, tt.want)
			}
		})
	}
}
