package upgrade

import (
	"errors"
	"testing"
	"time"

	"github.com/qxxt/pkgup/internal/refresh"
	"github.com/qxxt/pkgup/internal/source"
	"github.com/qxxt/pkgup/internal/version"
)

// fakeHistory is an in-memory History.
type fakeHistory struct {
	last    time.Time
	runs    []string
	reports []*Report
}

func (h *fakeHistory) LastRefresh() (time.Time, error) { return h.last, nil }

func (h *fakeHistory) SetLastRefresh(t time.Time) error {
	h.last = t
	return nil
}

func (h *fakeHistory) RecordRun(trigger string, startedAt time.Time, report *Report) error {
	h.runs = append(h.runs, trigger)
	h.reports = append(h.reports, report)
	return nil
}

func newRunner(src *fakeSource, hist *fakeHistory, sel Selector) *Runner {
	return &Runner{
		Source:    src,
		Throttler: refresh.New(1, src.archives),
		History:   hist,
		Select:    sel,
		IncludeVC: true,
		Now:       func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) },
	}
}

// End-to-end: installed = {A@1.0 registry, B@2.0 vc}, available = {A@1.1}.
// Selecting only index 0 and confirming upgrades only A, leaving B alone.
func TestRunSelectedSubset(t *testing.T) {
	src := newFakeSource()
	src.installed = []source.Descriptor{registryPkg("A", "1.0"), vcPkg("B", "2.0")}
	src.available = map[string]source.Descriptor{"A": registryPkg("A", "1.1")}

	hist := &fakeHistory{}
	selector := func(cs CandidateSet) ([]int, bool, error) {
		wantNames := []string{"A", "B"}
		got := cs.Names()
		for i := range wantNames {
			if got[i] != wantNames[i] {
				t.Errorf("candidates[%d] = %q, want %q", i, got[i], wantNames[i])
			}
		}
		return []int{0}, true, nil
	}

	report, err := newRunner(src, hist, selector).Run("manual", false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Upgraded) != 1 || report.Upgraded[0] != "A" {
		t.Errorf("upgraded = %v, want [A]", report.Upgraded)
	}
	if len(src.vcCalls) != 0 {
		t.Errorf("B must be left untouched, vc calls = %v", src.vcCalls)
	}
	if !src.has("A", version.MustParse("1.1")) {
		t.Error("A should be at 1.1")
	}
	if src.refreshes != 1 {
		t.Errorf("index should refresh once (no prior snapshot), got %d", src.refreshes)
	}
	if hist.last.IsZero() {
		t.Error("refresh timestamp must be persisted after a successful refresh")
	}
	if len(hist.runs) != 1 || hist.runs[0] != "manual" {
		t.Errorf("recorded runs = %v, want [manual]", hist.runs)
	}
}

func TestRunFailureDoesNotAbortSiblings(t *testing.T) {
	src := newFakeSource()
	src.installed = []source.Descriptor{registryPkg("A", "1.0"), registryPkg("B", "1.0")}
	src.available = map[string]source.Descriptor{
		"A": registryPkg("A", "1.1"),
		"B": registryPkg("B", "1.1"),
	}
	src.installErr["A"] = errors.New("mirror down")

	report, err := newRunner(src, &fakeHistory{}, SelectAll).Run("manual", false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Failures) != 1 || report.Failures[0].Package != "A" {
		t.Errorf("failures = %v, want one for A", report.Failures)
	}
	if len(report.Upgraded) != 1 || report.Upgraded[0] != "B" {
		t.Errorf("upgraded = %v, want [B]", report.Upgraded)
	}
}

func TestRunUpToDate(t *testing.T) {
	src := newFakeSource()
	src.installed = []source.Descriptor{registryPkg("A", "1.0")}
	src.available = map[string]source.Descriptor{"A": registryPkg("A", "1.0")}

	called := false
	selector := func(cs CandidateSet) ([]int, bool, error) {
		called = true
		return nil, true, nil
	}

	report, err := newRunner(src, &fakeHistory{}, selector).Run("manual", false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.UpToDate {
		t.Error("report should be up to date")
	}
	if called {
		t.Error("selector must not run with zero candidates")
	}
}

func TestRunCancelled(t *testing.T) {
	src := newFakeSource()
	src.installed = []source.Descriptor{registryPkg("A", "1.0")}
	src.available = map[string]source.Descriptor{"A": registryPkg("A", "1.1")}

	selector := func(cs CandidateSet) ([]int, bool, error) { return nil, false, nil }

	report, err := newRunner(src, &fakeHistory{}, selector).Run("manual", false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.Cancelled {
		t.Error("report should be cancelled")
	}
	if len(src.installCalls) != 0 {
		t.Error("cancel must not install anything")
	}
}

func TestRunRefreshFailureAborts(t *testing.T) {
	src := newFakeSource()
	src.refreshErr = errors.New("network unreachable")

	_, err := newRunner(src, &fakeHistory{}, SelectAll).Run("scheduled", true)
	if err == nil {
		t.Fatal("expected refresh failure to abort the run")
	}
	if len(src.installCalls) != 0 {
		t.Error("nothing may be installed after a failed refresh")
	}
}

func TestRunThrottled(t *testing.T) {
	src := newFakeSource()
	src.installed = []source.Descriptor{registryPkg("A", "1.0")}
	src.available = map[string]source.Descriptor{"A": registryPkg("A", "1.0")}

	hist := &fakeHistory{last: time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)}
	if _, err := newRunner(src, hist, SelectAll).Run("manual", false); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if src.refreshes != 0 {
		t.Errorf("refresh ran %d times despite a fresh snapshot", src.refreshes)
	}
}

func TestRunNoArchives(t *testing.T) {
	src := newFakeSource()
	src.archives = nil

	r := newRunner(src, &fakeHistory{}, SelectAll)
	r.Throttler = refresh.New(1, nil)
	_, err := r.Run("manual", false)
	if !errors.Is(err, refresh.ErrNoSourcesConfigured) {
		t.Errorf("expected ErrNoSourcesConfigured, got %v", err)
	}
}
