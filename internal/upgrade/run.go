package upgrade

import (
	"errors"
	"fmt"
	"time"

	"github.com/qxxt/pkgup/internal/refresh"
	"github.com/qxxt/pkgup/internal/source"
)

// Report is the outcome of one pipeline run. Exactly one of UpToDate,
// Cancelled, or a non-empty Upgraded/Failures pair describes the result.
type Report struct {
	UpToDate  bool
	Cancelled bool
	Upgraded  []string
	Failures  []*UpgradeError
}

// Selector chooses which candidates to upgrade. It returns the selected
// indices into the set, or ok=false when the user cancelled.
type Selector func(cs CandidateSet) (selected []int, ok bool, err error)

// SelectAll is the unattended selector: every candidate is taken.
func SelectAll(cs CandidateSet) ([]int, bool, error) {
	selected := make([]int, len(cs))
	for i := range cs {
		selected[i] = i
	}
	return selected, true, nil
}

// History persists the refresh timestamp and run results. *store.Store
// satisfies it; tests use an in-memory fake.
type History interface {
	LastRefresh() (time.Time, error)
	SetLastRefresh(t time.Time) error
	RecordRun(trigger string, startedAt time.Time, report *Report) error
}

// Runner drives one decision/selection/upgrade cycle. At most one run is
// active at a time; the scheduler serializes ticks behind any interactive
// session by invoking Run from a single goroutine.
type Runner struct {
	Source    source.Source
	Throttler *refresh.Throttler
	History   History
	Select    Selector
	IncludeVC bool

	// ForceRefresh skips the throttle check and refreshes unconditionally.
	ForceRefresh bool

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Run executes the full refresh→diff→select→upgrade pipeline. trigger tags
// the run in history ("manual" or "scheduled"); tolerant applies the
// one-day grace window to the refresh check. A refresh failure aborts the
// run; per-candidate upgrade failures do not.
func (r *Runner) Run(trigger string, tolerant bool) (*Report, error) {
	now := r.now()

	if err := r.maybeRefresh(now, tolerant); err != nil {
		return nil, err
	}

	differ := NewDiffer(r.Source)
	candidates, err := differ.ComputeCandidates(r.IncludeVC)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if len(candidates) == 0 {
		report.UpToDate = true
		return report, r.record(trigger, now, report)
	}

	selected, ok, err := r.Select(candidates)
	if err != nil {
		return nil, err
	}
	if !ok {
		report.Cancelled = true
		return report, r.record(trigger, now, report)
	}

	executor := NewExecutor(r.Source)
	for _, idx := range selected {
		if idx < 0 || idx >= len(candidates) {
			return nil, fmt.Errorf("selected index %d out of range (%d candidates)", idx, len(candidates))
		}
		c := candidates[idx]
		if err := executor.Upgrade(c); err != nil {
			var ue *UpgradeError
			if !errors.As(err, &ue) {
				ue = &UpgradeError{Package: c.Installed.Name, Stage: StageInstall, Err: err}
			}
			report.Failures = append(report.Failures, ue)
			// A delete-stage failure still means the new version is in.
			if ue.Installed() {
				report.Upgraded = append(report.Upgraded, c.Installed.Name)
			}
			continue
		}
		report.Upgraded = append(report.Upgraded, c.Installed.Name)
	}

	return report, r.record(trigger, now, report)
}

// maybeRefresh consults the throttler and re-fetches the index when due.
// The timestamp is persisted only after a successful refresh.
func (r *Runner) maybeRefresh(now time.Time, tolerant bool) error {
	due := r.ForceRefresh
	if !due {
		last, err := r.History.LastRefresh()
		if err != nil {
			return fmt.Errorf("failed to read refresh state: %w", err)
		}
		if last.IsZero() {
			// No local record yet; fall back to the source's own idea
			// of when its index was last synced.
			if t, err := r.Source.IndexLastModified(); err == nil {
				last = t
			}
		}
		due, err = r.Throttler.ShouldRefresh(last, now, tolerant)
		if err != nil {
			return err
		}
	} else if len(r.Throttler.Archives) == 0 {
		return refresh.ErrNoSourcesConfigured
	}

	if !due {
		return nil
	}
	if err := r.Source.RefreshIndex(); err != nil {
		return fmt.Errorf("index refresh failed: %w", err)
	}
	if err := r.History.SetLastRefresh(now); err != nil {
		return fmt.Errorf("failed to persist refresh state: %w", err)
	}
	return nil
}

func (r *Runner) record(trigger string, startedAt time.Time, report *Report) error {
	if err := r.History.RecordRun(trigger, startedAt, report); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
