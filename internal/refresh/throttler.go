// Package refresh decides whether the package index is stale enough to
// warrant a re-fetch.
package refresh

import (
	"errors"
	"time"
)

// ErrNoSourcesConfigured means the archive list is empty; there is nothing
// to refresh from and the user must fix their configuration.
var ErrNoSourcesConfigured = errors.New("no package archives configured")

// Throttler gates index refreshes to a whole-day interval. It has no side
// effects: the caller performs the refresh and persists the timestamp only
// on success.
type Throttler struct {
	// IntervalDays is the configured minimum number of whole days
	// between refreshes. Must be positive.
	IntervalDays int

	// Archives is the configured remote index list.
	Archives []string
}

// New creates a Throttler for the given interval and archive list.
func New(intervalDays int, archives []string) *Throttler {
	return &Throttler{IntervalDays: intervalDays, Archives: archives}
}

// ShouldRefresh reports whether the index, last refreshed at last, is due
// at now. With tolerant set, a one-day grace window applies so a scheduled
// run slightly before the exact interval boundary still refreshes. A zero
// last means no snapshot exists and always refreshes.
func (t *Throttler) ShouldRefresh(last, now time.Time, tolerant bool) (bool, error) {
	if len(t.Archives) == 0 {
		return false, ErrNoSourcesConfigured
	}
	if last.IsZero() {
		return true, nil
	}

	elapsedDays := int(now.Sub(last).Hours() / 24)
	need := t.IntervalDays
	if tolerant {
		need--
	}
	return elapsedDays >= need, nil
}
