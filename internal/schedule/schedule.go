// Package schedule fires a callback once per day at a configured wall-clock
// time.
package schedule

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidTimeFormat is returned for schedule times that are neither
// "HH:MM" (24-hour) nor "HH:MMam"/"HH:MMpm". Rejected at arm time, before
// any timer exists.
var ErrInvalidTimeFormat = errors.New("invalid schedule time format")

// Entry is a daily trigger time. Immutable once the scheduler is armed.
type Entry struct {
	Hour   int
	Minute int
}

// ParseEntry validates a configured schedule time. Accepted forms:
// "07:00", "19:30", "7:00am", "11:15PM".
func ParseEntry(s string) (Entry, error) {
	for _, layout := range []string{"15:04", "3:04pm"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Entry{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
}

func (e Entry) String() string {
	return fmt.Sprintf("%02d:%02d", e.Hour, e.Minute)
}

// NextAfter returns the next occurrence of the entry's time-of-day strictly
// after now: today if still in the future, else tomorrow.
func (e Entry) NextAfter(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), e.Hour, e.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// advance moves next forward in whole 24h steps until it is strictly after
// now. Boundaries missed while the process was suspended or while a tick
// was running are skipped, never replayed.
func advance(next, now time.Time) time.Time {
	for !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// Handle cancels an armed schedule. Cancellation takes effect before the
// next tick; a tick already in progress is never interrupted.
type Handle struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Stop cancels the schedule. Safe to call more than once.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Done is closed once the scheduler goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Scheduler arms daily wall-clock triggers. Ticks run on the scheduler's
// own goroutine, so a tick arriving while a previous one is still running
// queues behind it rather than racing it.
type Scheduler struct {
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// New creates a Scheduler on the real clock.
func New() *Scheduler {
	return &Scheduler{Now: time.Now}
}

// Arm fires onTick at the next occurrence of e and every 24 hours
// thereafter, aligned to the original arm time, until the handle is
// stopped. Firing is best-effort wall-clock: there is no catch-up queue
// for missed ticks.
func (s *Scheduler) Arm(e Entry, onTick func()) *Handle {
	h := &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.loop(e, onTick, h)
	return h
}

func (s *Scheduler) loop(e Entry, onTick func(), h *Handle) {
	defer close(h.done)

	next := e.NextAfter(s.Now())
	for {
		timer := time.NewTimer(next.Sub(s.Now()))
		select {
		case <-h.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		onTick()
		next = advance(next, s.Now())
	}
}
