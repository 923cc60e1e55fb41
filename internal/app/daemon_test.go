package app

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/qxxt/pkgup/internal/config"
	"github.com/qxxt/pkgup/internal/schedule"
	"github.com/qxxt/pkgup/internal/store"
)

func newTestDaemon(t *testing.T) (*daemonState, *atomic.Int64) {
	t.Helper()

	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.CreateSchema(); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	// Frozen clock 20ms before the slot: each armed timer fires after
	// ~20ms real time, and since the clock never moves the next tick is
	// rearmed at the same distance, giving a steady stream of ticks.
	frozen := time.Date(2024, 3, 10, 6, 59, 59, 980_000_000, time.UTC)

	var ticks atomic.Int64
	d := &daemonState{
		scheduler: &schedule.Scheduler{Now: func() time.Time { return frozen }},
		store:     st,
	}
	d.run = func(cfg *config.Config) {
		ticks.Add(1)
		time.Sleep(2 * time.Millisecond)
	}
	return d, &ticks
}

func scheduledConfig() *config.Config {
	cfg := config.Default()
	cfg.Schedule.Enabled = true
	cfg.Schedule.Time = "07:00"
	return cfg
}

// Re-arming while the schedule is firing must not wedge: a tick takes the
// state lock to read the config, so rearm may not wait for the scheduler
// goroutine while holding that lock.
func TestRearmWhileTicksFiring(t *testing.T) {
	d, ticks := newTestDaemon(t)
	cfg := scheduledConfig()

	if err := d.rearm(cfg); err != nil {
		t.Fatalf("rearm failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 12; i++ {
			// Pause long enough for the armed timer (~20ms out) to
			// fire, so rearm regularly meets a tick in flight.
			time.Sleep(25 * time.Millisecond)
			if err := d.rearm(cfg); err != nil {
				t.Errorf("rearm failed: %v", err)
				return
			}
		}
		d.disarm()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("rearm deadlocked against a firing tick")
	}

	before := ticks.Load()
	time.Sleep(100 * time.Millisecond)
	if after := ticks.Load(); after != before {
		t.Errorf("ticks continued after disarm: %d -> %d", before, after)
	}
}

func TestDisarmWithoutArm(t *testing.T) {
	d, _ := newTestDaemon(t)
	d.disarm() // must be a no-op, not a panic
}

func TestRearmSwapsConfig(t *testing.T) {
	d, _ := newTestDaemon(t)

	first := scheduledConfig()
	if err := d.rearm(first); err != nil {
		t.Fatalf("rearm failed: %v", err)
	}

	second := scheduledConfig()
	second.Refresh.IntervalDays = 9
	if err := d.rearm(second); err != nil {
		t.Fatalf("rearm failed: %v", err)
	}
	defer d.disarm()

	d.mu.Lock()
	got := d.cfg
	d.mu.Unlock()
	if got != second {
		t.Error("rearm did not install the new config")
	}
}

func TestRearmRejectsBadTime(t *testing.T) {
	d, _ := newTestDaemon(t)

	cfg := scheduledConfig()
	cfg.Schedule.Time = "25:99"
	if err := d.rearm(cfg); err == nil {
		t.Fatal("expected error for invalid schedule time")
	}

	d.mu.Lock()
	handle := d.handle
	d.mu.Unlock()
	if handle != nil {
		t.Error("invalid time must not leave a schedule armed")
	}
}
