package app

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qxxt/pkgup/internal/config"
	"github.com/qxxt/pkgup/internal/output"
	"github.com/qxxt/pkgup/internal/schedule"
	"github.com/qxxt/pkgup/internal/store"
	"github.com/qxxt/pkgup/internal/upgrade"
	"github.com/qxxt/pkgup/internal/watcher"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled upgrades in the foreground",
	Long: `Run pkgup as a foreground daemon that upgrades all stale packages once
per day at the configured time (schedule.time in the config, with
schedule.enabled set).

Scheduled runs are unattended: every stale package is taken, and the
refresh throttle gets a one-day grace so a refresh done manually
earlier the same day is not repeated. Ticks missed while the machine
was asleep are skipped, not replayed.

The config file is watched; editing it re-arms the schedule without a
restart. Stop with Ctrl+C or SIGTERM.`,
	Example: `  # Run with the configured schedule
  pkgup daemon

  # Typical config:
  #   schedule:
  #     enabled: true
  #     time: "07:00"
  pkgup daemon --config ~/.config/pkgup/config.yaml`,
	RunE: runDaemon,
}

// daemonState rebinds the armed schedule when the config changes.
type daemonState struct {
	scheduler *schedule.Scheduler
	store     *store.Store

	// run executes one unattended pipeline cycle; swapped in tests.
	run func(cfg *config.Config)

	mu     sync.Mutex
	cfg    *config.Config
	handle *schedule.Handle
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Schedule.Enabled {
		return fmt.Errorf("schedule is disabled: set schedule.enabled to true in the config")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	d := &daemonState{
		scheduler: schedule.New(),
		store:     st,
	}
	d.run = d.runPipeline
	if err := d.rearm(cfg); err != nil {
		return err
	}

	watchPath, err := resolvedConfigPath()
	if err != nil {
		return err
	}
	cw, err := watcher.New(watchPath, d.reloadConfig)
	if err != nil {
		return err
	}
	if err := cw.Start(); err != nil {
		return err
	}
	defer cw.Stop()

	entry, _ := cfg.Entry()
	logf("daemon started, next run at %s daily (config: %s)", entry, watchPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logf("received %s, shutting down", sig)
	d.disarm()
	return nil
}

// rearm replaces the armed schedule with one for cfg. The old handle is
// stopped and drained before the new one is armed, so two ticks can never
// race. The wait happens outside d.mu: a tick in flight takes that lock to
// read the config, so waiting while holding it would deadlock against the
// scheduler goroutine.
func (d *daemonState) rearm(cfg *config.Config) error {
	entry, err := cfg.Entry()
	if err != nil {
		return err
	}

	d.stopHandle()

	d.mu.Lock()
	d.cfg = cfg
	d.handle = d.scheduler.Arm(entry, d.tick)
	d.mu.Unlock()
	return nil
}

func (d *daemonState) disarm() {
	d.stopHandle()
}

// stopHandle detaches the current handle under the lock, then stops it and
// waits for the scheduler goroutine with the lock released.
func (d *daemonState) stopHandle() {
	d.mu.Lock()
	old := d.handle
	d.handle = nil
	d.mu.Unlock()

	if old != nil {
		old.Stop()
		<-old.Done()
	}
}

// tick runs one unattended upgrade cycle.
func (d *daemonState) tick() {
	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()

	if cfg == nil {
		return
	}
	d.run(cfg)
}

func (d *daemonState) runPipeline(cfg *config.Config) {
	logf("scheduled run starting")
	runner := newRunner(cfg, d.store, upgrade.SelectAll, cfg.Upgrade.IncludeVC, false)
	report, err := runner.Run("scheduled", true)
	if err != nil {
		logf("scheduled run failed: %v", err)
		return
	}
	fmt.Print(output.RenderReport(report))
}

// reloadConfig re-reads the config after the file changed. A broken config
// keeps the previous schedule running.
func (d *daemonState) reloadConfig() {
	cfg, err := loadConfig()
	if err != nil {
		logf("config reload failed, keeping previous schedule: %v", err)
		return
	}
	if !cfg.Schedule.Enabled {
		logf("schedule disabled by config change, disarming")
		d.disarm()
		d.mu.Lock()
		d.cfg = cfg
		d.mu.Unlock()
		return
	}
	if err := d.rearm(cfg); err != nil {
		logf("config reload failed, keeping previous schedule: %v", err)
		return
	}
	entry, _ := cfg.Entry()
	logf("config reloaded, next run at %s daily", entry)
}

func logf(format string, args ...any) {
	fmt.Printf("[%s] %s\n", time.Now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
}
