// Package watcher reloads the daemon configuration when the config file
// changes on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the write/rename bursts editors produce when
// saving a file into a single reload.
const debounceWindow = 250 * time.Millisecond

// ConfigWatcher invokes a callback after the watched config file changes.
// The parent directory is watched rather than the file itself, so atomic
// save-via-rename (the common editor pattern) is still observed.
type ConfigWatcher struct {
	path     string
	onChange func()

	fw     *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a watcher for path. onChange runs on the watcher goroutine;
// keep it short or hand off.
func New(path string, onChange func()) (*ConfigWatcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback cannot be nil")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &ConfigWatcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		fw:       fw,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. The config file itself may not exist yet; the
// directory must.
func (w *ConfigWatcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.wg.Add(1)
	go w.run()
	return nil
}

func (w *ConfigWatcher) run() {
	defer w.wg.Done()

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceWindow)
				debounceCh = debounce.C
			} else {
				debounce.Reset(debounceWindow)
			}

		case <-debounceCh:
			debounce = nil
			debounceCh = nil
			w.onChange()

		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}

		case <-w.stopCh:
			return
		}
	}
}

// Stop halts the watcher. Pending debounced changes are dropped.
func (w *ConfigWatcher) Stop() error {
	close(w.stopCh)
	err := w.fw.Close()
	w.wg.Wait()
	return err
}
