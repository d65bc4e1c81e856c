// internal/config/watch.go
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads config.yaml whenever it changes on disk. The parent
// directory is watched because editors often replace the file instead of
// writing it in place.
type Watcher struct {
	cfg      *Config
	path     string
	debounce time.Duration
	onChange func(*Config)
	watcher  *fsnotify.Watcher
	done     chan struct{}
	closed   bool
	mu       sync.Mutex
	timer    *time.Timer
}

// Watch starts reloading cfg's file, calling onChange with each new Config
func Watch(cfg *Config, debounce time.Duration, onChange func(*Config)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(cfg.ConfigPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch path %s: %w", dir, err)
	}

	w := &Watcher{
		cfg:      cfg,
		path:     filepath.Clean(cfg.ConfigPath),
		debounce: debounce,
		onChange: onChange,
		watcher:  watcher,
		done:     make(chan struct{}),
	}
	go w.watch()
	return w, nil
}

// Close stops watching and cancels a pending reload
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.watcher.Close()
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[Config] watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

// schedule debounces bursts of writes into one reload
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	current := w.cfg
	w.mu.Unlock()

	cfg, err := current.Reload()
	if err != nil {
		log.Printf("[Config] reload failed, keeping previous settings: %v", err)
		return
	}
	log.Printf("[Config] reloaded %s", cfg.ConfigPath)

	w.mu.Lock()
	w.cfg = cfg
	closed := w.closed
	w.mu.Unlock()

	if !closed && w.onChange != nil {
		w.onChange(cfg)
	}
}
