// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// watch.go - Config file watching for live reload.
//
// Watches the config directory (not the file: editors replace files by
// rename, which would orphan a file-level watch) and re-loads the config
// after a debounce window. Each successful reload is pushed to the
// registered callback.

package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long the watcher waits after the last write
// before reloading, coalescing editor write bursts into one reload.
const DefaultWatchDebounce = 500 * time.Millisecond

// ReloadFunc receives each successfully reloaded configuration.
type ReloadFunc func(*Config)

// Watcher watches the config files for changes and triggers reloads.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onReload ReloadFunc
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time // zero when no reload is queued

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a config watcher that invokes onReload with each new
// configuration. Call Watch to start it.
func NewWatcher(onReload ReloadFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		watcher:  fsw,
		onReload: onReload,
		debounce: DefaultWatchDebounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for config changes.
func (w *Watcher) Watch() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()

	return nil
}

// Close stops watching and releases resources. Blocks until both watch
// goroutines have exited.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// processEvents filters filesystem events down to config file changes.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isConfigFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("CONFIG_WATCH_ERROR | err=%v", err)
		}
	}
}

// processPending fires the reload once the debounce window has elapsed.
func (w *Watcher) processPending() {
	defer w.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				w.reload()
			}
		}
	}
}

// reload re-runs the load pipeline and pushes the result to the callback.
// A config that fails to load leaves the previous one in effect.
func (w *Watcher) reload() {
	cfg, err := Load()
	if err != nil {
		log.Printf("CONFIG_RELOAD_FAILED | err=%v", err)
		return
	}
	log.Printf("CONFIG_RELOADED | model=%s backend=%s", cfg.Model(), cfg.Backend.URL)
	SetGlobal(cfg)
	if w.onReload != nil {
		w.onReload(cfg)
	}
}

// isConfigFile reports whether path names one of the recognized config files.
func isConfigFile(path string) bool {
	base := filepath.Base(path)
	return base == "config.toml" || base == "config.json"
}
