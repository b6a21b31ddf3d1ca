package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BrainPreserve/supplements/internal/observability"
)

// DatasetWatcher reloads a Catalog when its CSV file changes. Editors often
// replace files with a rename, so the parent directory is watched and events
// are filtered by name.
type DatasetWatcher struct {
	catalog  *Catalog
	path     string
	debounce time.Duration
	logger   *observability.Logger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.Mutex
	running bool
}

// NewDatasetWatcher creates a watcher for the catalog's dataset file.
func NewDatasetWatcher(catalog *Catalog, debounce time.Duration, logger *observability.Logger) (*DatasetWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create dataset watcher: %w", err)
	}
	path, err := filepath.Abs(catalog.cfg.Path)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("resolve dataset path: %w", err)
	}
	return &DatasetWatcher{
		catalog:  catalog,
		path:     path,
		debounce: debounce,
		logger:   logger.WithOperation("dataset_watch"),
		watcher:  w,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It returns immediately; reloads happen on a
// background goroutine until ctx ends or Stop is called.
func (dw *DatasetWatcher) Start(ctx context.Context) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.running {
		return nil
	}

	if err := dw.watcher.Add(filepath.Dir(dw.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(dw.path), err)
	}
	dw.running = true

	dw.logger.Info().Str("path", dw.path).Dur("debounce", dw.debounce).Msg("Watching dataset for changes")
	go dw.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the OS watcher.
func (dw *DatasetWatcher) Stop() {
	dw.mu.Lock()
	running := dw.running
	dw.running = false
	dw.mu.Unlock()

	if running {
		close(dw.stopCh)
		<-dw.doneCh
	}
	if err := dw.watcher.Close(); err != nil {
		dw.logger.Warn().Err(err).Msg("Closing dataset watcher")
	}
}

func (dw *DatasetWatcher) run(ctx context.Context) {
	defer close(dw.doneCh)

	// nil until a change arrives; each change pushes the reload back.
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.stopCh:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !dw.relevant(event) {
				continue
			}
			dw.logger.Debug().Str("event", event.Op.String()).Msg("Dataset changed")
			pending = time.After(dw.debounce)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Warn().Err(err).Msg("Dataset watcher error")

		case <-pending:
			pending = nil
			// Reload logs its own failure and keeps the old engine.
			_ = dw.catalog.Reload()
		}
	}
}

// relevant reports whether event touches the dataset file. Removals are
// ignored; the replacement arrives as a create.
func (dw *DatasetWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != dw.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
