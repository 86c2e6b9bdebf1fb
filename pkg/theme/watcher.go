package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/devportal/pkg/observability"
)

// Watcher reports changes to a FileStore's theme files per tenant, so cached
// themes can be invalidated as soon as they are edited
type Watcher struct {
	store    *FileStore
	watcher  *fsnotify.Watcher
	onChange func(tenant string)
	logger   *observability.Logger
	wg       sync.WaitGroup
}

// NewWatcher watches every directory under the store root. onChange is called
// with the tenant whose files changed.
func NewWatcher(store *FileStore, onChange func(tenant string), logger *observability.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := addRecursive(fsw, store.Root()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch theme directory: %w", err)
	}

	return &Watcher{
		store:    store,
		watcher:  fsw,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// addRecursive adds root and every directory below it
func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

// Start processes events in the background until Close
func (w *Watcher) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer observability.RecoverPanic(w.logger, "theme watcher")
		w.loop()
	}()
	w.logger.WithField("dir", w.store.Root()).Info("Watching tenant themes")
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Theme watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := addRecursive(w.watcher, event.Name); err != nil {
				w.logger.WithError(err).WithField("dir", event.Name).Warn("Failed to watch new directory")
			}
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	tenant, ok := w.store.TenantFromPath(event.Name)
	if !ok {
		return
	}

	w.logger.WithFields(map[string]interface{}{
		"tenant": tenant,
		"file":   event.Name,
		"op":     event.Op.String(),
	}).Debug("Tenant theme changed")
	w.onChange(tenant)
}

// Close stops watching and waits for the event loop to exit
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
