package intent

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/chorus/pkg/orchdir"
)

// Watcher invalidates a catalog's cache when the workspace's
// active_intents.yaml changes. The orchestration directory is watched rather
// than the file itself so editors that replace the file atomically are still
// observed.
type Watcher struct {
	fsw    *fsnotify.Watcher
	doneCh chan struct{}
}

// Watch starts watching the workspace's orchestration directory for catalog
// changes. The directory must exist.
func Watch(workspaceRoot string, catalog *Catalog, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating catalog watcher: %w", err)
	}

	if err := fsw.Add(orchdir.Dir(workspaceRoot)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching orchestration directory: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		doneCh: make(chan struct{}),
	}

	intentsPath := orchdir.IntentsPath(workspaceRoot)

	go func() {
		defer close(w.doneCh)
		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Name != intentsPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					logger.Debug("intent catalog changed, invalidating cache", "event", event.Op.String())
					catalog.Invalidate()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("catalog watcher error", "error", err)
			}
		}
	}()

	return w, nil
}

// Close stops the watcher and waits for its loop to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.doneCh
	return err
}
