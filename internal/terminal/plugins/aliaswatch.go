package plugins

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// AliasWatcher reloads an AliasTable whenever its file changes.
type AliasWatcher struct {
	path    string
	table   *AliasTable
	logger  *zap.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchAliases loads path into table and keeps it in sync until ctx is
// done or Close is called. The parent directory is watched so editors that
// replace the file on save are followed.
func WatchAliases(ctx context.Context, path string, table *AliasTable, logger *zap.Logger) (*AliasWatcher, error) {
	path = filepath.Clean(path)
	if err := table.Reload(path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create alias watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &AliasWatcher{
		path:    path,
		table:   table,
		logger:  logger,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

func (w *AliasWatcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Alias watcher error", zap.Error(err))
		}
	}
}

func (w *AliasWatcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if err := w.table.Reload(w.path); err != nil {
		// Keep the previous table on a bad edit.
		w.logger.Warn("Failed to reload aliases", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.logger.Info("Aliases reloaded", zap.String("path", w.path), zap.Int("count", len(w.table.All())))
}

// Close stops watching and waits for the watch loop to exit.
func (w *AliasWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
