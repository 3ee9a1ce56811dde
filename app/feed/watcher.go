package feed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads feed definitions when files in the feeds directory change.
type Watcher struct {
	configCache *ConfigCache
}

func NewWatcher(configCache *ConfigCache) *Watcher {
	return &Watcher{configCache: configCache}
}

// Run blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.configCache.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.configCache.Dir(), err)
	}

	slog.Info("Watching feed configurations", "dir", w.configCache.Dir())

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Feed configuration watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Ext(event.Name) != configExt {
		return
	}

	feedName := feedNameFromPath(event.Name)

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.configCache.Remove(feedName)
		slog.Info("Configuration removed", "feed", feedName)
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		feedConfig, err := w.configCache.Load(feedName)
		if err != nil {
			slog.Error("Error reloading configuration", "feed", feedName, "error", err)
			return
		}
		slog.Info("Configuration reloaded", "feed", feedName, "creator_id", feedConfig.CreatorID)
	}
}
