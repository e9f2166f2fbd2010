package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/richinex/aide/config"
)

// WatchConfig reloads provider configuration whenever the config file
// changes. Cached providers are discarded so the next turn builds fresh
// ones. Call stop to end watching.
func (a *App) WatchConfig(ctx context.Context) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	// Editors replace files on save, so the directory is watched.
	dir := filepath.Dir(a.configPath)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(a.configPath) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				a.reloadConfig()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				a.logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	return func() {
		cancel()
		w.Close()
		<-done
	}, nil
}

func (a *App) reloadConfig() {
	settings, err := config.Load(a.configPath)
	if err != nil {
		a.logger.Warn("config reload failed, keeping previous configuration", "path", a.configPath, "error", err)
		return
	}
	a.registry.Reload(settings.AI)
}
