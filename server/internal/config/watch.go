package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors path and calls onChange(prev, next) when a reload changes a
// section that can be applied to a running process: model or log. prev is the
// config most recently delivered (initially initial), so callers can apply
// only the fields that actually moved between two saves.
//
// Reloads that differ only in server or history settings are logged as
// needing a restart and do not call onChange; neither does a save that leaves
// the file's content unchanged. A reload that fails to load or validate is
// logged and the previous config stays current.
//
// If initial is nil, Watch loads path once to establish the baseline.
// Watch runs until ctx is cancelled.
func Watch(ctx context.Context, path string, initial *Config, onChange func(prev, next *Config)) error {
	prev := initial
	if prev == nil {
		cfg, err := Load(path)
		if err != nil {
			return fmt.Errorf("config: watch baseline: %w", err)
		}
		prev = cfg
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: new watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often save via rename, so Create counts as a write.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

			next, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}

			if next.Server != prev.Server || next.History != prev.History {
				slog.Warn("config: server/history changes take effect on restart",
					"path", path)
			}
			if next.Model == prev.Model && next.Log == prev.Log {
				slog.Debug("config: reload left model and log unchanged", "path", path)
				prev = next
				continue
			}

			slog.Info("config: reloaded", "path", path,
				"a", next.Model.A, "b", next.Model.B, "log_level", next.Log.Level)
			onChange(prev, next)
			prev = next

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
