package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/fsnotify/fsnotify"
)

const configDebounce = 100 * time.Millisecond

// WatchConfig reloads the config file whenever it changes and hands the new
// value to onChange. A file that fails to load is logged and ignored, so the
// previous config stays in effect. The watcher stops with ctx.
func WatchConfig(ctx context.Context, path string, logger *slog.Logger, onChange func(Config)) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Editors replace files by rename, so watch the directory and filter.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer watcher.Close()

		var (
			timer   *time.Timer
			pending <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != abs || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				logger.Debug("config file changed", "path", abs, "op", event.Op.String())
				if timer == nil {
					timer = time.NewTimer(configDebounce)
				} else {
					timer.Reset(configDebounce)
				}
				pending = timer.C

			case <-pending:
				pending = nil
				cfg, err := LoadConfig(abs)
				if err != nil {
					logger.Warn("config reload failed, keeping previous config", "error", err)
					continue
				}
				logger.Info("config reloaded", "path", abs)
				onChange(cfg)

			case werr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Error("fsnotify error", "error", werr)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		logger.Error("config watcher panic", "error", err)
	}))
	return nil
}
