package wizard

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gabrielmiguelok/formwizard/pkg/logging"
)

const reloadDebounce = 100 * time.Millisecond

// WatchDefinition reloads the definition at path whenever it changes and
// passes every valid result to onChange. Invalid edits are logged and
// skipped. It blocks until ctx is done.
//
// The parent directory is watched so editors that replace the file on save
// are seen.
func WatchDefinition(ctx context.Context, path string, logger logging.Logger, onChange func(*Definition)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("definition watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(reloadDebounce)

		case <-pending:
			pending = nil
			def, err := LoadDefinition(abs)
			if err != nil {
				logger.Warn("definition reload rejected", logging.String("path", abs), logging.Err(err))
				continue
			}
			logger.Info("definition reloaded", logging.String("path", abs), logging.Int("steps", def.Total()))
			onChange(def)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("definition watcher error", logging.Err(err))
		}
	}
}
