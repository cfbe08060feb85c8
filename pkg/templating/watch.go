package templating

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the template set whenever files in the template directory
// change, until ctx is cancelled. Events are debounced so editors that write
// a file in several steps trigger a single refresh. A reload that fails to
// parse is logged and the previous template set stays live.
func (tm *TemplateManager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create template watcher: %w", err)
	}
	if err = watcher.Add(tm.templateDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch template directory: %w", err)
	}

	debounce := time.Duration(tm.GetConfig().WatchDebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	go func() {
		defer func() {
			_ = watcher.Close()
		}()

		var (
			timerMu sync.Mutex
			timer   *time.Timer
		)
		schedule := func() {
			timerMu.Lock()
			defer timerMu.Unlock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if err := tm.Refresh(); err != nil {
					tm.logger.Error("template reload failed, keeping previous set", "error", err)
				}
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".html" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					tm.logger.Debug("template change detected, scheduling reload", "file", event.Name)
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				tm.logger.Warn("template watcher error", "error", err)
			}
		}
	}()

	return nil
}
