package helpers

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// DefaultDebounce is how long Watch waits after the last write before
// calling onChange.
const DefaultDebounce = 500 * time.Millisecond

// Watch calls onChange after path is written or re-created, coalescing
// bursts of events. It watches the parent directory so editors that
// replace the file are seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(), opts ...Option) error {
	o := applyOptions(opts)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return errors.Wrapf(err, "watching %s", filepath.Dir(absPath))
	}
	o.logger.Info("watching dataset", "path", absPath)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if p, _ := filepath.Abs(event.Name); p != absPath {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(o.debounce, func() {
				o.logger.Info("dataset changed", "path", absPath)
				onChange()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.logger.Warn("watcher error", "error", err)
		}
	}
}
