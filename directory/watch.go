package directory

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hupe1980/agentchat/logging"
)

const defaultDebounce = 200 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Debounce time.Duration
	Logger   logging.Logger
	// OnReload is called after every reload attempt with its result.
	OnReload func(error)
}

// Watch reloads s from path whenever the file changes until ctx is done.
// Events are debounced; the parent directory is watched so editors that
// replace the file by rename are handled. Watch returns once the watcher is
// installed.
func (s *Static) Watch(ctx context.Context, path string, optFns ...func(o *WatchOptions)) error {
	opts := WatchOptions{Debounce: defaultDebounce, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	log := logging.OrNoOp(opts.Logger)

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("directory: watch %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("directory: watch %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return fmt.Errorf("directory: watch %s: %w", path, err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		err := s.Reload(abs)
		if err != nil {
			log.Warn("directory reload failed", "path", abs, "error", err)
		} else {
			log.Info("directory reloaded", "path", abs)
		}
		if opts.OnReload != nil {
			opts.OnReload(err)
		}
	}

	go func() {
		defer func() {
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			_ = w.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				mu.Lock()
				if timer == nil {
					timer = time.AfterFunc(opts.Debounce, reload)
				} else {
					timer.Reset(opts.Debounce)
				}
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("directory watcher error", "path", abs, "error", err)
			}
		}
	}()
	return nil
}
