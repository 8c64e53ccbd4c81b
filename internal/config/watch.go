package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultWatchDebounce = 200 * time.Millisecond

// Watcher reloads a config file when it or its directory changes. A reload
// that fails validation is logged and the previous config stays in effect.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*LoadResult)
	log      zerolog.Logger
}

// NewWatcher creates a watcher for path. onChange runs on the watcher
// goroutine after every successful reload.
func NewWatcher(path string, onChange func(*LoadResult), log zerolog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		debounce: defaultWatchDebounce,
		onChange: onChange,
		log:      log.With().Str("component", "config-watch").Logger(),
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Editors replace files by rename, so watch the directory.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Debug().Str("path", w.path).Msg("watching config")

	target := filepath.Clean(w.path)
	var pending <-chan time.Time
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
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			w.log.Debug().Str("op", ev.Op.String()).Str("file", ev.Name).Msg("config change detected")
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			pending = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	res, err := LoadFromPath(w.path)
	if err != nil {
		w.log.Warn().Err(err).Msg("config reload failed, keeping previous config")
		return
	}
	w.log.Info().Strs("files", res.Files).Msg("config reloaded")
	if w.onChange != nil {
		w.onChange(res)
	}
}
