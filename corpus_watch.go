package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch calls rebuild once the raw tree has been quiet for delay after a
// change. Events arriving while waiting restart the delay. Watching stops
// when ctx is cancelled.
func (cb *CorpusBuilder) Watch(ctx context.Context, delay time.Duration, rebuild func(ctx context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := cb.watchTree(w, cb.root); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if isHidden(ev.Name) {
					continue
				}
				cb.log.Debug("raw tree changed", "file", ev.Name, "op", ev.Op.String())

				if ev.Has(fsnotify.Create) {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						if err := cb.watchTree(w, ev.Name); err != nil {
							cb.log.Error("failed to watch new directory", "dir", ev.Name, "error", err)
						}
					}
				}

				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(delay)
				fire = timer.C

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cb.log.Error("watcher failure", "error", err)

			case <-fire:
				fire = nil
				if err := rebuild(ctx); err != nil {
					cb.log.Error("failed to rebuild corpus", "error", err)
				}
			}
		}
	}()

	return nil
}

func (cb *CorpusBuilder) watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != cb.root && isHidden(path) {
			return filepath.SkipDir
		}

		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
