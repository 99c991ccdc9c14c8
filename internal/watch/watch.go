// Package watch re-runs a staging pass whenever one of its source trees
// changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// DefaultDebounce is the quiet period after the last change before a pass.
const DefaultDebounce = 500 * time.Millisecond

// ErrNoDirs is returned when there is nothing to watch.
var ErrNoDirs = errors.New("no directories to watch")

// PassFunc is one staging pass.
type PassFunc func(ctx context.Context) error

// Watcher runs a pass once and then again after changes settle. Passes run
// on the watch loop itself and never overlap.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	limiter  *rate.Limiter
	pass     PassFunc

	// OnPass, if set, is called after every pass with its result.
	OnPass func(n int, err error)
}

// New creates a watcher over dirs. A zero debounce uses DefaultDebounce.
// Passes are limited to one per debounce interval.
func New(dirs []string, debounce time.Duration, pass PassFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dirs:     dirs,
		debounce: debounce,
		limiter:  rate.NewLimiter(rate.Every(debounce), 1),
		pass:     pass,
	}
}

// Watch blocks until ctx is cancelled. Errors from a pass are reported
// through OnPass and logged; they do not stop the loop.
func (w *Watcher) Watch(ctx context.Context) error {
	if len(w.dirs) == 0 {
		return ErrNoDirs
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	defer fw.Close() //nolint:errcheck

	for _, d := range w.dirs {
		if err := addTree(fw, d); err != nil {
			return err
		}
		log.Info("watching", "dir", d)
	}

	n := 0
	w.run(ctx, &n)

	// settle fires once no event arrived for a debounce interval.
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fw, event.Name); err != nil {
						log.Warn("unable to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}

			settle = time.After(w.debounce)

		case <-settle:
			settle = nil
			if err := w.limiter.Wait(ctx); err != nil {
				return nil //nolint:nilerr
			}
			w.run(ctx, &n)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) run(ctx context.Context, n *int) {
	*n++
	start := time.Now()
	err := w.pass(ctx)
	if err != nil {
		log.Error("staging pass failed", "pass", *n, "error", err)
	} else {
		log.Info("staging pass complete", "pass", *n, "took", time.Since(start).Round(time.Millisecond))
	}
	if w.OnPass != nil {
		w.OnPass(*n, err)
	}
}

// addTree adds dir and every directory below it; fsnotify does not recurse.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
		}
		return nil
	})
}
