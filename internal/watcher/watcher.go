// Package watcher re-ingests files as they change on disk.
//
// A Watcher observes one folder tree recursively, filters events
// through the configured include/exclude globs, and hands batches of
// changed paths to the ingest service. Bursts of events collapse into
// one batch per debounce window.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/recallhq/recall/internal/core/ports/driving"
	"github.com/recallhq/recall/internal/logger"
)

// eventBuffer is the capacity of the internal event queue. Events
// beyond it during a flush are dropped with a warning; the next write
// to the same file triggers re-ingest anyway.
const eventBuffer = 256

// DefaultDebounce is the batching window for change events.
const DefaultDebounce = 2 * time.Second

// Config tunes a Watcher.
type Config struct {
	// IncludeGlob and ExcludeGlob filter changed paths, matched
	// relative to the watched root. Comma-separated doublestar
	// patterns; an empty include matches everything.
	IncludeGlob string
	ExcludeGlob string

	// Debounce is the batching window. Zero uses DefaultDebounce.
	Debounce time.Duration
}

// Watcher drives incremental ingest from filesystem change events.
type Watcher struct {
	ingest   driving.IngestService
	includes []string
	excludes []string
	debounce time.Duration
}

// New creates a watcher that feeds changed paths into ingest.
func New(ingest driving.IngestService, cfg Config) *Watcher {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		ingest:   ingest,
		includes: splitPatterns(cfg.IncludeGlob),
		excludes: splitPatterns(cfg.ExcludeGlob),
		debounce: debounce,
	}
}

// Watch blocks, observing root until the context is cancelled.
// New subdirectories are picked up as they appear.
func (w *Watcher) Watch(ctx context.Context, root string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}
	if err := addRecursive(fw, root); err != nil {
		return err
	}

	logger.Info("Watching %s", root)

	queue := make(chan fsnotify.Event, eventBuffer)
	go func() {
		defer close(queue)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				select {
				case queue <- event:
				default:
					logger.Warn("Event queue full, dropping %s", event.Name)
				}
			}
		}
	}()

	limiter := rate.NewLimiter(rate.Every(w.debounce), 1)
	pending := make(map[string]bool)
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case event, ok := <-queue:
			if !ok {
				return nil
			}
			path, ingest := w.handleEvent(fw, root, event)
			if !ingest {
				continue
			}
			pending[path] = true
			if flush == nil {
				flush = time.After(w.debounce)
			}

		case <-flush:
			flush = nil
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			pending = make(map[string]bool)
			sort.Strings(paths)

			report, err := w.ingest.IngestPaths(ctx, paths)
			if err != nil {
				logger.Warn("Ingest of %d changed path(s) failed: %v", len(paths), err)
				continue
			}
			logger.Info("Re-ingested %d path(s): %d processed, %d skipped, %d failed",
				len(paths), report.Stats.Processed, report.Stats.Skipped, report.Stats.Failed)
		}
	}
}

// handleEvent classifies one filesystem event. It returns the path to
// ingest and whether ingest should happen. New directories are added
// to the watch as a side effect.
func (w *Watcher) handleEvent(fw *fsnotify.Watcher, root string, event fsnotify.Event) (string, bool) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Gone again before we looked.
		return "", false
	}
	if info.IsDir() {
		if event.Op.Has(fsnotify.Create) {
			if err := addRecursive(fw, event.Name); err != nil {
				logger.Warn("Watching new directory %s: %v", event.Name, err)
			}
		}
		return "", false
	}

	if !w.accepts(root, event.Name) {
		return "", false
	}
	return event.Name, true
}

// accepts applies the include/exclude globs to a path relative to root.
func (w *Watcher) accepts(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if len(w.includes) > 0 && !matchesAny(w.includes, rel) {
		return false
	}
	return !matchesAny(w.excludes, rel)
}

// addRecursive watches a directory and every directory below it.
func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fw.Add(path)
	})
}

// splitPatterns splits a comma-separated glob list, keeping commas
// inside brace alternations intact.
func splitPatterns(patterns string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(patterns); i++ {
		switch patterns[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if p := strings.TrimSpace(patterns[start:i]); p != "" {
					out = append(out, p)
				}
				start = i + 1
			}
		}
	}
	if p := strings.TrimSpace(patterns[start:]); p != "" {
		out = append(out, p)
	}
	return out
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
