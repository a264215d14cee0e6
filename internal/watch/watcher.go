// Package watch triggers ingestion when documents land in the inbox
// directory.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rpggio/nexus/internal/documents"
)

// DefaultDebounce is the quiet window before a batch is ingested.
const DefaultDebounce = 2 * time.Second

// Handler ingests a batch of file names from the watched directory.
type Handler func(ctx context.Context, names []string) error

// Watcher watches one directory (not recursively) and hands debounced
// batches of created or modified documents to a handler, one batch at a time.
type Watcher struct {
	dir    string
	window time.Duration
	handle Handler
	logger *slog.Logger
}

// New creates a watcher for dir.
func New(dir string, window time.Duration, handle Handler, logger *slog.Logger) *Watcher {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Watcher{dir: dir, window: window, handle: handle, logger: logger}
}

// Run blocks until ctx is cancelled. Batches pending at shutdown are
// flushed but not ingested.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	batches := make(chan []string, 16)
	batcher := NewBatcher(w.window, func(names []string) {
		select {
		case batches <- names:
		case <-ctx.Done():
		}
	})
	defer batcher.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case names := <-batches:
				w.runBatch(ctx, names)
			}
		}
	}()

	if w.logger != nil {
		w.logger.Info("watching inbox", "dir", w.dir, "debounce", w.window)
	}

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if name, ok := w.candidate(ev); ok {
				batcher.Add(name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if w.logger != nil {
				w.logger.Warn("watcher error", "error", err)
			}
		}
	}
}

func (w *Watcher) runBatch(ctx context.Context, names []string) {
	if w.logger != nil {
		w.logger.Info("ingesting changed documents", "count", len(names), "files", names)
	}
	if err := w.handle(ctx, names); err != nil && w.logger != nil {
		w.logger.Error("inbox ingestion failed", "files", names, "error", err)
	}
}

// candidate reports the file name for events that should trigger ingestion.
func (w *Watcher) candidate(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.Contains(name, ".tmp.") {
		return "", false
	}
	if !documents.Decodable(documents.MediaTypeOf(name)) {
		return "", false
	}
	info, err := os.Stat(ev.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return name, true
}
