package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/poiesic/corpus/core"
)

const (
	// DefaultDebounce is how long the watcher waits after the last
	// filesystem event on a path before ingesting it. Editors fire
	// several writes per save; the delay folds them into one ingest.
	DefaultDebounce = 500 * time.Millisecond

	// watchIngestTimeout bounds a single ingestion triggered by a
	// filesystem event.
	watchIngestTimeout = 30 * time.Second
)

// Watcher feeds new and modified files from watched directories into
// the orchestrator. Extraction and ingestion failures are logged and
// never stop the watch loop.
type Watcher struct {
	orchestrator *Orchestrator
	extractor    TextExtractor
	fs           *fsnotify.Watcher
	extensions   map[string]bool
	debounce     time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher) error

// WithWatcherLogger sets the logger. Passing nil selects the process
// default logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// WithExtensions replaces the watched file extensions. Extensions
// include the leading dot and match case-insensitively.
func WithExtensions(extensions ...string) WatcherOption {
	return func(w *Watcher) error {
		if len(extensions) == 0 {
			return errors.New("at least one extension required")
		}
		watched := make(map[string]bool, len(extensions))
		for _, ext := range extensions {
			watched[strings.ToLower(ext)] = true
		}
		w.extensions = watched
		return nil
	}
}

// WithDebounce sets how long a path must stay quiet before ingestion.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) error {
		if d <= 0 {
			return errors.New("debounce must be positive")
		}
		w.debounce = d
		return nil
	}
}

// NewWatcher creates a directory watcher that ingests matching files
// through the given orchestrator.
func NewWatcher(orchestrator *Orchestrator, extractor TextExtractor, opts ...WatcherOption) (*Watcher, error) {
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	w := &Watcher{
		orchestrator: orchestrator,
		extractor:    extractor,
		extensions:   map[string]bool{".txt": true, ".md": true},
		debounce:     DefaultDebounce,
		logger:       slog.Default(),
		pending:      make(map[string]*time.Timer),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	w.logger = w.logger.With("component", "watch")

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}
	w.fs = fs

	return w, nil
}

// Watch monitors the given directories until the context is canceled
// or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, dirs ...string) error {
	if len(dirs) == 0 {
		return errors.New("at least one directory required")
	}
	for _, dir := range dirs {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.logger.Info("watching directories", "dirs", dirs, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.watched(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create || event.Op&fsnotify.Write == fsnotify.Write {
				w.scheduleIngest(event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "err", err)
		}
	}
}

// Close stops pending ingestions and releases the filesystem watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *Watcher) watched(path string) bool {
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

// scheduleIngest (re)arms the debounce timer for a path. Every new
// event on the same path pushes ingestion back by the full delay.
func (w *Watcher) scheduleIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingestFile(path)
	})
}

func (w *Watcher) ingestFile(path string) {
	ctx, cancel := context.WithTimeout(context.Background(), watchIngestTimeout)
	defer cancel()

	text, err := w.extractor.Extract(ctx, path)
	if err != nil {
		if errors.Is(err, core.ErrEmptyText) {
			w.logger.Debug("watched file empty, skipped", "path", path)
			return
		}
		w.logger.Error("error extracting watched file", "path", path, "err", err)
		return
	}

	doc, err := w.orchestrator.Ingest(ctx, text, IngestOptions{
		Title:    filepath.Base(path),
		Filename: filepath.Base(path),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateDocument) {
			w.logger.Debug("watched file already ingested", "path", path)
			return
		}
		w.logger.Error("error ingesting watched file", "path", path, "err", err)
		return
	}
	w.logger.Info("watched file ingested", "document", doc.Id, "path", path)
}
