// Package watch re-runs validation whenever an experiment document
// changes on disk. It watches the containing directory rather than the
// file itself so that editor save strategies (write to a temp file,
// then rename over the original) still produce events.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const eventChannelBuffer = 16

// DefaultDebounce is how long to wait for further writes before
// emitting a change. Editors often produce several events per save.
const DefaultDebounce = 300 * time.Millisecond

// Event signals that the watched document changed content.
type Event struct {
	Path string
	Hash string
}

// Watcher observes a single experiment document for content changes.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   bool

	lastHash string
	events   chan Event
}

// New creates a watcher for the document at path. A non-positive
// debounce uses DefaultDebounce.
func New(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		events:   make(chan Event, eventChannelBuffer),
	}, nil
}

// Events returns the channel of debounced change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching. The events channel closes when ctx is
// cancelled or the watcher is stopped.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	if content, err := os.ReadFile(w.path); err == nil {
		w.lastHash = contentHash(content)
	}

	go w.processEvents(ctx)

	w.logger.Info("watching document",
		"path", w.path,
		"debounce", w.debounce)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.pendingMu.Lock()
	w.pending = true
	w.pendingMu.Unlock()

	w.logger.Debug("document change detected", "op", event.Op.String())
}

// flushPending emits one event for any accumulated writes, but only
// when the file content actually changed.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	dirty := w.pending
	w.pending = false
	w.pendingMu.Unlock()
	if !dirty {
		return
	}

	content, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("failed to read changed document",
			"path", w.path,
			"error", err)
		return
	}

	hash := contentHash(content)
	if hash == w.lastHash {
		return
	}
	w.lastHash = hash

	select {
	case w.events <- Event{Path: w.path, Hash: hash}:
	default:
		w.logger.Warn("event channel full, dropping change", "path", w.path)
	}
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
