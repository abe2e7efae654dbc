package manager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/nibzard/taxocard/internal/report"
)

// RejectedSuffix is appended to an inbox card's name for its rejection report.
const RejectedSuffix = ".rejected.json"

// DefaultDebounce is the quiet period before a changed file is submitted.
const DefaultDebounce = 200 * time.Millisecond

// ErrWatcherClosed is returned by Run when file notifications stop before
// its context is done.
var ErrWatcherClosed = errors.New("inbox watcher closed")

// WatcherStats tracks inbox activity.
type WatcherStats struct {
	Events    int
	Submitted int
	Accepted  int
	Rejected  int
	Errors    int
	LastCard  string
	LastEvent time.Time
}

// Watcher submits cards dropped into an inbox directory. Accepted cards are
// removed from the inbox; anything else stays, next to a report explaining
// why.
type Watcher struct {
	mgr      *Manager
	dir      string
	debounce time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	stats   WatcherStats
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a changed file is submitted.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(logger *log.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher feeding mgr from dir.
func NewWatcher(mgr *Manager, dir string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		mgr:      mgr,
		dir:      dir,
		debounce: DefaultDebounce,
		logger:   mgr.logger,
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Stats returns a copy of the current counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Run watches the inbox until ctx is done. Cards already present when it
// starts are submitted first. It returns nil on cancellation and
// ErrWatcherClosed if notifications stop on their own.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching inbox", "dir", w.dir, "debounce", w.debounce)

	if err := w.drain(ctx); err != nil {
		return err
	}

	tick := w.debounce / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Inbox watcher stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			w.handleEvent(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.logger.Error("Watcher error", "err", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

// drain submits every card already in the inbox.
func (w *Watcher) drain(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil
		}
		if !e.IsDir() && isCard(e.Name()) {
			w.Process(ctx, filepath.Join(w.dir, e.Name()))
		}
	}
	return nil
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isCard(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.logger.Debug("Inbox event", "op", event.Op.String(), "path", event.Name)

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.stats.Events++
	w.stats.LastEvent = time.Now()
	w.mu.Unlock()
}

// processSettled submits files whose last event is older than the debounce.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	for _, path := range ready {
		w.Process(ctx, path)
	}
}

// Process submits one inbox file and files the outcome.
func (w *Watcher) Process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		w.logger.Error("Read inbox card", "path", path, "err", err)
		w.count(path, func(s *WatcherStats) { s.Errors++ })
		return
	}

	name := filepath.Base(path)
	result, err := w.mgr.Submit(ctx, data)
	w.count(path, func(s *WatcherStats) { s.Submitted++ })

	var rejected *RejectedError
	switch {
	case err == nil:
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			w.logger.Warn("Remove accepted card from inbox", "path", path, "err", rmErr)
		}
		os.Remove(path + RejectedSuffix)
		w.count(path, func(s *WatcherStats) { s.Accepted++ })
		w.logger.Info("Inbox card stored", "card", name)
	case errors.As(err, &rejected):
		w.writeReport(path, report.Entry{Card: name, Result: result})
		w.count(path, func(s *WatcherStats) { s.Rejected++ })
	default:
		w.writeReport(path, report.Entry{Card: name, Result: result, Error: err.Error()})
		w.count(path, func(s *WatcherStats) { s.Errors++ })
		w.logger.Error("Submit inbox card", "card", name, "err", err)
	}
}

func (w *Watcher) writeReport(path string, entry report.Entry) {
	var buf bytes.Buffer
	if err := report.Write(&buf, report.FormatJSON, []report.Entry{entry}); err != nil {
		w.logger.Error("Render rejection report", "card", entry.Card, "err", err)
		return
	}
	if err := writeFileAtomic(path+RejectedSuffix, buf.Bytes()); err != nil {
		w.logger.Error("Write rejection report", "card", entry.Card, "err", err)
	}
}

func (w *Watcher) count(path string, f func(*WatcherStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f(&w.stats)
	w.stats.LastCard = filepath.Base(path)
}

func isCard(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, ".html") && !strings.HasPrefix(base, ".")
}
