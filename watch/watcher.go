// Package watch re-checks C# sources as they change on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/memberorder/order"
	"github.com/c360studio/memberorder/schedule"
	"github.com/c360studio/memberorder/workspace"
)

// DefaultDebounceDelay matches the editor default for re-analysis.
const DefaultDebounceDelay = 300 * time.Millisecond

// Config configures the file watcher
type Config struct {
	// Matcher selects the watched root and the files checked under it
	Matcher *workspace.Matcher

	// Analyzer checks changed files
	Analyzer *order.Analyzer

	// DebounceDelay is how long a file must be quiet before it is checked
	DebounceDelay time.Duration

	// Logger for logging events
	Logger *slog.Logger
}

// Operation indicates the type of file operation
type Operation string

const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event is the outcome of checking one changed file.
type Event struct {
	// Path is the absolute file path
	Path string

	// Operation is the type of change
	Operation Operation

	// Version counts content changes seen for the path, starting at 1
	Version int

	// Violations found (nil for delete operations)
	Violations []order.Violation

	// Error if the file could not be read
	Error error
}

// Watcher watches a tree for C# changes and emits analysis results.
type Watcher struct {
	config    Config
	watcher   *fsnotify.Watcher
	logger    *slog.Logger
	debouncer *schedule.Debouncer

	// Operations seen since a path's last check
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Content hashes and versions for change detection
	stateMu  sync.Mutex
	hashes   map[string]string
	versions map[string]int

	sendMu sync.Mutex
	closed bool
	events chan Event
}

// NewWatcher creates a new file watcher
func NewWatcher(config Config) (*Watcher, error) {
	if config.Matcher == nil {
		return nil, fmt.Errorf("watcher requires a matcher")
	}
	if config.Analyzer == nil {
		config.Analyzer = order.NewAnalyzer(order.AnalyzerConfig{Logger: config.Logger})
	}
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = DefaultDebounceDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		config:    config,
		watcher:   fsw,
		logger:    logger,
		debouncer: schedule.New(config.DebounceDelay),
		pending:   make(map[string]fsnotify.Op),
		hashes:    make(map[string]string),
		versions:  make(map[string]int),
		events:    make(chan Event, 100),
	}, nil
}

// Events returns the channel of watch events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching the root for changes
func (w *Watcher) Start(ctx context.Context) error {
	root := w.config.Matcher.Root()
	if err := w.addWatchesRecursive(root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"root", root,
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop stops the watcher and closes the event channel.
func (w *Watcher) Stop() error {
	w.debouncer.Stop()
	err := w.watcher.Close()

	w.sendMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.events)
	}
	w.sendMu.Unlock()
	return err
}

// CheckAll checks every matched file under the root and records its content
// hash so later unchanged writes are ignored.
func (w *Watcher) CheckAll(ctx context.Context) ([]Event, error) {
	files, err := workspace.Discover(ctx, w.config.Matcher)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(files))
	for _, path := range files {
		event, changed := w.check(path, OpCreate)
		if changed {
			events = append(events, event)
		}
	}
	return events, nil
}

// addWatchesRecursive adds watches to all directories
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.config.Matcher.SkipDir(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

// processEvents handles fsnotify events until the context ends or the
// watcher is closed.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.debouncer.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFSEvent records a change and (re)starts the path's debounce delay.
func (w *Watcher) handleFSEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	if !w.config.Matcher.Match(path) {
		// New directories need their own watch
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected",
		"path", path,
		"op", event.Op.String())

	w.debouncer.Trigger(path, func() {
		if ctx.Err() != nil {
			return
		}
		w.flush(path)
	})
}

// handleNewDirectory adds a watch to a newly created directory
func (w *Watcher) handleNewDirectory(path string) {
	if w.config.Matcher.SkipDir(path) {
		return
	}

	if err := w.watcher.Add(path); err != nil {
		w.logger.Warn("Failed to watch new directory",
			"path", path,
			"error", err)
	} else {
		w.logger.Debug("Added watch for new directory", "path", path)
	}
}

// flush checks one path once its burst of changes has settled.
func (w *Watcher) flush(path string) {
	w.pendingMu.Lock()
	op := w.pending[path]
	delete(w.pending, path)
	w.pendingMu.Unlock()

	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			w.forget(path)
			w.sendEvent(Event{Path: path, Operation: OpDelete})
			return
		}
	}

	operation := OpModify
	if op.Has(fsnotify.Create) {
		operation = OpCreate
	}
	if event, changed := w.check(path, operation); changed {
		w.sendEvent(event)
	}
}

// check analyzes path when its content differs from the last check.
func (w *Watcher) check(path string, operation Operation) (Event, bool) {
	event := Event{Path: path, Operation: operation}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.forget(path)
			event.Operation = OpDelete
			return event, true
		}
		event.Error = fmt.Errorf("read file: %w", err)
		return event, true
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	w.stateMu.Lock()
	oldHash, hadHash := w.hashes[path]
	if hadHash && oldHash == hash {
		w.stateMu.Unlock()
		return event, false
	}
	w.hashes[path] = hash
	w.versions[path]++
	version := w.versions[path]
	w.stateMu.Unlock()

	if !hadHash {
		event.Operation = OpCreate
	}
	event.Version = version

	doc := order.NewTextDocument(path, version, "", string(content))
	event.Violations = w.config.Analyzer.Analyze(doc)
	return event, true
}

func (w *Watcher) forget(path string) {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()
	delete(w.hashes, path)
}

// sendEvent sends an event to the output channel
func (w *Watcher) sendEvent(event Event) {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()
	if w.closed {
		return
	}

	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event",
			"path", event.Path,
			"op", event.Operation,
			"violations", len(event.Violations))
	default:
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path)
	}
}
