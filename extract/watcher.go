package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// eventChannelBuffer is the size of the watch event channel.
const eventChannelBuffer = 128

// WatchConfig configures source document watching.
type WatchConfig struct {
	// DebounceDelay is how long to wait for more changes before emitting.
	DebounceDelay time.Duration `yaml:"debounce_delay"`

	// Extensions lists file extensions that trigger re-extraction.
	Extensions []string `yaml:"extensions"`

	// ExcludeDirs lists directory names to skip.
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// DefaultWatchConfig returns default watch configuration.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay: 500 * time.Millisecond,
		Extensions:    []string{".md", ".markdown", ".txt", ".html", ".htm"},
		ExcludeDirs:   []string{".git", "node_modules", "vendor"},
	}
}

// WatchEvent signals that source documents changed and extraction should
// run again.
type WatchEvent struct {
	// Paths lists the changed files, deduplicated within the debounce
	// window.
	Paths []string
}

// Watcher watches source document roots and emits debounced change events.
// Content hashes suppress events for writes that did not change bytes.
type Watcher struct {
	config  WatchConfig
	roots   []string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	extensions map[string]bool
	excludes   map[string]bool

	pendingMu sync.Mutex
	pending   map[string]bool

	hashMu sync.Mutex
	hashes map[string]string

	events chan WatchEvent
}

// NewWatcher creates a watcher over the given root directories.
func NewWatcher(roots []string, cfg WatchConfig) (*Watcher, error) {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultWatchConfig().DebounceDelay
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultWatchConfig().Extensions
	}
	if len(cfg.ExcludeDirs) == 0 {
		cfg.ExcludeDirs = DefaultWatchConfig().ExcludeDirs
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		config:     cfg,
		roots:      roots,
		watcher:    fsw,
		logger:     slog.Default(),
		extensions: make(map[string]bool),
		excludes:   make(map[string]bool),
		pending:    make(map[string]bool),
		hashes:     make(map[string]string),
		events:     make(chan WatchEvent, eventChannelBuffer),
	}
	for _, ext := range cfg.Extensions {
		w.extensions[strings.ToLower(ext)] = true
	}
	for _, dir := range cfg.ExcludeDirs {
		w.excludes[dir] = true
	}
	return w, nil
}

// SetLogger sets the logger for the watcher.
func (w *Watcher) SetLogger(logger *slog.Logger) {
	w.logger = logger
}

// Events returns the channel of debounced change events.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start registers all root directories and begins watching until ctx is
// cancelled. It returns after the watch goroutines have started.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addRecursive(root); err != nil {
			return fmt.Errorf("watch root %q: %w", root, err)
		}
	}

	go w.loop(ctx)
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.excludes[d.Name()] {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.watcher.Close()
	defer close(w.events)

	timer := time.NewTimer(w.config.DebounceDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.pendingMu.Lock()
			w.pending[event.Name] = true
			w.pendingMu.Unlock()
			timer.Reset(w.config.DebounceDelay)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// relevant filters events down to meaningful changes of watched file types.
// New directories are added to the watch set as a side effect.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.excludes[filepath.Base(event.Name)] {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("watch new directory", "path", event.Name, "error", err)
				}
			}
			return false
		}
	}

	if !w.extensions[strings.ToLower(filepath.Ext(event.Name))] {
		return false
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && !w.contentChanged(event.Name) {
		return false
	}
	return true
}

// contentChanged hashes the file and reports whether its bytes differ from
// the last observation.
func (w *Watcher) contentChanged(path string) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	if w.hashes[path] == hash {
		return false
	}
	w.hashes[path] = hash
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	select {
	case w.events <- WatchEvent{Paths: paths}:
	case <-ctx.Done():
	default:
		w.logger.Warn("event channel full, dropping change event", "paths", len(paths))
	}
}
