package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must stay untouched before it is
// reported, so half-written copies are not picked up.
const DefaultSettle = 750 * time.Millisecond

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// IsImage reports whether path has one of the image extensions the
// backend accepts.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Event is a settled image file in the watched directory.
type Event struct {
	Path      string    `json:"path"`
	Existing  bool      `json:"existing"` // found by the initial scan
	Timestamp time.Time `json:"timestamp"`
}

// EventHandler processes image events
type EventHandler func(event Event) error

// DirWatcher reports image files created or rewritten in one directory.
type DirWatcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	settle   time.Duration
	handlers []EventHandler
	pending  map[string]time.Time
	logger   *slog.Logger
	mu       sync.RWMutex
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewDirWatcher creates a watcher for dir. A non-positive settle uses
// DefaultSettle.
func NewDirWatcher(dir string, settle time.Duration, logger *slog.Logger) (*DirWatcher, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}

	stat, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid directory: %w", err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DirWatcher{
		watcher: fsWatcher,
		dir:     dir,
		settle:  settle,
		pending: make(map[string]time.Time),
		logger:  logger.With("component", "watcher", "dir", dir),
		stopCh:  make(chan struct{}),
	}, nil
}

func (w *DirWatcher) Dir() string {
	return w.dir
}

// AddHandler adds an event handler
func (w *DirWatcher) AddHandler(handler EventHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// ScanExisting reports the images already in the directory.
func (w *DirWatcher) ScanExisting() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to scan directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsImage(entry.Name()) {
			continue
		}
		w.notifyHandlers(Event{
			Path:      filepath.Join(w.dir, entry.Name()),
			Existing:  true,
			Timestamp: time.Now(),
		})
	}
	return nil
}

// Start begins watching for file changes
func (w *DirWatcher) Start() {
	w.wg.Add(1)
	go w.watchLoop()

	w.wg.Add(1)
	go w.settleLoop()
}

// Stop stops the watcher. Files still settling are dropped.
func (w *DirWatcher) Stop() error {
	close(w.stopCh)
	w.wg.Wait()
	return w.watcher.Close()
}

// watchLoop monitors file system events
func (w *DirWatcher) watchLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !IsImage(event.Name) {
				continue
			}

			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.mu.Lock()
				w.pending[event.Name] = time.Now()
				w.mu.Unlock()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.mu.Lock()
				delete(w.pending, event.Name)
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// settleLoop reports pending files once they stop changing.
func (w *DirWatcher) settleLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				w.notifyHandlers(Event{Path: path, Timestamp: now})
			}
		}
	}
}

func (w *DirWatcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

// notifyHandlers sends event to all registered handlers
func (w *DirWatcher) notifyHandlers(event Event) {
	w.mu.RLock()
	handlers := make([]EventHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			w.logger.Warn("handler error", "path", event.Path, "error", err)
		}
	}
}
