// Package uploader sends image files to the backend gallery from a queue
// served by a fixed pool of workers.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/jasperwreed/pixel-chat/internal/api"
	"github.com/jasperwreed/pixel-chat/internal/watcher"
)

// ErrQueueFull is returned by Enqueue when no worker frees a slot in time.
var ErrQueueFull = errors.New("upload queue full")

// ImageUploader is the part of the API client the uploader needs.
type ImageUploader interface {
	Upload(ctx context.Context, path string, opts api.UploadOptions) (*api.UploadResponse, error)
}

// Config holds configuration for the uploader
type Config struct {
	Workers   int
	QueueSize int
	Options   api.UploadOptions
}

func DefaultConfig() Config {
	return Config{
		Workers:   2,
		QueueSize: 100,
		Options:   api.UploadOptions{AutoIndex: true},
	}
}

// Result describes one finished upload attempt.
type Result struct {
	Path    string
	ImageID string
	Err     error
}

// Metrics tracks uploader progress
type Metrics struct {
	Queued       int64     `json:"queued"`
	Uploaded     int64     `json:"uploaded"`
	Failed       int64     `json:"failed"`
	Skipped      int64     `json:"skipped"`
	Dropped      int64     `json:"dropped"`
	StartTime    time.Time `json:"start_time"`
	LastUploadAt time.Time `json:"last_upload_at"`
}

type Uploader struct {
	client   ImageUploader
	config   Config
	queue    chan string
	onResult func(Result)
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	seen    map[string]bool
	metrics Metrics

	// queueMu is held for reading while sending on queue and for writing
	// while closing it.
	queueMu sync.RWMutex
	closed  bool
}

// New creates an uploader. onResult, when non-nil, is called from the
// worker goroutines after every attempt.
func New(client ImageUploader, config Config, onResult func(Result), logger *slog.Logger) *Uploader {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Uploader{
		client:   client,
		config:   config,
		queue:    make(chan string, config.QueueSize),
		onResult: onResult,
		logger:   logger.With("component", "uploader"),
		ctx:      ctx,
		cancel:   cancel,
		seen:     make(map[string]bool),
		metrics:  Metrics{StartTime: time.Now()},
	}
}

// Start starts the upload workers
func (u *Uploader) Start() {
	for i := 0; i < u.config.Workers; i++ {
		u.wg.Add(1)
		go u.processQueue()
	}
}

// Stop lets the workers drain the queue and waits for them.
func (u *Uploader) Stop() {
	u.queueMu.Lock()
	if u.closed {
		u.queueMu.Unlock()
		return
	}
	u.closed = true
	close(u.queue)
	u.queueMu.Unlock()

	u.wg.Wait()
	u.cancel()
}

// Abort cancels in-flight uploads and stops without draining.
func (u *Uploader) Abort() {
	u.cancel()
	u.Stop()
}

// Enqueue schedules path for upload. A path that was already queued or
// uploaded is skipped; a failed upload may be queued again. When no slot
// frees up within a short wait the path is dropped with ErrQueueFull.
func (u *Uploader) Enqueue(path string) error {
	ctx, cancel := context.WithTimeout(u.ctx, 100*time.Millisecond)
	defer cancel()
	return u.enqueue(ctx, path, ErrQueueFull)
}

// EnqueueWait is like Enqueue but waits for a free slot until ctx is done
// or the uploader is aborted.
func (u *Uploader) EnqueueWait(ctx context.Context, path string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(u.ctx, cancel)
	defer stop()
	return u.enqueue(ctx, path, nil)
}

func (u *Uploader) enqueue(ctx context.Context, path string, errFull error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	u.queueMu.RLock()
	defer u.queueMu.RUnlock()
	if u.closed {
		return fmt.Errorf("uploader stopped")
	}

	u.mu.Lock()
	if u.seen[abs] {
		u.metrics.Skipped++
		u.mu.Unlock()
		return nil
	}
	u.seen[abs] = true
	u.mu.Unlock()

	select {
	case u.queue <- abs:
		u.mu.Lock()
		u.metrics.Queued++
		u.mu.Unlock()
		return nil
	case <-ctx.Done():
		u.mu.Lock()
		u.metrics.Dropped++
		delete(u.seen, abs)
		u.mu.Unlock()
		if errFull != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errFull
		}
		return fmt.Errorf("enqueue %s: %w", abs, ctx.Err())
	}
}

// HandleEvent adapts Enqueue to a watcher.EventHandler. Images found by
// the initial scan wait for a free slot rather than being dropped.
func (u *Uploader) HandleEvent(event watcher.Event) error {
	if event.Existing {
		return u.EnqueueWait(u.ctx, event.Path)
	}
	return u.Enqueue(event.Path)
}

// Snapshot returns a copy of the counters.
func (u *Uploader) Snapshot() Metrics {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.metrics
}

// processQueue uploads paths until the queue is closed
func (u *Uploader) processQueue() {
	defer u.wg.Done()

	for path := range u.queue {
		result := u.upload(path)
		if u.onResult != nil {
			u.onResult(result)
		}
	}
}

func (u *Uploader) upload(path string) Result {
	resp, err := u.client.Upload(u.ctx, path, u.config.Options)

	u.mu.Lock()
	defer u.mu.Unlock()

	if err != nil {
		u.metrics.Failed++
		delete(u.seen, path)
		u.logger.Warn("upload failed", "path", path, "error", err)
		return Result{Path: path, Err: err}
	}

	u.metrics.Uploaded++
	u.metrics.LastUploadAt = time.Now()
	u.logger.Info("uploaded image", "path", path, "image_id", resp.Data.ID)
	return Result{Path: path, ImageID: resp.Data.ID}
}
