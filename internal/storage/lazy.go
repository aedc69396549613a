package storage

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Lazy opens the conversation database on first use and hands the same
// handle to every later caller. Concurrent first callers share one open.
// A failed open is not remembered; the next Acquire tries again.
type Lazy struct {
	cfg   Config
	group singleflight.Group

	mu    sync.Mutex
	store *SQLiteStore
	open  func(Config) (*SQLiteStore, error)
}

func NewLazy(cfg Config) *Lazy {
	return &Lazy{cfg: cfg, open: NewSQLiteStore}
}

// Acquire returns the ready store, opening it if needed. The context only
// bounds the wait; an open already in flight keeps running for other callers.
func (l *Lazy) Acquire(ctx context.Context) (*SQLiteStore, error) {
	l.mu.Lock()
	store := l.store
	l.mu.Unlock()
	if store != nil {
		return store, nil
	}

	ch := l.group.DoChan("open", func() (any, error) {
		l.mu.Lock()
		if l.store != nil {
			s := l.store
			l.mu.Unlock()
			return s, nil
		}
		l.mu.Unlock()

		s, err := l.open(l.cfg)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.store = s
		l.mu.Unlock()
		return s, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*SQLiteStore), nil
	}
}

// Close releases the store if it was ever opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}
