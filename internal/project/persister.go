package project

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/lingua-drome/internal/kv"
	"go.uber.org/zap"
)

// Persister writes serialized snapshots to durable storage
type Persister interface {
	// Persist records snapshot as the successor of base, the value last seen
	// in durable storage (nil when nothing was stored). A write that finds
	// something other than base stored fails with ErrStaleProject.
	Persist(ctx context.Context, base, snapshot []byte) error
	// Pending reports whether a snapshot has been accepted but not yet written
	Pending() bool
	// Flush writes anything still pending
	Flush(ctx context.Context) error
	// Close flushes and stops background work
	Close() error
}

// SyncPersister writes every snapshot immediately
type SyncPersister struct {
	store kv.Store
	key   string
}

// NewSyncPersister creates a persister that writes under key on every call
func NewSyncPersister(store kv.Store, key string) *SyncPersister {
	return &SyncPersister{store: store, key: key}
}

func (p *SyncPersister) Persist(ctx context.Context, base, snapshot []byte) error {
	ok, err := p.store.CompareAndSwap(ctx, p.key, base, snapshot)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStaleProject
	}
	return nil
}

func (p *SyncPersister) Pending() bool                   { return false }
func (p *SyncPersister) Flush(ctx context.Context) error { return nil }
func (p *SyncPersister) Close() error                    { return nil }

// DebouncedPersister coalesces snapshots and writes only the latest one once
// no new snapshot has arrived for the configured delay. The write is checked
// against the base of the first coalesced snapshot; when another writer got
// there first the batch is dropped and the error is kept for Flush.
type DebouncedPersister struct {
	store  kv.Store
	key    string
	delay  time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	base     []byte
	pending  []byte
	inflight bool
	timer    *time.Timer
	closed  bool
	lastErr error
	wg      sync.WaitGroup

	// writeMu keeps writes in the order snapshots were taken
	writeMu sync.Mutex
}

// NewDebouncedPersister creates a persister that writes after delay of quiet
func NewDebouncedPersister(store kv.Store, key string, delay time.Duration, logger *zap.Logger) *DebouncedPersister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DebouncedPersister{store: store, key: key, delay: delay, logger: logger}
}

func (p *DebouncedPersister) Persist(ctx context.Context, base, snapshot []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("persister is closed")
	}
	if p.pending == nil {
		p.base = base
	}
	p.pending = snapshot
	if p.timer != nil {
		if p.timer.Stop() {
			p.timer.Reset(p.delay)
			return nil
		}
		// Already fired; the running flush picks up the new pending value
		// or a fresh timer is armed below.
	}
	p.wg.Add(1)
	p.timer = time.AfterFunc(p.delay, func() {
		defer p.wg.Done()
		if err := p.write(context.Background()); err != nil {
			p.logger.Error("debounced_persist_failed", zap.Error(err))
		}
	})
	return nil
}

// write takes the pending snapshot and stores it
func (p *DebouncedPersister) write(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	data, base := p.pending, p.base
	p.pending = nil
	p.inflight = data != nil
	p.mu.Unlock()

	if data == nil {
		return nil
	}
	ok, err := p.store.CompareAndSwap(ctx, p.key, base, data)
	if err == nil && !ok {
		err = ErrStaleProject
	}
	p.mu.Lock()
	p.inflight = false
	p.lastErr = err
	p.mu.Unlock()
	return err
}

// Pending reports whether a snapshot is queued or being written
func (p *DebouncedPersister) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != nil || p.inflight
}

// Flush writes the pending snapshot now
func (p *DebouncedPersister) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.timer != nil && p.timer.Stop() {
		p.wg.Done()
	}
	p.timer = nil
	p.mu.Unlock()

	if err := p.write(ctx); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close flushes pending data and waits for any in-flight write
func (p *DebouncedPersister) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := p.Flush(ctx)
	p.wg.Wait()
	return err
}
