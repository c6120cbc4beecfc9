package pool

import (
	"sync/atomic"
	"time"
)

// Handle is the caller-visible pooled-connection wrapper of spec.md §4.2.
// Backend packages embed Handle (or hold one) to build their typed
// connection wrapper, overriding only Close/IsClosed/ReturnToPool — the
// three methods spec.md §4.2 calls out — while every backend-specific
// operation forwards straight to Physical.
type Handle[P Physical] struct {
	// Physical is the underlying physical connection. Backend wrappers
	// call straight through to it for every backend-specific operation,
	// calling Touch beforehand so expiry timers track real activity
	// rather than wall-clock-since-creation (spec.md §4.2).
	Physical P

	pool      *Pool[P]
	poolAlive *atomic.Bool
	entry     *entry[P]
	closed    atomic.Bool
}

// Touch refreshes last_used_at. Backend wrappers call this at the top of
// every forwarded operation.
func (h *Handle[P]) Touch() {
	h.entry.touch()
}

// CreatedAt returns when the underlying physical connection was created.
func (h *Handle[P]) CreatedAt() time.Time {
	return h.entry.CreatedAt()
}

// LastUsedAt returns the last time an operation was forwarded through
// this handle (or a prior handle over the same entry).
func (h *Handle[P]) LastUsedAt() time.Time {
	return h.entry.LastUsedAt()
}

// IsPooled always reports true for a Handle: every Handle comes from a Pool.
func (h *Handle[P]) IsPooled() bool { return true }

// GetURL returns the physical connection's URL.
func (h *Handle[P]) GetURL() string { return h.Physical.URL() }

// Close means "release this handle back to the pool" (spec.md §4.2). It is
// a compare-and-swap on closed so repeated Close calls are idempotent. If
// the pool is alive and the return re-queues the entry, closed flips back
// to false so the handle stays usable by its next borrower — the same
// object is reused, matching spec.md's wrapper lifecycle (Borrowed→Idle
// loop on the identical wrapper instance). If the pool is dead, the
// physical connection is closed unconditionally.
func (h *Handle[P]) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if h.poolAlive.Load() && h.pool != nil {
		requeued, err := h.pool.doReturn(h.entry)
		if requeued {
			h.closed.Store(false)
		}
		return err
	}
	return h.Physical.Close()
}

// IsClosed reports true if Close has been observed on this handle, or the
// underlying physical connection itself reports closed.
func (h *Handle[P]) IsClosed() bool {
	return h.closed.Load() || h.Physical.IsClosed()
}

// ReturnToPool is the explicit release operation: same contract as Close
// but it never closes the physical connection even if the pool is dead —
// spec.md §4.2 distinguishes this from the implicit-release Close.
func (h *Handle[P]) ReturnToPool() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if h.poolAlive.Load() && h.pool != nil {
		requeued, err := h.pool.doReturn(h.entry)
		if requeued {
			h.closed.Store(false)
		}
		return err
	}
	return nil
}
