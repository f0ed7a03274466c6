// Package dedupe defines the interface for ingest idempotency tracking.
//
// The event log is append-only and producers may retry, so the ingest
// path needs at-most-once admission by event id before anything reaches
// the queue.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen event IDs to ensure at-most-once ingestion.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if
	// not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set so a failed event can be
	// retried, e.g. after queue backpressure.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

const defaultMaxSize = 50000

// inMemoryDeduper implements Deduper with a map plus a FIFO ring of
// insertion order. Bounded mode (maxSize > 0) evicts the oldest entry
// when full; maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // FIFO ring, bounded mode only
	head    int
	count   int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		if d.count == d.maxSize {
			// A slot blanked by Unrecord was already deducted from size.
			oldest := d.order[d.head]
			if _, ok := d.seen[oldest]; ok {
				delete(d.seen, oldest)
				d.size.Add(-1)
			}
			d.head = (d.head + 1) % d.maxSize
			d.count--
		}
		d.order[(d.head+d.count)%d.maxSize] = id
		d.count++
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
	// The ring slot stays behind as a tombstone; eviction re-checks the
	// map so a stale slot only wastes one eviction step.
	if d.maxSize > 0 {
		for i := 0; i < d.count; i++ {
			idx := (d.head + i) % d.maxSize
			if d.order[idx] == id {
				d.order[idx] = ""
				break
			}
		}
	}
}

// Size returns the current number of recorded IDs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
