package ecto

import (
	"context"
	"sync"

	"github.com/zoobzio/capitan"
)

// task is the unit of scheduling: an opaque closure posted to the pool or to
// a strand serializer.
type task func()

// serializer guarantees that tasks posted through it run one at a time, in
// FIFO order, on the pool's own worker goroutines — never spawning a
// dedicated goroutine of its own. It is a small mailbox/actor-drain loop: at
// most one "drain" task is ever outstanding on the pool per serializer, so
// two tasks belonging to the same strand can never execute concurrently
// even though they may be picked up by different workers over time.
type serializer struct {
	mu      sync.Mutex
	queue   []task
	running bool
	pool    *pool
}

func newSerializer(p *pool) *serializer {
	return &serializer{pool: p}
}

// post enqueues t for serialized execution. If no drain loop is currently
// active for this serializer, one is posted to the pool.
func (s *serializer) post(t task) {
	s.mu.Lock()
	s.queue = append(s.queue, t)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()
	s.pool.post(s.drain)
}

// drain runs as a single pool task and processes the serializer's queue
// until empty, preserving posted-task order and single-flight execution.
func (s *serializer) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		next()
	}
}

// strandRegistry maps a StrandID to its serializer, lazily allocating one on
// first post. It is owned by a single pool (executor context) and is
// recreated fresh on every Scheduler.Execute call — it never outlives the
// run it belongs to, satisfying the "strand registry is empty after Execute
// returns" property (P7) trivially: the registry itself is discarded.
type strandRegistry struct {
	mu   sync.Mutex
	sers map[StrandID]*serializer
	pool *pool
}

func newStrandRegistry(p *pool) *strandRegistry {
	return &strandRegistry{
		sers: make(map[StrandID]*serializer),
		pool: p,
	}
}

// get returns the serializer for id, allocating one on first use. Matches
// the original on_strand's lazy-allocate-then-reuse behavior.
func (r *strandRegistry) get(ctx context.Context, id StrandID) *serializer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sers[id]; ok {
		return s
	}
	s := newSerializer(r.pool)
	r.sers[id] = s
	capitan.Debug(ctx, SignalStrandAllocated, FieldStrand.Field(string(id)))
	return s
}

// len reports how many distinct strands have been allocated this run; used
// only for diagnostics/tests, not by the scheduling protocol itself.
func (r *strandRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sers)
}
