package ecto

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
)

// RespawnFunc decides, given the number of times an invoker has fired its
// cell so far, whether it should be given another chance to fire. It is the
// distilled spec's respawn predicate R(n_calls).
type RespawnFunc func(calls int) bool

// Unbounded always permits another invocation.
func Unbounded() RespawnFunc {
	return func(int) bool { return true }
}

// Bounded permits invocation while calls < n, the distilled spec's
// "Bounded{max_calls: N}" policy.
func Bounded(n int) RespawnFunc {
	return func(calls int) bool { return calls < n }
}

// invoker is per-vertex scheduler state: the three-state machine (Polling /
// Firing / Idle wait) described in §4.4. Exactly one invoker exists per
// graph vertex for the lifetime of a single Scheduler.Execute call.
type invoker struct {
	ctx     context.Context
	graph   *Graph
	vertex  VertexID
	cell    CellHandle
	pool    *pool
	respawn RespawnFunc

	// mu guards reentry: the invoker is logically single-threaded, even
	// though poll and invoke may each run on whichever worker happens to
	// pick up the corresponding task. It is held across the firing-predicate
	// check and the post decision in poll, and separately across the whole
	// of invoke, per §4.4's lock discipline — never across the idle-wait
	// timer.
	mu    sync.Mutex
	calls int
}

func newInvoker(ctx context.Context, g *Graph, v VertexID, p *pool, respawn RespawnFunc) *invoker {
	return &invoker{
		ctx:     ctx,
		graph:   g,
		vertex:  v,
		cell:    g.cellOf(v),
		pool:    p,
		respawn: respawn,
	}
}

// poll is both the invoker's initial task and its recurring re-check: it
// corresponds to the source's async_wait_for_input, which re-evaluates
// readiness identically whether it is the seeding call from execute() or a
// later re-post. The invoker lock is held across the firing-predicate check
// and the post decision, released before Idle wait's timer is armed.
func (inv *invoker) poll() {
	inv.mu.Lock()

	capitan.Debug(inv.ctx, SignalInvokerPolling, FieldVertex.Field(inv.cell.Name()), FieldCalls.Field(inv.calls))

	if inv.graph.fireable(inv.vertex) {
		capitan.Debug(inv.ctx, SignalInvokerFiring, FieldVertex.Field(inv.cell.Name()), FieldCalls.Field(inv.calls))
		inv.postInvoke()
		inv.mu.Unlock()
		return
	}

	inv.mu.Unlock()
	inv.scheduleIdleWait()
}

// postInvoke dispatches invoke onto the cell's strand serializer if it has
// one, or directly onto the free pool otherwise. Called under the invoker
// lock, per the lock-discipline note in §4.4 — the decision of *where* to
// post is made atomically with the readiness check, though invoke itself
// reacquires the lock independently once it actually runs.
func (inv *invoker) postInvoke() {
	if id, ok := inv.cell.Strand(); ok {
		s := inv.pool.strands.get(inv.ctx, id)
		s.post(inv.invoke)
		return
	}
	inv.pool.post(inv.invoke)
}

// scheduleIdleWait arms a non-blocking timer that re-posts poll to the pool
// once it fires, never blocking a worker goroutine for the idle delay —
// the "post-back" variant the distilled spec's Design Notes mandate over the
// source's occasional blocking deadline_timer.wait().
func (inv *invoker) scheduleIdleWait() {
	capitan.Debug(inv.ctx, SignalInvokerIdleWait, FieldVertex.Field(inv.cell.Name()))
	inv.pool.idleWait(inv.ctx, func() {
		inv.pool.post(inv.poll)
	})
}

// invoke runs one firing of the cell under the invoker lock (held
// separately from the firing-predicate check in poll, per §4.4's lock
// discipline), then decides whether to respawn.
//
// A failing Process call mirrors the source exactly: an exception escaping
// process() propagates straight out of invoke() before n_calls is
// incremented or respawn is consulted (threadpool.cpp's invoke() only
// reaches "++n_calls; if (respawn(...))" once process() has returned
// normally). So on error, calls is left at its pre-call value and this
// invoker's lifecycle ends without ever asking respawn for another turn.
func (inv *invoker) invoke() {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	err := inv.callCell()
	if err != nil {
		inv.pool.metrics.Counter(MetricCellErrorsTotal).Inc()
		failure := classifyErr(inv.cell.Name(), inv.calls+1, err)
		if _, ok := failure.(*InvariantViolation); ok {
			inv.pool.metrics.Counter(MetricInvariantTotal).Inc()
		}
		_ = inv.pool.hooks.Emit(inv.ctx, EventCellError, SchedulerEvent{ //nolint:errcheck
			Vertex: inv.cell.Name(),
			Calls:  inv.calls,
			Err:    failure,
		})
		inv.pool.fail(inv.ctx, failure)
		inv.finish()
		return
	}

	inv.calls++
	inv.pool.metrics.Counter(MetricInvocationsTotal).Inc()

	if inv.respawn(inv.calls) {
		inv.pool.post(inv.poll)
		return
	}
	inv.finish()
}

// finish ends this invoker's lifecycle: no further tasks are ever posted for
// it, satisfying respawn monotonicity. It notifies the pool so a
// fully-drained, all-invokers-denied run can shut down cleanly even though
// no cell ever errored.
func (inv *invoker) finish() {
	capitan.Debug(inv.ctx, SignalInvokerFinished, FieldVertex.Field(inv.cell.Name()), FieldCalls.Field(inv.calls))
	_ = inv.pool.hooks.Emit(inv.ctx, EventVertexFinished, SchedulerEvent{ //nolint:errcheck
		Vertex: inv.cell.Name(),
		Calls:  inv.calls,
	})
	inv.pool.invokerFinished(inv.ctx)
}

// callCell invokes the cell's Process method, opening a trace span and
// recovering any panic into a regular error — the teacher stack's
// recoverFromPanic convention, applied to cell bodies instead of connector
// bodies.
func (inv *invoker) callCell() (err error) {
	_, span := inv.pool.tracer.StartSpan(inv.ctx, SpanInvoke)
	defer span.Finish()

	defer func() {
		if r := recover(); r != nil {
			err = &recoveredPanic{value: r}
		}
	}()
	return inv.cell.Process(inv.ctx)
}

// recoveredPanic marks an error as having originated from a recovered
// panic, so classifyErr can set CellFailure.Recovered accurately.
type recoveredPanic struct{ value any }

func (p *recoveredPanic) Error() string { return fmt.Sprintf("panic: %v", p.value) }

// classifyErr wraps err as an *InvariantViolation if it already is one
// (propagated unchanged from a Channel push/pop), or as a *CellFailure
// otherwise.
func classifyErr(vertex string, calls int, err error) error {
	if iv, ok := err.(*InvariantViolation); ok {
		if iv.Vertex == "" {
			iv.Vertex = vertex
		}
		if iv.Timestamp.IsZero() {
			iv.Timestamp = time.Now()
		}
		return iv
	}
	_, recovered := err.(*recoveredPanic)
	return &CellFailure{
		Timestamp: time.Now(),
		Err:       err,
		Vertex:    vertex,
		Calls:     calls,
		Recovered: recovered,
	}
}
