package ecto

import (
	"context"
	"sync"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for the scheduler's pool, following the teacher stack's
// metricz.Key convention (see WorkerPool/Backoff in the teacher library).
var (
	MetricInvocationsTotal = metricz.Key("scheduler.invocations.total")
	MetricCellErrorsTotal  = metricz.Key("scheduler.cell_errors.total")
	MetricInvariantTotal   = metricz.Key("scheduler.invariant_violations.total")
	MetricActiveWorkers    = metricz.Key("scheduler.active_workers")
)

// Trace span keys.
var (
	SpanInvoke = tracez.Key("scheduler.invoke")
)

// SchedulerEvent is emitted on the scheduler's hooks when a cell fails or a
// vertex's invoker finishes, mirroring the teacher stack's Backoff/Handle
// event-struct-plus-hookz pattern.
type SchedulerEvent struct {
	Vertex Name
	Calls  int
	Err    error
}

// Hook event keys.
var (
	EventCellError      = hookz.Key("scheduler.cell_error")
	EventVertexFinished = hookz.Key("scheduler.vertex_finished")
)

// pool is the executor context: the task queue, worker goroutines, strand
// registry, and single-slot error capture described in §4.5/§4.6. A fresh
// pool is built for every Scheduler.Execute call — "reset the executor
// context" in the distilled spec's step 1 of execute().
type pool struct {
	mu           sync.Mutex
	cond         *sync.Cond
	queue        []task
	shuttingDown bool

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	joined     chan struct{}
	joinedOnce sync.Once

	active int64 // remaining invokers still allowed to respawn

	strands *strandRegistry
	clock   clockz.Clock
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[SchedulerEvent]

	idleWait func(ctx context.Context, repost func())
}

func newPool(clock clockz.Clock, metrics *metricz.Registry, tracer *tracez.Tracer, hooks *hookz.Hooks[SchedulerEvent], idleWait func(context.Context, func())) *pool {
	metrics.Counter(MetricInvocationsTotal)
	metrics.Counter(MetricCellErrorsTotal)
	metrics.Counter(MetricInvariantTotal)
	metrics.Gauge(MetricActiveWorkers)

	p := &pool{
		joined:   make(chan struct{}),
		clock:    clock,
		metrics:  metrics,
		tracer:   tracer,
		hooks:    hooks,
		idleWait: idleWait,
	}
	p.cond = sync.NewCond(&p.mu)
	p.strands = newStrandRegistry(p)
	return p
}

// post enqueues t for execution by a worker. Posting after shutdown has
// begun is a silent no-op: the task queue must never block a poster, and a
// shut-down pool has already decided no further cell work will run.
func (p *pool) post(t task) {
	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, t)
	p.mu.Unlock()
	p.cond.Signal()
}

// start spawns nThreads worker goroutines draining the shared queue.
func (p *pool) start(ctx context.Context, nThreads int) {
	p.wg.Add(nThreads)
	for i := 0; i < nThreads; i++ {
		go p.worker(ctx)
	}
	go p.joiner()
}

func (p *pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.shuttingDown {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			// shuttingDown and drained.
			p.mu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		t()
	}
}

// joiner waits for every worker to exit, then signals the distinct
// completion condition the Design Notes call for — decoupled from the error
// slot, so execute()'s wait never blocks forever even on a clean run with no
// error at all. Mirrors the original threadpool_joiner, minus its sentinel
// "IS NO ERROR, EES JOINED" exception hack.
func (p *pool) joiner() {
	p.wg.Wait()
	p.joinedOnce.Do(func() { close(p.joined) })
}

// awaitJoin blocks until every worker has exited.
func (p *pool) awaitJoin() {
	<-p.joined
}

// fail records err as the run's terminal error (first-writer-wins) and
// begins shutdown: the queue is cleared so P7's "task queue is drained"
// holds even under an exceptional termination, and no further posts are
// accepted. In-flight tasks already dequeued by a worker run to completion,
// per the distilled spec's cancellation semantics.
func (p *pool) fail(ctx context.Context, err error) {
	p.errMu.Lock()
	first := p.err == nil
	if first {
		p.err = err
	}
	p.errMu.Unlock()

	if !first {
		capitan.Warn(ctx, SignalSchedulerError, FieldError.Field("additional error dropped: "+err.Error()))
		return
	}
	capitan.Error(ctx, SignalSchedulerError, FieldError.Field(err.Error()))

	p.mu.Lock()
	p.shuttingDown = true
	p.queue = nil
	p.mu.Unlock()
	p.cond.Broadcast()
}

// Err returns the first captured error, or nil on a clean run.
func (p *pool) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

// invokerFinished is called exactly once per invoker when its lifecycle
// ends, either because its respawn predicate denied further invocation or
// because its cell failed. Once every invoker has
// finished, no more tasks will ever be posted, so the pool begins a normal
// shutdown: workers still blocked on the condition variable need to be woken
// so they can observe the empty, shut-down queue and exit.
func (p *pool) invokerFinished(ctx context.Context) {
	remaining := p.decrementActive()
	if remaining > 0 {
		return
	}
	capitan.Info(ctx, SignalSchedulerJoined, FieldQueueDepth.Field(0))
	p.mu.Lock()
	p.shuttingDown = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

func (p *pool) decrementActive() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active--
	return p.active
}
