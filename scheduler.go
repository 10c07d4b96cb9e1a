// Package ecto schedules a graph of opaque cells connected by capacity-1
// channels. A vertex fires its cell when every in-edge is full and every
// out-edge is empty; cells sharing a strand identity never run concurrently;
// a fixed-size worker pool drives every vertex's invoker until each one's
// respawn policy denies further invocation or a cell fails fatally.
package ecto

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Scheduler drives one or more Graph runs, owning the ambient stack
// (clock/metrics/tracer/hooks) shared across every Execute call. It is safe
// to reuse a single Scheduler for many sequential Execute calls — each call
// builds its own pool and invoker set, per §4.6's "reset the executor
// context" step.
type Scheduler struct {
	clock            clockz.Clock
	idleWaitInterval time.Duration
	metrics          *metricz.Registry
	tracer           *tracez.Tracer
	hooks            *hookz.Hooks[SchedulerEvent]
}

// NewScheduler builds a Scheduler, applying opts over the teacher stack's
// usual defaults: a real clock, a fresh metrics registry, a fresh tracer, and
// a 1ms idle-wait interval.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:            clockz.RealClock,
		idleWaitInterval: time.Millisecond,
		metrics:          metricz.New(),
		tracer:           tracez.New(),
		hooks:            hookz.New[SchedulerEvent](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs graph g to completion using nThreads pool workers, governed
// by respawn, and blocks until every vertex's invoker has permanently
// stopped or the run fails. It implements §4.6's execute() procedure:
//  1. build a fresh pool (executor context) bound to this Scheduler's
//     ambient stack,
//  2. create one invoker per vertex,
//  3. start nThreads workers and post every invoker's initial poll,
//  4. await the join signal, and
//  5. return the first captured error, if any.
//
// Execute never mutates g concurrently with a prior still-running Execute
// call on the same graph; callers own that sequencing.
func (s *Scheduler) Execute(ctx context.Context, g *Graph, nThreads int, respawn RespawnFunc) error {
	capitan.Info(ctx, SignalSchedulerStarted, FieldWorkerCount.Field(nThreads))

	p := newPool(s.clock, s.metrics, s.tracer, s.hooks, s.makeIdleWait())

	ids := g.vertexIDs()
	p.active = int64(len(ids))

	invokers := make([]*invoker, 0, len(ids))
	for _, id := range ids {
		invokers = append(invokers, newInvoker(ctx, g, id, p, respawn))
	}

	p.start(ctx, nThreads)
	for _, inv := range invokers {
		p.post(inv.poll)
	}

	p.awaitJoin()
	return p.Err()
}

// makeIdleWait returns the non-blocking repost closure every invoker's
// scheduleIdleWait uses: it arms a clockz timer on a throwaway goroutine and
// posts back to the pool when it fires, so no worker goroutine ever blocks
// for the idle delay. The goroutine exits immediately if ctx is canceled
// first, without ever posting.
func (s *Scheduler) makeIdleWait() func(context.Context, func()) {
	interval := s.idleWaitInterval
	clock := s.clock
	return func(ctx context.Context, repost func()) {
		go func() {
			select {
			case <-clock.After(interval):
				repost()
			case <-ctx.Done():
			}
		}()
	}
}

// OnCellError registers handler to run whenever a cell's Process call fails
// with an error that terminates the run, mirroring the teacher stack's
// OnX(handler) hook-registration convention.
func (s *Scheduler) OnCellError(handler func(context.Context, SchedulerEvent) error) error {
	_, err := s.hooks.Hook(EventCellError, handler)
	return err
}

// OnVertexFinished registers handler to run whenever a vertex's invoker
// permanently stops, either because respawn denied another invocation or
// because its cell failed.
func (s *Scheduler) OnVertexFinished(handler func(context.Context, SchedulerEvent) error) error {
	_, err := s.hooks.Hook(EventVertexFinished, handler)
	return err
}

// Metrics returns the scheduler's metrics registry.
func (s *Scheduler) Metrics() *metricz.Registry {
	return s.metrics
}

// Tracer returns the scheduler's tracer.
func (s *Scheduler) Tracer() *tracez.Tracer {
	return s.tracer
}

// Close releases the scheduler's observability components. Call it once the
// scheduler will never Execute again.
func (s *Scheduler) Close() error {
	if s.tracer != nil {
		s.tracer.Close()
	}
	s.hooks.Close()
	return nil
}
