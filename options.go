package ecto

import (
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Option configures a Scheduler, following the teacher stack's With*-returns-
// receiver functional option convention (see WorkerPool.WithMaxConcurrency
// and friends).
type Option func(*Scheduler)

// WithClock injects a clockz.Clock, letting tests swap in clockz.NewFakeClock
// to drive idle-wait deterministically instead of sleeping real time.
func WithClock(c clockz.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithIdleWaitInterval sets the delay between a failed poll and the next
// re-poll. Defaults to 1ms — short enough not to add perceptible latency to
// a newly-fireable vertex, long enough not to spin the pool.
func WithIdleWaitInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.idleWaitInterval = d }
}

// WithMetrics injects a metricz.Registry. A fresh one is created if omitted.
func WithMetrics(m *metricz.Registry) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithTracer injects a tracez.Tracer. A fresh one is created if omitted.
func WithTracer(t *tracez.Tracer) Option {
	return func(s *Scheduler) { s.tracer = t }
}
