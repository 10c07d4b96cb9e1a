package ecto

import "github.com/zoobzio/capitan"

// Signal constants for scheduler events, following the teacher stack's
// <component>.<event> naming convention. These are logged at debug/info/warn
// level via capitan; they are informative, not contractual — §6 of the
// spec is explicit that these lifecycle log lines carry no behavioral
// guarantee.
const (
	// Invoker lifecycle signals, named after the source's
	// async_wait_for_input/invoke/wait/destructor log points.
	SignalInvokerPolling  capitan.Signal = "invoker.polling"
	SignalInvokerFiring   capitan.Signal = "invoker.firing"
	SignalInvokerIdleWait capitan.Signal = "invoker.idle-wait"
	SignalInvokerFinished capitan.Signal = "invoker.finished"

	// Strand registry signals.
	SignalStrandAllocated capitan.Signal = "strand.allocated"

	// Scheduler-wide signals.
	SignalSchedulerStarted capitan.Signal = "scheduler.started"
	SignalSchedulerError   capitan.Signal = "scheduler.error"
	SignalSchedulerJoined  capitan.Signal = "scheduler.joined"
)

// Field keys using capitan's primitive key types, mirroring the teacher
// stack's approach of avoiding custom struct serialization in log events.
var (
	FieldName      = capitan.NewStringKey("name")       // Vertex or strand name
	FieldError     = capitan.NewStringKey("error")       // Error message
	FieldTimestamp = capitan.NewFloat64Key("timestamp") // Unix timestamp

	FieldVertex      = capitan.NewStringKey("vertex")       // Vertex name
	FieldStrand      = capitan.NewStringKey("strand")       // Strand id
	FieldCalls       = capitan.NewIntKey("calls")           // Invoker call count
	FieldWorkerCount = capitan.NewIntKey("worker_count")    // Configured worker count
	FieldQueueDepth  = capitan.NewIntKey("queue_depth")     // Pending task queue depth
)
