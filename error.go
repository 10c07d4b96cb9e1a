package ecto

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CellFailure wraps any error (including a recovered panic) escaping a
// cell's Process method. It is fatal for the current Execute call: the
// distilled spec's "PropagatedCellError".
type CellFailure struct {
	Timestamp time.Time
	Err       error
	Vertex    Name
	Calls     int
	Recovered bool // true if Err originated from a recovered panic
}

// Error implements the error interface.
func (e *CellFailure) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Recovered {
		return fmt.Sprintf("%s: cell panicked on call %d: %v", e.Vertex, e.Calls, e.Err)
	}
	return fmt.Sprintf("%s: cell failed on call %d: %v", e.Vertex, e.Calls, e.Err)
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *CellFailure) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsCanceled reports whether the underlying cause was context cancellation,
// useful for distinguishing expected shutdowns from genuine failures.
func (e *CellFailure) IsCanceled() bool {
	if e == nil {
		return false
	}
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}

// InvariantViolation reports an internal impossibility: a channel observed
// in a state the firing predicate should have prevented (e.g. a push into
// an already-full channel), or a strand serializer bound to the wrong pool.
// It is always fatal, the distilled spec's "SchedulerInvariantViolation".
type InvariantViolation struct {
	Timestamp time.Time
	Msg       string
	Vertex    Name
}

// Error implements the error interface.
func (e *InvariantViolation) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Vertex == "" {
		return fmt.Sprintf("invariant violation: %s", e.Msg)
	}
	return fmt.Sprintf("invariant violation at %s: %s", e.Vertex, e.Msg)
}
