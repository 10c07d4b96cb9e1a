// Package testing provides fixtures and assertion helpers for testing ecto
// graphs: cells that record their call sequence, cells that fail on a chosen
// call, and small polling assertions for the scheduler's asynchronous
// completion.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ChenZewei/ecto"
)

// RecordingCell is a CellHandle that appends one value to its own history
// every time Process runs, and pushes that same value onto each of its
// output edges. A source cell (no in-edge) records an incrementing counter
// starting at 0; a cell with an in-edge records the value it popped, passed
// through WithTransform's function when one is set. It is the fixture behind the linear-chain,
// fan-out, and strand-serialization scenarios: a chain of RecordingCells
// wired A->B->C lets a test assert the exact sequence each vertex observed.
type RecordingCell struct { //nolint:govet // fieldalignment: test fixture, clarity over packing
	mu        sync.Mutex
	name      string
	strand    ecto.StrandID
	hasStrand bool
	calls     []int
	next      int
	in        *ecto.Channel
	out       []*ecto.Channel
	transform func(int) int // applied to a popped in-edge value before recording/forwarding; identity if nil
	overlap   bool          // set true if two calls are ever observed running concurrently
	running   bool
}

// NewRecordingCell returns a RecordingCell reading from in (nil for a
// source vertex with no in-edges) and writing to each of out in turn.
func NewRecordingCell(name string, in *ecto.Channel, out ...*ecto.Channel) *RecordingCell {
	return &RecordingCell{name: name, in: in, out: out}
}

// WithStrand assigns a strand identity, so the cell can be used in the
// strand-forced-serialization scenario.
func (r *RecordingCell) WithStrand(id ecto.StrandID) *RecordingCell {
	r.strand = id
	r.hasStrand = true
	return r
}

// WithTransform applies fn to each value popped from the in-edge before it
// is recorded and forwarded — the fixture behind the linear-chain scenario's
// "B doubles" stage.
func (r *RecordingCell) WithTransform(fn func(int) int) *RecordingCell {
	r.transform = fn
	return r
}

// Name implements ecto.CellHandle.
func (r *RecordingCell) Name() string { return r.name }

// Strand implements ecto.CellHandle.
func (r *RecordingCell) Strand() (ecto.StrandID, bool) { return r.strand, r.hasStrand }

// Process implements ecto.CellHandle. It records overlap if another Process
// call on this same cell is already in flight — the assertion the strand
// scenario relies on to prove mutual exclusion actually held.
func (r *RecordingCell) Process(context.Context) error {
	r.mu.Lock()
	if r.running {
		r.overlap = true
	}
	r.running = true
	r.mu.Unlock()

	v := r.next
	if r.in != nil {
		popped, popErr := ecto.PopValue[int](r.in)
		if popErr != nil {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			return popErr
		}
		v = popped
		if r.transform != nil {
			v = r.transform(v)
		}
	}

	r.mu.Lock()
	r.next++
	r.calls = append(r.calls, v)
	r.mu.Unlock()

	for _, ch := range r.out {
		if err := ecto.PushValue(ch, v); err != nil {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
			return err
		}
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return nil
}

// Calls returns a snapshot of the recorded call sequence.
func (r *RecordingCell) Calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns how many times Process has run so far.
func (r *RecordingCell) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Overlapped reports whether two Process calls on this cell were ever
// observed running concurrently.
func (r *RecordingCell) Overlapped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlap
}

// FailingCell fails with a fixed error on a chosen call number (1-indexed)
// and succeeds on every other call, the fixture behind the fatal-cell-error
// scenario: "B throws on its 3rd call."
type FailingCell struct {
	mu       sync.Mutex
	name     string
	failOn   int
	calls    int
	err      error
	in       *ecto.Channel
	out      []*ecto.Channel
}

// NewFailingCell returns a cell that returns err on its failOn'th call.
func NewFailingCell(name string, failOn int, err error, in *ecto.Channel, out ...*ecto.Channel) *FailingCell {
	return &FailingCell{name: name, failOn: failOn, err: err, in: in, out: out}
}

// Name implements ecto.CellHandle.
func (f *FailingCell) Name() string { return f.name }

// Strand implements ecto.CellHandle; FailingCell never has a strand.
func (*FailingCell) Strand() (ecto.StrandID, bool) { return "", false }

// Process implements ecto.CellHandle.
func (f *FailingCell) Process(context.Context) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if f.in != nil {
		if _, err := ecto.PopValue[int](f.in); err != nil {
			return err
		}
	}

	if n == f.failOn {
		return f.err
	}

	for _, ch := range f.out {
		if err := ecto.PushValue(ch, n); err != nil {
			return err
		}
	}
	return nil
}

// CallCount returns how many times Process has run so far.
func (f *FailingCell) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// SleepingCell delays by d before doing the same push-through work as
// RecordingCell, the fixture behind the back-pressure scenario.
type SleepingCell struct {
	rec *RecordingCell
	d   time.Duration
}

// NewSleepingCell returns a cell that sleeps d before recording/forwarding.
func NewSleepingCell(name string, d time.Duration, in *ecto.Channel, out ...*ecto.Channel) *SleepingCell {
	return &SleepingCell{rec: NewRecordingCell(name, in, out...), d: d}
}

// Name implements ecto.CellHandle.
func (s *SleepingCell) Name() string { return s.rec.Name() }

// Strand implements ecto.CellHandle.
func (s *SleepingCell) Strand() (ecto.StrandID, bool) { return s.rec.Strand() }

// Process implements ecto.CellHandle.
func (s *SleepingCell) Process(ctx context.Context) error {
	select {
	case <-time.After(s.d):
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.rec.Process(ctx)
}

// CallCount returns how many times Process has run so far.
func (s *SleepingCell) CallCount() int { return s.rec.CallCount() }

// AwaitCalls polls getCalls until it reaches at least n, or fails the test
// after timeout. It exists because Scheduler.Execute runs a graph to
// respawn-exhaustion asynchronously relative to any one cell's progress.
func AwaitCalls(t *testing.T, getCalls func() int, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if getCalls() >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected at least %d calls within %s, got %d", n, timeout, getCalls())
}

// AssertCalls fails the test unless got equals exactly want.
func AssertCalls(t *testing.T, want, got []int) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected calls %v, got %v", want, got)
		return
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("expected calls %v, got %v", want, got)
			return
		}
	}
}
