package ecto

import "context"

// Name is a type alias for vertex and strand names, encouraging callers to
// store names as constants rather than scattering inline strings.
type Name = string

// StrandID is a value-typed, hashable strand identity. Two cells that return
// the same StrandID from Strand never run concurrently, regardless of which
// worker picks up their work. Unlike the address-of-object identity used by
// the source this module was distilled from, a StrandID survives copies,
// serialization, and cross-process sharing of cell declarations.
type StrandID string

// CellHandle is the only view the scheduler has of a cell. It deliberately
// knows nothing about parameters, typed inputs/outputs, or configuration —
// those live in the cell-authoring layer, which is out of scope for this
// module. The scheduler calls Process exactly when its firing predicate
// holds, never introspecting further.
type CellHandle interface {
	// Process runs one firing of the cell. It must consume exactly one
	// value from each in-edge channel and produce exactly one value on
	// each out-edge channel, or return a non-nil error to signal a fatal
	// condition. A panic escaping Process is recovered by the scheduler
	// and reported the same way as a returned error.
	Process(ctx context.Context) error

	// Strand returns the cell's strand identity, if any. Cells sharing a
	// strand identity are serialized against each other by the scheduler's
	// strand registry even when they run on different workers.
	Strand() (StrandID, bool)

	// Name returns a human-readable name used only for diagnostics.
	Name() string
}

// FuncCell adapts a plain closure into a CellHandle. It is a minimal
// convenience for wiring graphs in tests and small programs; it is not the
// parameter/input/output authoring surface the distilled spec calls out as
// out of scope — it has no notion of named ports.
type FuncCell struct {
	name      string
	strand    StrandID
	hasStrand bool
	fn        func(ctx context.Context) error
}

// NewCell wraps fn as a strand-less CellHandle.
func NewCell(name string, fn func(ctx context.Context) error) *FuncCell {
	return &FuncCell{name: name, fn: fn}
}

// WithStrand assigns a strand identity to the cell, returning the receiver
// for chaining, matching the With*-returns-receiver convention used
// throughout this module's connector-style types.
func (f *FuncCell) WithStrand(id StrandID) *FuncCell {
	f.strand = id
	f.hasStrand = true
	return f
}

// Process implements CellHandle.
func (f *FuncCell) Process(ctx context.Context) error {
	return f.fn(ctx)
}

// Strand implements CellHandle.
func (f *FuncCell) Strand() (StrandID, bool) {
	return f.strand, f.hasStrand
}

// Name implements CellHandle.
func (f *FuncCell) Name() string {
	return f.name
}
