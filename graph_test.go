package ecto

import (
	"context"
	"testing"
)

func noopCell(name string) *FuncCell {
	return NewCell(name, func(context.Context) error { return nil })
}

func TestFireableNoInEdgesVacuouslyReady(t *testing.T) {
	g := NewGraph()
	v := g.AddVertex(noopCell("source"))
	if !g.fireable(v) {
		t.Fatalf("expected a vertex with no in-edges to be vacuously fireable")
	}
}

func TestFireableRequiresFullInEdgesAndEmptyOutEdges(t *testing.T) {
	g := NewGraph()
	vA := g.AddVertex(noopCell("A"))
	vB := g.AddVertex(noopCell("B"))
	vC := g.AddVertex(noopCell("C"))
	eAB := g.Connect(vA, vB)
	eBC := g.Connect(vB, vC)

	// B has an empty in-edge: not fireable.
	if g.fireable(vB) {
		t.Fatalf("expected B to be unfireable with empty in-edge")
	}

	if err := g.Seed(eAB, 1); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if !g.fireable(vB) {
		t.Fatalf("expected B to be fireable once its in-edge is full")
	}

	// Now fill B's out-edge too: B becomes unfireable again.
	if err := g.Seed(eBC, 1); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if g.fireable(vB) {
		t.Fatalf("expected B to be unfireable once its out-edge is already full")
	}
}

func TestSetCellReplacesBoundCell(t *testing.T) {
	g := NewGraph()
	v := g.AddVertex(noopCell("placeholder"))
	replacement := noopCell("real")
	g.SetCell(v, replacement)
	if g.cellOf(v) != CellHandle(replacement) {
		t.Fatalf("expected cellOf to return the replacement cell")
	}
}

// TestSelfLoopEdge documents that a naive self-loop (from == to) is
// permanently unfireable: AddVertex/Connect puts the same EdgeID in both
// the vertex's in list and its out list, so fireable's two loops check the
// very same channel twice — once requiring size()==1, once requiring
// size()==0 — and no channel state satisfies both at once. This mirrors
// the original Boost Graph Library scheduler, which has the same
// same-edge-in-both-loops behavior for a self-loop vertex descriptor.
func TestSelfLoopEdge(t *testing.T) {
	g := NewGraph()
	v := g.AddVertex(noopCell("self"))
	e := g.Connect(v, v)
	if g.fireable(v) {
		t.Fatalf("expected self-loop vertex to be unfireable before seeding")
	}
	if err := g.Seed(e, 1); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if g.fireable(v) {
		t.Fatalf("expected self-loop vertex to remain unfireable once its single edge is full: its own out-edge check now also fails")
	}
}
