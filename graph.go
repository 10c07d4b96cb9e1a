package ecto

import "sync"

// VertexID stably identifies a vertex for the lifetime of a Graph.
type VertexID int

// EdgeID stably identifies an edge for the lifetime of a Graph.
type EdgeID int

// vertex owns exactly one cell handle and references the edges incident to
// it. Self-loops are permitted: an edge may appear in both In and Out of the
// same vertex.
type vertex struct {
	cell CellHandle
	in   []EdgeID
	out  []EdgeID
}

// edge owns exactly one channel and has exactly one producer vertex and one
// consumer vertex (fan-out/fan-in are modeled as multiple edges, each its
// own channel, never as a shared channel with multiple readers/writers).
type edge struct {
	from, to VertexID
	channel  *Channel
}

// Graph is the directed graph of cells and channels the scheduler consumes.
// It is built with AddVertex/Connect before being passed to Scheduler.Execute
// and is not mutated while a run is in progress — the distilled spec's
// "no dynamic graph mutation during execution" non-goal.
//
// Graph intentionally has no notion of named ports: Connect wires two
// vertices structurally. Binding a named output of one cell to a named
// input of another is the cell-authoring/graph-construction layer the
// distilled spec scopes out of this module.
type Graph struct {
	mu       sync.RWMutex
	vertices map[VertexID]*vertex
	edges    map[EdgeID]*edge
	nextV    VertexID
	nextE    EdgeID
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		vertices: make(map[VertexID]*vertex),
		edges:    make(map[EdgeID]*edge),
	}
}

// AddVertex adds a vertex wrapping cell and returns its stable id.
func (g *Graph) AddVertex(cell CellHandle) VertexID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextV
	g.nextV++
	g.vertices[id] = &vertex{cell: cell}
	return id
}

// SetCell replaces the cell bound to an already-added vertex. It exists for
// two-phase graph construction: a cell's Process method typically closes
// over the very channels Connect creates, so callers add vertices, wire
// edges to obtain channels, build cells from those channels, then bind the
// finished cells with SetCell.
func (g *Graph) SetCell(id VertexID, cell CellHandle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vertices[id].cell = cell
}

// Connect adds a capacity-1 edge from -> to and returns its stable id. Both
// vertices must already exist. Self-loops (from == to) are permitted.
func (g *Graph) Connect(from, to VertexID) EdgeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextE
	g.nextE++
	e := &edge{from: from, to: to, channel: NewChannel()}
	g.edges[id] = e
	g.vertices[from].out = append(g.vertices[from].out, id)
	g.vertices[to].in = append(g.vertices[to].in, id)
	return id
}

// Seed pre-fills edge's channel with v, without running any cell's Process.
// Cycles need at least one seeded edge to ever become fireable; the
// distilled spec treats an unseeded cycle as a user error, not a scheduler
// bug — the firing predicate stays false forever and liveness property P5 is
// vacuously satisfied.
func (g *Graph) Seed(id EdgeID, v any) error {
	g.mu.RLock()
	e, ok := g.edges[id]
	g.mu.RUnlock()
	if !ok {
		return &InvariantViolation{Msg: "seed: unknown edge"}
	}
	return e.channel.Seed(v)
}

// Channel returns the channel backing edge id, for callers that want to push
// a seed value with a type-safe helper (PushValue) instead of Seed's any.
func (g *Graph) Channel(id EdgeID) *Channel {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[id].channel
}

// vertexIDs returns a stable snapshot of all vertex ids, used by the
// scheduler to create one invoker per vertex.
func (g *Graph) vertexIDs() []VertexID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]VertexID, 0, len(g.vertices))
	for id := range g.vertices {
		ids = append(ids, id)
	}
	return ids
}

// fireable implements the firing predicate: every in-edge full, every
// out-edge empty. A vertex with no in-edges is vacuously input-ready,
// matching the source's inputs_ready loop over an empty in_edges range.
func (g *Graph) fireable(id VertexID) bool {
	g.mu.RLock()
	v := g.vertices[id]
	g.mu.RUnlock()

	for _, eid := range v.in {
		g.mu.RLock()
		ch := g.edges[eid].channel
		g.mu.RUnlock()
		if ch.Size() == 0 {
			return false
		}
	}
	for _, eid := range v.out {
		g.mu.RLock()
		ch := g.edges[eid].channel
		g.mu.RUnlock()
		if ch.Size() > 0 {
			return false
		}
	}
	return true
}

func (g *Graph) cellOf(id VertexID) CellHandle {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.vertices[id].cell
}
