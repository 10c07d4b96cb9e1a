package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/ChenZewei/ecto"
)

// demo describes one runnable graph: a human-readable name/description and a
// build function returning a fresh graph plus a report closure that prints a
// summary after Execute returns.
type demo struct {
	name        string
	description string
	build       func() (*ecto.Graph, func())
}

var demos = []demo{
	{
		name:        "chain",
		description: "linear A -> B -> C pipeline",
		build:       buildChain,
	},
	{
		name:        "fanout",
		description: "one producer feeding two independent consumers",
		build:       buildFanOut,
	},
	{
		name:        "strand",
		description: "two chains whose middle vertices share a strand",
		build:       buildStrand,
	},
}

func demoByName(name string) (demo, bool) {
	for _, d := range demos {
		if d.name == name {
			return d, true
		}
	}
	return demo{}, false
}

// counterCell increments and records its own call count, forwarding that
// count to every out-edge. It's the small, dependency-free cell used by the
// CLI's demo graphs; cmd/ectorun is a consumer of the ecto package, not a
// place to author a richer cell-authoring layer.
type counterCell struct {
	mu    sync.Mutex
	name  string
	count int
	in    *ecto.Channel
	out   []*ecto.Channel
}

func newCounterCell(name string, in *ecto.Channel, out ...*ecto.Channel) *counterCell {
	return &counterCell{name: name, in: in, out: out}
}

func (c *counterCell) Name() string                     { return c.name }
func (*counterCell) Strand() (ecto.StrandID, bool)       { return "", false }
func (c *counterCell) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *counterCell) Process(context.Context) error {
	if c.in != nil {
		if _, err := ecto.PopValue[int](c.in); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.count++
	n := c.count
	c.mu.Unlock()

	for _, ch := range c.out {
		if err := ecto.PushValue(ch, n); err != nil {
			return err
		}
	}
	return nil
}

func buildChain() (*ecto.Graph, func()) {
	g := ecto.NewGraph()
	vA := g.AddVertex(nil)
	vB := g.AddVertex(nil)
	vC := g.AddVertex(nil)
	eAB := g.Connect(vA, vB)
	eBC := g.Connect(vB, vC)

	c := newCounterCell("C", g.Channel(eBC))
	g.SetCell(vA, newCounterCell("A", nil, g.Channel(eAB)))
	g.SetCell(vB, newCounterCell("B", g.Channel(eAB), g.Channel(eBC)))
	g.SetCell(vC, c)

	return g, func() {
		fmt.Printf("C fired %d times\n", c.Count())
	}
}

func buildFanOut() (*ecto.Graph, func()) {
	g := ecto.NewGraph()
	vA := g.AddVertex(nil)
	vB := g.AddVertex(nil)
	vC := g.AddVertex(nil)
	eAB := g.Connect(vA, vB)
	eAC := g.Connect(vA, vC)

	b := newCounterCell("B", g.Channel(eAB))
	c := newCounterCell("C", g.Channel(eAC))
	g.SetCell(vA, newCounterCell("A", nil, g.Channel(eAB), g.Channel(eAC)))
	g.SetCell(vB, b)
	g.SetCell(vC, c)

	return g, func() {
		fmt.Printf("B fired %d times, C fired %d times\n", b.Count(), c.Count())
	}
}

func buildStrand() (*ecto.Graph, func()) {
	g := ecto.NewGraph()
	vA1 := g.AddVertex(nil)
	vM1 := g.AddVertex(nil)
	vA2 := g.AddVertex(nil)
	vM2 := g.AddVertex(nil)
	eA1M1 := g.Connect(vA1, vM1)
	eA2M2 := g.Connect(vA2, vM2)

	m1 := newCounterCell("M1", g.Channel(eA1M1))
	m2 := newCounterCell("M2", g.Channel(eA2M2))
	g.SetCell(vA1, newCounterCell("A1", nil, g.Channel(eA1M1)))
	g.SetCell(vM1, &strandedCounterCell{counterCell: m1, strand: "shared"})
	g.SetCell(vA2, newCounterCell("A2", nil, g.Channel(eA2M2)))
	g.SetCell(vM2, &strandedCounterCell{counterCell: m2, strand: "shared"})

	return g, func() {
		fmt.Printf("M1 fired %d times, M2 fired %d times\n", m1.Count(), m2.Count())
	}
}

// strandedCounterCell adds a strand identity to a counterCell without
// needing a With*-style constructor for this one CLI-only use.
type strandedCounterCell struct {
	*counterCell
	strand ecto.StrandID
}

func (s *strandedCounterCell) Strand() (ecto.StrandID, bool) { return s.strand, true }
