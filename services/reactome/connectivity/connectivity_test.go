// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package connectivity

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
	"github.com/AleutianAI/AleutianReactome/services/reactome/graph/graphtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyzer(t *testing.T, g *graph.Graph) *Analyzer {
	t.Helper()
	a, err := New(g, WithWorkers(2))
	require.NoError(t, err)
	return a
}

// componentOf returns the component containing id.
func componentOf(t *testing.T, components []Component, id string) Component {
	t.Helper()
	for _, c := range components {
		if c.Nodes.Has(id) {
			return c
		}
	}
	t.Fatalf("node %s in no component", id)
	return Component{}
}

func sizes(components []Component) []int {
	out := make([]int, len(components))
	for i, c := range components {
		out[i] = c.Size()
	}
	sort.Ints(out)
	return out
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilGraph)
}

func TestStronglyConnected_TwoComponents(t *testing.T) {
	g := graphtest.TwoComponents(t)
	a := newAnalyzer(t, g)

	scc := a.StronglyConnected()
	require.Len(t, scc, 2)
	assert.Equal(t, []int{3, 5}, sizes(scc))

	small := componentOf(t, scc, "E1")
	assert.Equal(t, []string{"E1", "E2", "X1"}, small.Nodes.Sorted())
	assert.Equal(t, []string{"E1", "E2"}, small.Events.Sorted())

	for i, c := range scc {
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, scc, a.StronglyConnected(), "cached")
}

func TestStronglyConnected_Chain(t *testing.T) {
	// A DAG has only singleton strong components.
	scc := newAnalyzer(t, graphtest.Chain(t)).StronglyConnected()
	assert.Equal(t, []int{1, 1, 1, 1}, sizes(scc))

	wcc := newAnalyzer(t, graphtest.Chain(t)).WeaklyConnected()
	assert.Equal(t, []int{4}, sizes(wcc))
}

func TestStronglyConnected_DeepCycle(t *testing.T) {
	// Deep enough that a recursive implementation would need a large stack.
	g := graphtest.Cycle(t, 20000)
	scc := newAnalyzer(t, g).StronglyConnected()
	require.Len(t, scc, 1)
	assert.Equal(t, 20000, scc[0].Size())
	assert.Equal(t, 10000, scc[0].Events.Len())
}

func TestWeaklyConnected_CrossEdge(t *testing.T) {
	f := graphtest.New().
		Event("E1", []string{"P1"}, nil).Entity("X1", nil).Event("E2", []string{"P1"}, nil).
		Event("E3", []string{"P2"}, nil).Entity("X2", nil).
		Both("E1", "X1").Both("X1", "E2").
		Both("E3", "X2").
		Edge("E2", "X2").
		Pathway("P1", 1, true).Pathway("P2", 1, true)
	a := newAnalyzer(t, f.Build(t))

	assert.Equal(t, []int{2, 3}, sizes(a.StronglyConnected()))
	wcc := a.WeaklyConnected()
	require.Len(t, wcc, 1)
	assert.Equal(t, 5, wcc[0].Size())
	assert.Equal(t, 3, wcc[0].Events.Len())

	inter, err := a.Intersection(context.Background(), Weak, Pathways)
	require.NoError(t, err)
	assert.Equal(t, Intersection{
		"P1": {0: 1.0},
		"P2": {0: 1.0},
	}, inter)
}

func TestIntersection_PathwayInSmallComponent(t *testing.T) {
	g := graphtest.TwoComponents(t)
	a := newAnalyzer(t, g)

	inter, err := a.Intersection(context.Background(), Strong, Pathways)
	require.NoError(t, err)

	scc := a.StronglyConnected()
	small := componentOf(t, scc, "E1")
	large := componentOf(t, scc, "E3")

	require.Contains(t, inter, "P1")
	assert.Equal(t, map[int]float64{small.Index: 1.0}, inter["P1"])
	_, hasLarge := inter["P1"][large.Index]
	assert.False(t, hasLarge, "zero ratios are omitted")

	assert.Equal(t, map[int]float64{large.Index: 1.0}, inter["P2"])

	_, ok := inter["EMPTY"]
	assert.False(t, ok, "structure without events has no entry")
}

func TestIntersection_Compartments(t *testing.T) {
	g := graphtest.TwoComponents(t)
	a := newAnalyzer(t, g)

	inter, err := a.Intersection(context.Background(), Strong, Compartments)
	require.NoError(t, err)

	require.Contains(t, inter, "C1")
	assert.Len(t, inter["C1"], 2)
	for _, ratio := range inter["C1"] {
		assert.InDelta(t, 0.5, ratio, 1e-12)
	}
}

func TestIntersection_EntitiesExcluded(t *testing.T) {
	g := graphtest.New().
		Event("R1", nil, []string{"C1"}).
		Entity("M1", []string{"C1"}).
		Entity("M2", []string{"C2"}).
		Edge("R1", "M1").
		Compartment("C1").Compartment("C2").
		Build(t)
	a := newAnalyzer(t, g)

	inter, err := a.Intersection(context.Background(), Weak, Compartments)
	require.NoError(t, err)

	assert.Len(t, inter["C1"], 1)
	for _, ratio := range inter["C1"] {
		assert.Equal(t, 1.0, ratio)
	}
	_, ok := inter["C2"]
	assert.False(t, ok, "entity-only compartment has no events")
}

func TestIntersection_RatiosInUnitInterval(t *testing.T) {
	f := graphtest.New()
	for i := 0; i < 30; i++ {
		pathways := []string{fmt.Sprintf("P%d", i%4), fmt.Sprintf("P%d", i%7)}
		f.Event(fmt.Sprintf("E%d", i), pathways, []string{fmt.Sprintf("C%d", i%3)})
		f.Entity(fmt.Sprintf("X%d", i), nil)
		f.Edge(fmt.Sprintf("E%d", i), fmt.Sprintf("X%d", i))
		if i%5 != 0 {
			f.Edge(fmt.Sprintf("X%d", i), fmt.Sprintf("E%d", (i+1)%30))
		}
	}
	a := newAnalyzer(t, f.Build(t))

	for _, ck := range []ComponentKind{Strong, Weak} {
		for _, sk := range []StructureKind{Pathways, Compartments} {
			t.Run(ck.String()+"_"+sk.String(), func(t *testing.T) {
				inter, err := a.Intersection(context.Background(), ck, sk)
				require.NoError(t, err)
				require.NotEmpty(t, inter)
				for id, row := range inter {
					total := 0.0
					for _, ratio := range row {
						assert.Greater(t, ratio, 0.0, id)
						assert.LessOrEqual(t, ratio, 1.0, id)
						total += ratio
					}
					assert.InDelta(t, 1.0, total, 1e-9, "ratios of %s cover its events", id)
				}
			})
		}
	}
}

func TestIntersection_UnknownKinds(t *testing.T) {
	a := newAnalyzer(t, graphtest.Chain(t))

	_, err := a.Intersection(context.Background(), ComponentKind(9), Pathways)
	assert.ErrorIs(t, err, ErrUnknownComponentKind)

	_, err = a.Intersection(context.Background(), Strong, StructureKind(9))
	assert.ErrorIs(t, err, ErrUnknownStructureKind)
}

func TestIntersection_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAnalyzer(t, graphtest.TwoComponents(t)).Intersection(ctx, Strong, Pathways)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSizeHistogram(t *testing.T) {
	scc := newAnalyzer(t, graphtest.TwoComponents(t)).StronglyConnected()
	assert.Equal(t, ComponentSummary{Total: 2, Sizes: map[int]int{3: 1, 5: 1}}, SizeHistogram(scc))
	assert.Equal(t, ComponentSummary{Total: 0, Sizes: map[int]int{}}, SizeHistogram(nil))
}

func TestSubgraphSummary(t *testing.T) {
	a := newAnalyzer(t, graphtest.TwoComponents(t))

	summary, err := a.SubgraphSummary(context.Background(), Pathways)
	require.NoError(t, err)
	require.Contains(t, summary, "P1")
	require.Contains(t, summary, "EMPTY")

	// P1 keeps E1 and E2 only; X1 carries no pathway annotation.
	assert.Equal(t, ComponentSummary{Total: 2, Sizes: map[int]int{1: 2}}, summary["P1"].SCC)
	assert.Equal(t, ComponentSummary{Total: 2, Sizes: map[int]int{1: 2}}, summary["P1"].WCC)
	assert.Equal(t, 0, summary["EMPTY"].SCC.Total)

	comp, err := a.SubgraphSummary(context.Background(), Compartments)
	require.NoError(t, err)
	assert.Equal(t, 2, comp["C1"].WCC.Total)

	_, err = a.SubgraphSummary(context.Background(), StructureKind(5))
	assert.ErrorIs(t, err, ErrUnknownStructureKind)
}
