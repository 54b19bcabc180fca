// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graphtest provides small reaction networks for tests.
//
// Every fixture uses preoriented edges so the stored direction is exactly
// the direction written in the fixture.
package graphtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
	"github.com/stretchr/testify/require"
)

// Fixture accumulates records for a test graph.
type Fixture struct {
	records graph.Records
}

// New returns an empty fixture.
func New() *Fixture {
	return &Fixture{}
}

// Event adds an event node with optional pathway and compartment annotations.
func (f *Fixture) Event(id string, pathways, compartments []string) *Fixture {
	f.records.Nodes = append(f.records.Nodes, graph.NodeRecord{
		ID:           id,
		Class:        "Event",
		SchemaClass:  "Reaction",
		Pathways:     pathways,
		Compartments: compartments,
	})
	return f
}

// Entity adds an entity node.
func (f *Fixture) Entity(id string, compartments []string) *Fixture {
	f.records.Nodes = append(f.records.Nodes, graph.NodeRecord{
		ID:           id,
		Class:        "Entity",
		SchemaClass:  "SimpleEntity",
		Compartments: compartments,
	})
	return f
}

// Edge adds a directed output edge.
func (f *Fixture) Edge(source, target string) *Fixture {
	f.records.Edges = append(f.records.Edges, graph.EdgeRecord{
		Source: source,
		Target: target,
		Type:   graph.RelationOutput,
	})
	return f
}

// Both adds edges in both directions.
func (f *Fixture) Both(a, b string) *Fixture {
	return f.Edge(a, b).Edge(b, a)
}

// Pathway adds a pathway record.
func (f *Fixture) Pathway(id string, level int, topLevel bool) *Fixture {
	f.records.Pathways = append(f.records.Pathways, graph.PathwayRecord{
		ID:       id,
		Name:     "pathway " + id,
		Level:    level,
		TopLevel: topLevel,
	})
	return f
}

// Compartment adds a compartment record.
func (f *Fixture) Compartment(id string) *Fixture {
	f.records.Compartments = append(f.records.Compartments, graph.CompartmentRecord{
		ID:   id,
		Name: "compartment " + id,
	})
	return f
}

// Records returns the accumulated records.
func (f *Fixture) Records() graph.Records {
	return f.records
}

// Build builds the fixture and fails the test on any dropped record.
func (f *Fixture) Build(t testing.TB) *graph.Graph {
	t.Helper()
	result, err := graph.Build(context.Background(), f.records, graph.WithPreorientedEdges())
	require.NoError(t, err)
	require.False(t, result.HasErrors(), "fixture dropped records: %v", result.Errors)
	return result.Graph
}

// Chain returns A -> B -> C -> D with A and C entities, B and D events.
func Chain(t testing.TB) *graph.Graph {
	return New().
		Entity("A", nil).
		Event("B", []string{"P1"}, []string{"C1"}).
		Entity("C", nil).
		Event("D", []string{"P1"}, []string{"C1"}).
		Edge("A", "B").Edge("B", "C").Edge("C", "D").
		Pathway("P1", 1, true).
		Compartment("C1").
		Build(t)
}

// TwoComponents returns two disjoint strongly connected components.
//
// The first holds E1, X1, E2 (size 3) and is exactly pathway P1. The second
// holds E3, X2, E4, X3, E5 (size 5) and is exactly pathway P2. Compartment
// C1 spans E1 and E3.
func TwoComponents(t testing.TB) *graph.Graph {
	return New().
		Event("E1", []string{"P1"}, []string{"C1"}).
		Entity("X1", nil).
		Event("E2", []string{"P1"}, nil).
		Event("E3", []string{"P2"}, []string{"C1"}).
		Entity("X2", nil).
		Event("E4", []string{"P2"}, nil).
		Entity("X3", nil).
		Event("E5", []string{"P2"}, nil).
		Both("E1", "X1").Both("X1", "E2").
		Both("E3", "X2").Both("X2", "E4").Both("E4", "X3").Both("X3", "E5").
		Pathway("P1", 1, true).
		Pathway("P2", 1, true).
		Pathway("EMPTY", 2, false).
		Compartment("C1").
		Build(t)
}

// Cycle returns a directed cycle of n nodes alternating event and entity.
// n must be even for the cycle to stay bipartite.
func Cycle(t testing.TB, n int) *graph.Graph {
	f := New()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("N%d", i)
		if i%2 == 0 {
			f.Event(id, nil, nil)
		} else {
			f.Entity(id, nil)
		}
	}
	for i := 0; i < n; i++ {
		f.Edge(fmt.Sprintf("N%d", i), fmt.Sprintf("N%d", (i+1)%n))
	}
	return f.Build(t)
}

// Empty returns a graph with no nodes.
func Empty(t testing.TB) *graph.Graph {
	return New().Build(t)
}
