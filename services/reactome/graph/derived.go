// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// =============================================================================
// Bipartition
// =============================================================================

// EventNodes returns the set of event node IDs.
//
// Memoized: the set is computed once and shared. Callers must not mutate it.
//
// Thread Safety: Safe for concurrent use.
func (g *Graph) EventNodes() NodeSet {
	g.derived.partitionOnce.Do(g.computePartition)
	return g.derived.events
}

// EntityNodes returns the set of entity node IDs.
//
// EntityNodes and EventNodes are disjoint and together cover every node.
//
// Thread Safety: Safe for concurrent use.
func (g *Graph) EntityNodes() NodeSet {
	g.derived.partitionOnce.Do(g.computePartition)
	return g.derived.entities
}

func (g *Graph) computePartition() {
	events := make(NodeSet)
	entities := make(NodeSet)
	for _, n := range g.order {
		if n.IsEvent() {
			events[n.ID] = struct{}{}
		} else {
			entities[n.ID] = struct{}{}
		}
	}
	g.derived.events = events
	g.derived.entities = entities
}

// PartitionSize returns the number of nodes in the given bipartite class.
func (g *Graph) PartitionSize(c BipartiteClass) int {
	if c == ClassEvent {
		return g.EventNodes().Len()
	}
	return g.EntityNodes().Len()
}

// =============================================================================
// Pathways and Compartments
// =============================================================================

// PathwaySet is a pathway together with the nodes annotated with it.
type PathwaySet struct {
	// Pathway is the pathway metadata. Only ID is set when the node
	// annotations reference a pathway with no matching record.
	Pathway Pathway

	// Level is the pathway hierarchy level.
	Level int

	// Nodes contains every node annotated with the pathway.
	Nodes NodeSet
}

// CompartmentSet is a compartment together with the nodes located in it.
type CompartmentSet struct {
	Compartment Compartment
	Nodes       NodeSet
}

// Pathways returns the mapping pathway ID -> {level, node set}.
//
// Description:
//
//	Derived from node-level pathway annotations. Every pathway ID that
//	appears on at least one node has an entry whose Nodes set is exactly
//	the set of annotated nodes. Pathway records without annotated nodes
//	are included with an empty set.
//
// Thread Safety: Safe for concurrent use. Result is memoized and shared.
func (g *Graph) Pathways() map[string]*PathwaySet {
	g.derived.pathwaysOnce.Do(func() {
		out := make(map[string]*PathwaySet, len(g.pathways))
		for _, p := range g.pathways {
			out[p.ID] = &PathwaySet{Pathway: p, Level: p.Level, Nodes: make(NodeSet)}
		}
		for _, n := range g.order {
			for _, pid := range n.Pathways {
				set, ok := out[pid]
				if !ok {
					set = &PathwaySet{Pathway: Pathway{ID: pid}, Nodes: make(NodeSet)}
					out[pid] = set
				}
				set.Nodes[n.ID] = struct{}{}
			}
		}
		g.derived.pathwaySets = out
	})
	return g.derived.pathwaySets
}

// CompartmentSets returns the mapping compartment ID -> node set.
//
// Thread Safety: Safe for concurrent use. Result is memoized and shared.
func (g *Graph) CompartmentSets() map[string]*CompartmentSet {
	g.derived.compartmentsOnce.Do(func() {
		out := make(map[string]*CompartmentSet, len(g.compartments))
		for _, c := range g.compartments {
			out[c.ID] = &CompartmentSet{Compartment: c, Nodes: make(NodeSet)}
		}
		for _, n := range g.order {
			for _, cid := range n.Compartments {
				set, ok := out[cid]
				if !ok {
					set = &CompartmentSet{Compartment: Compartment{ID: cid}, Nodes: make(NodeSet)}
					out[cid] = set
				}
				set.Nodes[n.ID] = struct{}{}
			}
		}
		g.derived.compartmentSets = out
	})
	return g.derived.compartmentSets
}

// =============================================================================
// Adjacency Matrix
// =============================================================================

// AdjacencyMatrix is a compressed sparse row matrix over the stable node
// order. Cell (i, j) holds the number of edges from node i to node j.
//
// It implements gonum's mat.Matrix so it can be fed directly into dense
// linear algebra routines.
type AdjacencyMatrix struct {
	n      int
	rowPtr []int
	colIdx []int
	values []float64
}

var _ mat.Matrix = (*AdjacencyMatrix)(nil)

// AdjacencyMatrix returns the multiplicity-aware adjacency matrix.
//
// Thread Safety: Safe for concurrent use. Built once and cached.
//
// Complexity: O(V + E log d) on first access.
func (g *Graph) AdjacencyMatrix() *AdjacencyMatrix {
	g.derived.adjacencyOnce.Do(func() {
		g.derived.adjacency = buildAdjacency(g)
	})
	return g.derived.adjacency
}

func buildAdjacency(g *Graph) *AdjacencyMatrix {
	n := len(g.order)
	m := &AdjacencyMatrix{
		n:      n,
		rowPtr: make([]int, n+1),
		colIdx: make([]int, 0, len(g.edges)),
		values: make([]float64, 0, len(g.edges)),
	}

	counts := make(map[int]int)
	cols := make([]int, 0)
	for i, node := range g.order {
		clear(counts)
		cols = cols[:0]
		for _, e := range node.outgoing {
			j := g.nodes[e.Target].index
			if counts[j] == 0 {
				cols = append(cols, j)
			}
			counts[j]++
		}
		sort.Ints(cols)
		for _, j := range cols {
			m.colIdx = append(m.colIdx, j)
			m.values = append(m.values, float64(counts[j]))
		}
		m.rowPtr[i+1] = len(m.colIdx)
	}
	return m
}

// Dims returns the matrix dimensions.
func (m *AdjacencyMatrix) Dims() (r, c int) { return m.n, m.n }

// At returns the edge multiplicity from node i to node j.
func (m *AdjacencyMatrix) At(i, j int) float64 {
	if i < 0 || i >= m.n || j < 0 || j >= m.n {
		panic(mat.ErrIndexOutOfRange)
	}
	start, end := m.rowPtr[i], m.rowPtr[i+1]
	k := sort.SearchInts(m.colIdx[start:end], j)
	if start+k < end && m.colIdx[start+k] == j {
		return m.values[start+k]
	}
	return 0
}

// T returns the transpose view.
func (m *AdjacencyMatrix) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// NNZ returns the number of stored non-zero cells.
func (m *AdjacencyMatrix) NNZ() int { return len(m.values) }

// DoRowNonZero calls fn for every non-zero cell of row i in column order.
func (m *AdjacencyMatrix) DoRowNonZero(i int, fn func(j int, v float64)) {
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		fn(m.colIdx[k], m.values[k])
	}
}

// RowSum returns the sum of row i, which equals the node's out-degree.
func (m *AdjacencyMatrix) RowSum(i int) float64 {
	sum := 0.0
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		sum += m.values[k]
	}
	return sum
}

// Dense materializes the matrix. Only suitable for small graphs.
func (m *AdjacencyMatrix) Dense() *mat.Dense {
	if m.n == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.n, m.n, nil)
	for i := 0; i < m.n; i++ {
		m.DoRowNonZero(i, func(j int, v float64) {
			d.Set(i, j, v)
		})
	}
	return d
}
