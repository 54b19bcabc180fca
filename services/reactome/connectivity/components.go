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
	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
)

// Component is one connected component.
type Component struct {
	// Index is the assignment order within one computation. It carries no
	// identity across runs.
	Index int

	// Nodes contains every node of the component.
	Nodes graph.NodeSet

	// Events contains the event nodes of the component.
	Events graph.NodeSet
}

// Size returns the number of nodes in the component.
func (c Component) Size() int { return c.Nodes.Len() }

// StronglyConnected returns the strongly connected components.
//
// Description:
//
//	Uses Tarjan's algorithm with an explicit call stack so deep reaction
//	chains cannot overflow the goroutine stack. Components are indexed in
//	the order Tarjan completes them (reverse topological order of the
//	condensation). Computed once and cached.
//
// Complexity: O(V + E)
//
// Thread Safety: Safe for concurrent use.
func (a *Analyzer) StronglyConnected() []Component {
	a.sccOnce.Do(func() {
		a.scc = a.components(tarjan(a.g))
		a.logger.Debug("strongly connected components computed",
			"components", len(a.scc),
			"nodes", a.g.NodeCount(),
		)
	})
	return a.scc
}

// WeaklyConnected returns the weakly connected components, indexed by the
// position of their first node in the stable node order. Computed once and
// cached.
//
// Complexity: O((V + E) α(V))
//
// Thread Safety: Safe for concurrent use.
func (a *Analyzer) WeaklyConnected() []Component {
	a.wccOnce.Do(func() {
		a.wcc = a.components(unionFind(a.g))
		a.logger.Debug("weakly connected components computed",
			"components", len(a.wcc),
			"nodes", a.g.NodeCount(),
		)
	})
	return a.wcc
}

// components materializes index groups into Components.
func (a *Analyzer) components(groups [][]int) []Component {
	out := make([]Component, len(groups))
	for k, group := range groups {
		c := Component{
			Index:  k,
			Nodes:  make(graph.NodeSet, len(group)),
			Events: make(graph.NodeSet),
		}
		for _, i := range group {
			n := a.g.NodeAt(i)
			c.Nodes[n.ID] = struct{}{}
			if n.IsEvent() {
				c.Events[n.ID] = struct{}{}
			}
		}
		out[k] = c
	}
	return out
}

// tarjan returns strongly connected components as groups of node indices.
func tarjan(g *graph.Graph) [][]int {
	n := g.NodeCount()
	succ := make([][]int, n)
	for i, node := range g.Nodes() {
		ids := node.Successors()
		succ[i] = make([]int, len(ids))
		for k, id := range ids {
			succ[i][k] = g.Index(id)
		}
	}

	const unvisited = -1
	index := make([]int, n)
	lowLink := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
	}
	next := 0
	stack := make([]int, 0)
	groups := make([][]int, 0)

	// callFrame replaces one recursive strongconnect invocation.
	type callFrame struct {
		node    int
		edge    int // next successor to examine
		phase   int // 0=init, 1=process edges, 2=post-child, 3=finalize
		childID int // child just returned from (phase 2)
	}

	for root := 0; root < n; root++ {
		if index[root] != unvisited {
			continue
		}
		callStack := []callFrame{{node: root}}

		for len(callStack) > 0 {
			frame := &callStack[len(callStack)-1]

			switch frame.phase {
			case 0:
				index[frame.node] = next
				lowLink[frame.node] = next
				next++
				stack = append(stack, frame.node)
				onStack[frame.node] = true
				frame.phase = 1

			case 1:
				pushed := false
				for frame.edge < len(succ[frame.node]) {
					w := succ[frame.node][frame.edge]
					frame.edge++

					if index[w] == unvisited {
						frame.phase = 2
						frame.childID = w
						callStack = append(callStack, callFrame{node: w})
						pushed = true
						break
					}
					if onStack[w] && index[w] < lowLink[frame.node] {
						lowLink[frame.node] = index[w]
					}
				}
				if !pushed {
					frame.phase = 3
				}

			case 2:
				if lowLink[frame.childID] < lowLink[frame.node] {
					lowLink[frame.node] = lowLink[frame.childID]
				}
				frame.phase = 1

			case 3:
				if lowLink[frame.node] == index[frame.node] {
					group := make([]int, 0)
					for {
						w := stack[len(stack)-1]
						stack = stack[:len(stack)-1]
						onStack[w] = false
						group = append(group, w)
						if w == frame.node {
							break
						}
					}
					groups = append(groups, group)
				}
				callStack = callStack[:len(callStack)-1]
			}
		}
	}
	return groups
}

// unionFind returns weakly connected components as groups of node indices.
func unionFind(g *graph.Graph) [][]int {
	n := g.NodeCount()
	parent := make([]int, n)
	rank := make([]uint8, n)
	for i := range parent {
		parent[i] = i
	}

	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(x, y int) {
		rx, ry := find(x), find(y)
		if rx == ry {
			return
		}
		switch {
		case rank[rx] < rank[ry]:
			parent[rx] = ry
		case rank[rx] > rank[ry]:
			parent[ry] = rx
		default:
			parent[ry] = rx
			rank[rx]++
		}
	}

	for _, e := range g.Edges() {
		union(g.Index(e.Source), g.Index(e.Target))
	}

	slot := make(map[int]int)
	groups := make([][]int, 0)
	for i := 0; i < n; i++ {
		r := find(i)
		k, ok := slot[r]
		if !ok {
			k = len(groups)
			slot[r] = k
			groups = append(groups, make([]int, 0, 1))
		}
		groups[k] = append(groups[k], i)
	}
	return groups
}
