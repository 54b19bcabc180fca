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
	"fmt"
	"slices"
)

// PathwaySubgraph returns the subgraph induced by the nodes annotated with
// the given pathway.
//
// Description:
//
//	The result keeps only the requested pathway: its record, if any, and
//	its annotation on each node. Every compartment record and annotation is
//	kept. Edges are copied with their stored orientation.
//
// Errors:
//
//	ErrPathwayNotFound - No pathway record or annotation with this ID
func (g *Graph) PathwaySubgraph(id string) (*Graph, error) {
	set, ok := g.Pathways()[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPathwayNotFound, id)
	}
	var records []Pathway
	if p, ok := g.Pathway(id); ok {
		records = []Pathway{p}
	}
	return g.induced(
		func(n *Node) bool { return set.Nodes.Has(n.ID) },
		func(p string) bool { return p == id },
		nil,
		records,
		g.compartments,
	), nil
}

// CompartmentSubgraph returns the subgraph induced by the nodes located in
// the given compartment. Node compartment annotations are narrowed to that
// compartment; every pathway record and annotation is kept.
//
// Errors:
//
//	ErrCompartmentNotFound - No compartment record or annotation with this ID
func (g *Graph) CompartmentSubgraph(id string) (*Graph, error) {
	set, ok := g.CompartmentSets()[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCompartmentNotFound, id)
	}
	var records []Compartment
	if c, ok := g.Compartment(id); ok {
		records = []Compartment{c}
	}
	return g.induced(
		func(n *Node) bool { return set.Nodes.Has(n.ID) },
		nil,
		func(c string) bool { return c == id },
		g.pathways,
		records,
	), nil
}

// induced builds a frozen graph from the nodes accepted by keep, the edges
// between them, and the given side tables. Non-nil keepPathway and
// keepCompartment narrow node annotations.
func (g *Graph) induced(
	keep func(*Node) bool,
	keepPathway, keepCompartment func(string) bool,
	pathways []Pathway,
	compartments []Compartment,
) *Graph {
	out := newGraph(g.options)

	for _, n := range g.order {
		if !keep(n) {
			continue
		}
		// Capacity and duplicates cannot fail: the source graph already
		// satisfied both under the same options.
		_ = out.addNode(&Node{
			ID:           n.ID,
			Class:        n.Class,
			SchemaClass:  n.SchemaClass,
			Pathways:     filterAnnotations(n.Pathways, keepPathway),
			Compartments: filterAnnotations(n.Compartments, keepCompartment),
		})
	}
	for _, e := range g.edges {
		if _, ok := out.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := out.nodes[e.Target]; !ok {
			continue
		}
		edge := *e
		_ = out.addEdge(&edge)
	}
	for _, p := range pathways {
		_ = out.addPathway(p)
	}
	for _, c := range compartments {
		_ = out.addCompartment(c)
	}

	out.freeze()
	return out
}

func filterAnnotations(ids []string, keep func(string) bool) []string {
	if keep == nil {
		return slices.Clone(ids)
	}
	var out []string
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
