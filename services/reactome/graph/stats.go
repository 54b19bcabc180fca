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

// Stats summarizes the composition of a graph.
type Stats struct {
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
	Events   int `json:"events"`
	Entities int `json:"entities"`

	// SchemaClasses counts nodes per schema class label.
	SchemaClasses map[string]int `json:"schema_classes"`

	// Relations counts edges per relation type.
	Relations map[RelationType]int `json:"relations"`

	Pathways         int `json:"pathways"`
	TopLevelPathways int `json:"top_level_pathways"`
	Compartments     int `json:"compartments"`
}

// Stats computes composition statistics in O(V + E).
func (g *Graph) Stats() Stats {
	s := Stats{
		Nodes:            g.NodeCount(),
		Edges:            g.EdgeCount(),
		Events:           g.EventNodes().Len(),
		Entities:         g.EntityNodes().Len(),
		SchemaClasses:    make(map[string]int),
		Relations:        make(map[RelationType]int),
		Pathways:         len(g.Pathways()),
		TopLevelPathways: len(g.TopLevelPathways()),
		Compartments:     len(g.compartments),
	}
	for _, n := range g.order {
		s.SchemaClasses[n.SchemaClass]++
	}
	for _, e := range g.edges {
		s.Relations[e.Type]++
	}
	return s
}
