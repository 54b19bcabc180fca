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

	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
	"go.opentelemetry.io/otel/attribute"
)

// Intersection maps structure ID -> component index -> overlap ratio.
//
// The representation is sparse: zero ratios are absent, and structures
// without event nodes have no entry at all.
type Intersection map[string]map[int]float64

// structureEvents returns the event nodes of every structure of a kind.
func (a *Analyzer) structureEvents(kind StructureKind) (map[string]graph.NodeSet, error) {
	events := a.g.EventNodes()
	out := make(map[string]graph.NodeSet)

	collect := func(id string, nodes graph.NodeSet) {
		set := make(graph.NodeSet)
		for nid := range nodes {
			if events.Has(nid) {
				set[nid] = struct{}{}
			}
		}
		out[id] = set
	}

	switch kind {
	case Pathways:
		for id, p := range a.g.Pathways() {
			collect(id, p.Nodes)
		}
	case Compartments:
		for id, c := range a.g.CompartmentSets() {
			collect(id, c.Nodes)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStructureKind, kind)
	}
	return out, nil
}

// Intersection computes |S.events ∩ C.events| / |S.events| for every
// structure S of structureKind and every component C of componentKind.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked once per structure.
//	componentKind - Strong or Weak.
//	structureKind - Pathways or Compartments.
//
// Outputs:
//
//	Intersection - Sparse ratio table. Every ratio lies in (0, 1].
//	error - Unknown kind or cancellation.
//
// Complexity: O(Σ_S |S.events|) with an event -> component lookup.
func (a *Analyzer) Intersection(ctx context.Context, componentKind ComponentKind, structureKind StructureKind) (result Intersection, err error) {
	ctx, span := startIntersectionSpan(ctx, componentKind, structureKind)
	defer func() {
		endSpan(span, err, attribute.Int("structures", len(result)))
	}()

	components, err := a.Components(componentKind)
	if err != nil {
		return nil, err
	}
	structures, err := a.structureEvents(structureKind)
	if err != nil {
		return nil, err
	}

	// Components partition the nodes, so each event has exactly one owner.
	owner := make(map[string]int, a.g.EventNodes().Len())
	for _, c := range components {
		for id := range c.Events {
			owner[id] = c.Index
		}
	}

	result = make(Intersection, len(structures))
	for id, events := range structures {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if events.Len() == 0 {
			continue
		}

		counts := make(map[int]int)
		for nid := range events {
			counts[owner[nid]]++
		}
		total := float64(events.Len())
		ratios := make(map[int]float64, len(counts))
		for idx, count := range counts {
			ratios[idx] = float64(count) / total
		}
		result[id] = ratios
	}

	a.logger.Debug("component intersection computed",
		"component_kind", componentKind.String(),
		"structure_kind", structureKind.String(),
		"components", len(components),
		"structures", len(result),
	)
	return result, nil
}
