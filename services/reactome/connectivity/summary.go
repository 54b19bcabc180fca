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
	"sync"

	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ComponentSummary counts components and groups them by size.
type ComponentSummary struct {
	// Total is the number of components.
	Total int `json:"total"`

	// Sizes maps component size to the number of components of that size.
	Sizes map[int]int `json:"sizes"`
}

// SizeHistogram summarizes a component list.
func SizeHistogram(components []Component) ComponentSummary {
	s := ComponentSummary{Total: len(components), Sizes: make(map[int]int)}
	for _, c := range components {
		s.Sizes[c.Size()]++
	}
	return s
}

// SubgraphConnectivity is the connectivity of one induced subgraph.
type SubgraphConnectivity struct {
	SCC ComponentSummary `json:"scc"`
	WCC ComponentSummary `json:"wcc"`
}

// SubgraphSummary computes strong and weak component histograms for the
// subgraph induced by every structure of a kind.
//
// Description:
//
//	Each structure's induced subgraph is analyzed independently across the
//	Analyzer's worker pool. The full result is returned only after every
//	subgraph has been processed.
//
// Outputs:
//
//	map[string]SubgraphConnectivity - Keyed by pathway or compartment ID.
//	error - Unknown kind, cancellation, or a subgraph failure.
func (a *Analyzer) SubgraphSummary(ctx context.Context, kind StructureKind) (result map[string]SubgraphConnectivity, err error) {
	ctx, span := tracer.Start(ctx, "connectivity.SubgraphSummary")
	defer func() {
		endSpan(span, err,
			attribute.String("structure_kind", kind.String()),
			attribute.Int("structures", len(result)),
		)
	}()

	var (
		ids     []string
		extract func(string) (*graph.Graph, error)
	)
	switch kind {
	case Pathways:
		for id := range a.g.Pathways() {
			ids = append(ids, id)
		}
		extract = a.g.PathwaySubgraph
	case Compartments:
		for id := range a.g.CompartmentSets() {
			ids = append(ids, id)
		}
		extract = a.g.CompartmentSubgraph
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStructureKind, kind)
	}

	var mu sync.Mutex
	result = make(map[string]SubgraphConnectivity, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sub, err := extract(id)
			if err != nil {
				return fmt.Errorf("subgraph %s: %w", id, err)
			}
			sa, err := New(sub, WithLogger(a.logger))
			if err != nil {
				return fmt.Errorf("subgraph %s: %w", id, err)
			}
			summary := SubgraphConnectivity{
				SCC: SizeHistogram(sa.StronglyConnected()),
				WCC: SizeHistogram(sa.WeaklyConnected()),
			}

			mu.Lock()
			result[id] = summary
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
