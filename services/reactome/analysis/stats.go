// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"context"
	"fmt"

	"github.com/AleutianAI/AleutianReactome/services/reactome/connectivity"
	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
	"golang.org/x/sync/errgroup"
)

// StatsReport describes the composition and connectivity of a graph.
type StatsReport struct {
	Graph graph.Stats `json:"graph"`

	// StronglyConnected and WeaklyConnected summarize the whole graph.
	StronglyConnected connectivity.ComponentSummary `json:"strongly_connected"`
	WeaklyConnected   connectivity.ComponentSummary `json:"weakly_connected"`

	// Pathways and Compartments summarize each induced subgraph.
	Pathways     map[string]connectivity.SubgraphConnectivity `json:"pathways"`
	Compartments map[string]connectivity.SubgraphConnectivity `json:"compartments"`
}

// Stats computes a StatsReport.
//
// The pathway and compartment subgraph summaries run concurrently. Any
// failure or cancellation fails the whole report.
func (e *Engine) Stats(ctx context.Context) (*StatsReport, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	report := &StatsReport{
		Graph:             e.g.Stats(),
		StronglyConnected: connectivity.SizeHistogram(e.connect.StronglyConnected()),
		WeaklyConnected:   connectivity.SizeHistogram(e.connect.WeaklyConnected()),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := e.connect.SubgraphSummary(gctx, connectivity.Pathways)
		if err != nil {
			return fmt.Errorf("pathway summary: %w", err)
		}
		report.Pathways = summary
		return nil
	})
	g.Go(func() error {
		summary, err := e.connect.SubgraphSummary(gctx, connectivity.Compartments)
		if err != nil {
			return fmt.Errorf("compartment summary: %w", err)
		}
		report.Compartments = summary
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("graph stats computed",
		"nodes", report.Graph.Nodes,
		"scc", report.StronglyConnected.Total,
		"wcc", report.WeaklyConnected.Total,
	)
	return report, nil
}
