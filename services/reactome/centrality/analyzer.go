// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package centrality computes per-node centrality scores over a frozen
// Reactome graph.
//
// # Description
//
// Four measures (laplacian, leverage, h_index, degree) are closed formulas
// over out-degrees and distinct out-neighbours. Closeness runs one BFS per
// node across a worker pool. Subgraph centrality and information centrality
// are dense linear algebra over the adjacency matrix; information centrality
// runs a two-phase shared-buffer protocol (see Information).
//
// Out-degree always counts parallel edges. Out-neighbours are always the
// distinct successors of a node.
//
// # Thread Safety
//
// An Analyzer only reads the graph. Every measure is safe to call
// concurrently with every other measure on the same Analyzer.
package centrality

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
	"golang.org/x/sync/errgroup"
)

// Default configuration values.
const (
	// DefaultSubgraphMaxNodes bounds the dense matrix exponential.
	DefaultSubgraphMaxNodes = 5000

	// rowChunk is the number of rows handed to a worker at a time.
	rowChunk = 64
)

// Scores maps node ID to centrality score.
type Scores map[string]float64

// Options configures an Analyzer.
type Options struct {
	// Workers is the number of goroutines used by parallel measures.
	// Zero means runtime.NumCPU().
	Workers int `yaml:"workers" validate:"gte=0"`

	// SubgraphMaxNodes is the largest graph Subgraph accepts.
	// Zero means DefaultSubgraphMaxNodes.
	SubgraphMaxNodes int `yaml:"subgraph_max_nodes" validate:"gte=0"`

	// Logger receives diagnostics. Nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// Analyzer computes centrality measures over one graph.
type Analyzer struct {
	g       *graph.Graph
	workers int
	maxSub  int
	logger  *slog.Logger

	// outDeg and succ are index-aligned with the graph's node order.
	outDeg []int
	succ   [][]int
}

// New creates an Analyzer.
//
// Inputs:
//
//	g - Frozen graph. Must not be nil.
//	opts - Analyzer options; zero values select defaults.
//
// Outputs:
//
//	*Analyzer - Ready to compute any measure.
//	error - ErrNilGraph or ErrGraphNotFrozen.
func New(g *graph.Graph, opts Options) (*Analyzer, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if !g.IsFrozen() {
		return nil, ErrGraphNotFrozen
	}

	a := &Analyzer{
		g:       g,
		workers: opts.Workers,
		maxSub:  opts.SubgraphMaxNodes,
		logger:  opts.Logger,
	}
	if a.workers <= 0 {
		a.workers = runtime.NumCPU()
	}
	if a.maxSub <= 0 {
		a.maxSub = DefaultSubgraphMaxNodes
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	n := g.NodeCount()
	a.outDeg = make([]int, n)
	a.succ = make([][]int, n)
	for i, node := range g.Nodes() {
		a.outDeg[i] = node.OutDegree()
		ids := node.Successors()
		idx := make([]int, len(ids))
		for k, id := range ids {
			idx[k] = g.Index(id)
		}
		a.succ[i] = idx
	}
	return a, nil
}

// Graph returns the analyzed graph.
func (a *Analyzer) Graph() *graph.Graph { return a.g }

// Workers returns the effective worker count.
func (a *Analyzer) Workers() int { return a.workers }

// scoresFrom converts an index-aligned slice into Scores.
func (a *Analyzer) scoresFrom(values []float64) Scores {
	out := make(Scores, len(values))
	for i, v := range values {
		out[a.g.NodeAt(i).ID] = v
	}
	return out
}

// parallelRows runs fn for every row in [0, n) across the worker pool.
//
// Rows are handed out in chunks; fn must only write state owned by its row.
// parallelRows returns after every worker has finished, so it is a barrier.
// A panic in fn is converted into an error.
func (a *Analyzer) parallelRows(ctx context.Context, n int, fn func(i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for lo := 0; lo < n; lo += rowChunk {
		hi := min(lo+rowChunk, n)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("row worker panic on rows [%d,%d): %v", lo, hi, r)
				}
			}()
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				if err := fn(i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
