// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package centrality

import (
	"context"

	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
)

// Degree computes bipartite-normalized degree centrality.
//
// Description:
//
//	score(n) = (in-degree + out-degree) / |opposite partition|.
//	Parallel edges count individually. A node whose opposite partition is
//	empty scores 0.
//
// Complexity: O(V)
func (a *Analyzer) Degree(ctx context.Context) (scores Scores, err error) {
	_, finish := a.startMeasure(ctx, "degree")
	defer func() { finish(scores, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opposite := map[graph.BipartiteClass]float64{
		graph.ClassEvent:  float64(a.g.PartitionSize(graph.ClassEntity)),
		graph.ClassEntity: float64(a.g.PartitionSize(graph.ClassEvent)),
	}

	values := make([]float64, a.g.NodeCount())
	for i, n := range a.g.Nodes() {
		if size := opposite[n.Class]; size > 0 {
			values[i] = float64(n.Degree()) / size
		}
	}
	return a.scoresFrom(values), nil
}

// Laplacian computes d(n)² + d(n) + 2·Σ d(m) over distinct out-neighbours m.
//
// Complexity: O(V + E)
func (a *Analyzer) Laplacian(ctx context.Context) (scores Scores, err error) {
	_, finish := a.startMeasure(ctx, "laplacian")
	defer func() { finish(scores, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]float64, len(a.outDeg))
	for i, d := range a.outDeg {
		sum := 0
		for _, m := range a.succ[i] {
			sum += a.outDeg[m]
		}
		values[i] = float64(d*d + d + 2*sum)
	}
	return a.scoresFrom(values), nil
}

// Leverage computes (1/d(n))·Σ (d(n)-d(m))/(d(n)+d(m)) over distinct
// out-neighbours m. Nodes with zero out-degree score 0.
//
// Complexity: O(V + E)
func (a *Analyzer) Leverage(ctx context.Context) (scores Scores, err error) {
	_, finish := a.startMeasure(ctx, "leverage")
	defer func() { finish(scores, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]float64, len(a.outDeg))
	for i, d := range a.outDeg {
		if d == 0 {
			continue
		}
		// d > 0 keeps every denominator positive.
		sum := 0.0
		for _, m := range a.succ[i] {
			dm := a.outDeg[m]
			sum += float64(d-dm) / float64(d+dm)
		}
		values[i] = sum / float64(d)
	}
	return a.scoresFrom(values), nil
}

// HIndex computes max over h in [1, d(n)] of min(|{m : d(m) > h}|, h) over
// distinct out-neighbours m. Nodes with zero out-degree score 0.
//
// Invariant: 0 <= HIndex(n) <= out-degree(n).
//
// Complexity: O(V + E log E)
func (a *Analyzer) HIndex(ctx context.Context) (scores Scores, err error) {
	_, finish := a.startMeasure(ctx, "h_index")
	defer func() { finish(scores, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]float64, len(a.outDeg))
	for i, d := range a.outDeg {
		values[i] = float64(hIndex(d, a.succ[i], a.outDeg))
	}
	return a.scoresFrom(values), nil
}

// hIndex evaluates the h-index of one node.
//
// count(h) = |{m : d(m) > h}| is non-increasing in h, so one descending
// sweep over h evaluates every candidate.
func hIndex(d int, succ []int, outDeg []int) int {
	if d == 0 || len(succ) == 0 {
		return 0
	}

	// above[k] counts neighbours whose degree, clamped to d+1, equals k.
	above := make([]int, d+2)
	for _, m := range succ {
		above[min(outDeg[m], d+1)]++
	}

	best := 0
	count := 0 // neighbours with degree > h
	for h := d; h >= 1; h-- {
		count += above[h+1]
		if v := min(count, h); v > best {
			best = v
		}
	}
	return best
}
