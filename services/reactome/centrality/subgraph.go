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
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Subgraph computes subgraph centrality, the diagonal of exp(A) where A is
// the multiplicity adjacency matrix.
//
// The exponential is dense. Graphs with more than SubgraphMaxNodes nodes are
// refused with ErrGraphTooLarge.
//
// Complexity: O(V³)
func (a *Analyzer) Subgraph(ctx context.Context) (scores Scores, err error) {
	_, finish := a.startMeasure(ctx, "subgraph")
	defer func() { finish(scores, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := a.g.NodeCount()
	if n == 0 {
		return Scores{}, nil
	}
	if n > a.maxSub {
		return nil, fmt.Errorf("%w: %d nodes exceeds limit %d", ErrGraphTooLarge, n, a.maxSub)
	}

	var expA mat.Dense
	expA.Exp(a.g.AdjacencyMatrix().Dense())

	values := make([]float64, n)
	for i := range values {
		values[i] = expA.At(i, i)
	}
	return a.scoresFrom(values), nil
}
