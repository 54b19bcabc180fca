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
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AleutianAI/AleutianReactome/services/reactome/shm"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Information computes information centrality.
//
// Description:
//
//	With D the diagonal out-degree matrix, A the multiplicity adjacency
//	matrix, L = D - A and J the all-ones matrix, C = (L + J)⁻¹ and for
//	node i
//
//	    score(i) = 1 / (C[i][i] + (trace(C) - 2·rowSum(C, i)) / n)
//
//	The computation is a two-phase protocol over shared buffers:
//
//	  1. Workers fill disjoint rows of D and A. Barrier.
//	     L + J is reduced in place into D, A is released, C = (L + J)⁻¹
//	     is computed sequentially, D is released and C is sealed.
//	  2. Workers score disjoint rows of the read-only C. Barrier.
//
//	Every buffer is released on every exit path, including worker failure.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked between row chunks.
//
// Outputs:
//
//	Scores - Information centrality per node. Empty for an empty graph.
//	         A single-node graph scores +Inf: C = [1] and the denominator is 0.
//	error - ErrSingularMatrix if L + J is not invertible, or a buffer or
//	        cancellation error.
//
// Complexity: O(V³) time, 2·V² float64 peak shared memory.
func (a *Analyzer) Information(ctx context.Context) (scores Scores, err error) {
	ctx, finish := a.startMeasure(ctx, "information")
	defer func() { finish(scores, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := a.g.NodeCount()
	if n == 0 {
		return Scores{}, nil
	}

	c, err := a.informationMatrix(ctx, n)
	if err != nil {
		return nil, err
	}
	defer c.Release()

	start := time.Now()
	values, err := a.informationScores(ctx, c, n)
	observePhase("score", start)
	if err != nil {
		return nil, err
	}
	return a.scoresFrom(values), nil
}

// informationMatrix runs phase 1 and returns the sealed C buffer. The caller
// owns the result and must release it.
func (a *Analyzer) informationMatrix(ctx context.Context, n int) (*shm.Buffer, error) {
	d, err := shm.Allocate(n, n)
	if err != nil {
		return nil, fmt.Errorf("allocate degree buffer: %w", err)
	}
	defer d.Release()

	adjBuf, err := shm.Allocate(n, n)
	if err != nil {
		return nil, fmt.Errorf("allocate adjacency buffer: %w", err)
	}
	defer adjBuf.Release()

	start := time.Now()
	adj := a.g.AdjacencyMatrix()
	err = a.parallelRows(ctx, n, func(i int) error {
		d.Set(i, i, float64(a.outDeg[i]))
		row := adjBuf.Row(i)
		adj.DoRowNonZero(i, func(j int, v float64) {
			row[j] = v
		})
		return nil
	})
	observePhase("fill", start)
	if err != nil {
		return nil, fmt.Errorf("fill degree and adjacency: %w", err)
	}

	// L + J = D - A + 1, reduced into D.
	start = time.Now()
	dd, ad := d.Data(), adjBuf.Data()
	for k := range dd {
		dd[k] = dd[k] - ad[k] + 1
	}
	if err := adjBuf.Release(); err != nil {
		return nil, err
	}
	observePhase("reduce", start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := shm.Allocate(n, n)
	if err != nil {
		return nil, fmt.Errorf("allocate inverse buffer: %w", err)
	}
	ok := false
	defer func() {
		if !ok {
			c.Release()
		}
	}()

	start = time.Now()
	if err := invertInto(c, d); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, err
		}
		a.logger.Warn("information centrality matrix is ill-conditioned",
			"condition", float64(cond),
			"nodes", n,
		)
	}
	observePhase("invert", start)

	if err := d.Release(); err != nil {
		return nil, err
	}
	if err := c.Seal(); err != nil {
		return nil, err
	}
	ok = true
	return c, nil
}

// invertInto writes src⁻¹ into dst. A singular src yields ErrSingularMatrix;
// an ill-conditioned src yields the mat.Condition error with a usable result.
func invertInto(dst, src *shm.Buffer) error {
	from, err := src.Dense()
	if err != nil {
		return err
	}
	to, err := dst.Dense()
	if err != nil {
		return err
	}

	err = to.Inverse(from)
	if err == nil {
		return nil
	}
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSingularMatrix, err)
}

// informationScores runs phase 2 over the sealed C buffer.
func (a *Analyzer) informationScores(ctx context.Context, c *shm.Buffer, n int) ([]float64, error) {
	trace := 0.0
	for i := 0; i < n; i++ {
		trace += c.At(i, i)
	}

	values := make([]float64, n)
	err := a.parallelRows(ctx, n, func(i int) error {
		row := c.Row(i)
		values[i] = 1 / (row[i] + (trace-2*floats.Sum(row))/float64(n))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("score rows: %w", err)
	}
	return values, nil
}
