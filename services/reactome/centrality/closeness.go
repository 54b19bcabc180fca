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
	"sync"

	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
)

// Closeness computes bipartite-normalized shortest-path closeness.
//
// Description:
//
//	For node v in partition P (size p) with the opposite partition of size
//	q, let R be the nodes reachable from v along edge direction and totsp
//	the sum of their BFS distances. Then
//
//	    closeness(v) = (q + 2(p-1)) / totsp · (|R|-1) / (N-1)
//
//	where |R| includes v and N is the node count. Nodes that reach nothing
//	(totsp = 0) and graphs with a single node score 0.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked between row chunks.
//
// Outputs:
//
//	Scores - Closeness per node.
//	error - Non-nil if cancelled.
//
// Complexity: O(V · (V + E)) spread across the worker pool.
//
// Thread Safety: Safe for concurrent use. Each worker owns its BFS buffers.
func (a *Analyzer) Closeness(ctx context.Context) (scores Scores, err error) {
	ctx, finish := a.startMeasure(ctx, "closeness")
	defer func() { finish(scores, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := a.g.NodeCount()
	values := make([]float64, n)
	if n <= 1 {
		return a.scoresFrom(values), nil
	}

	sizes := map[graph.BipartiteClass]int{
		graph.ClassEvent:  a.g.PartitionSize(graph.ClassEvent),
		graph.ClassEntity: a.g.PartitionSize(graph.ClassEntity),
	}

	// Per-worker scratch space, recycled across rows.
	pool := sync.Pool{New: func() any { return newBFSScratch(n) }}

	err = a.parallelRows(ctx, n, func(i int) error {
		s := pool.Get().(*bfsScratch)
		defer pool.Put(s)

		reached, totsp := s.run(i, a.succ)
		if totsp == 0 {
			return nil
		}
		class := a.g.NodeAt(i).Class
		own := sizes[class]
		opp := sizes[class.Opposite()]

		c := float64(opp+2*(own-1)) / float64(totsp)
		c *= float64(reached-1) / float64(n-1)
		values[i] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a.scoresFrom(values), nil
}

// bfsScratch holds reusable BFS state. seen is epoch-stamped so it never
// needs clearing between runs.
type bfsScratch struct {
	seen  []uint32
	dist  []int
	queue []int
	epoch uint32
}

func newBFSScratch(n int) *bfsScratch {
	return &bfsScratch{
		seen:  make([]uint32, n),
		dist:  make([]int, n),
		queue: make([]int, 0, n),
	}
}

// run explores from src along successor lists and returns the number of
// reached nodes (including src) and the sum of their distances.
func (s *bfsScratch) run(src int, succ [][]int) (reached, totsp int) {
	s.epoch++
	if s.epoch == 0 {
		clear(s.seen)
		s.epoch = 1
	}

	s.queue = append(s.queue[:0], src)
	s.seen[src] = s.epoch
	s.dist[src] = 0

	for head := 0; head < len(s.queue); head++ {
		u := s.queue[head]
		du := s.dist[u]
		totsp += du
		for _, v := range succ[u] {
			if s.seen[v] == s.epoch {
				continue
			}
			s.seen[v] = s.epoch
			s.dist[v] = du + 1
			s.queue = append(s.queue, v)
		}
	}
	return len(s.queue), totsp
}
