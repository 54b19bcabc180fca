// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package connectivity computes connected components of a Reactome graph
// and their overlap with pathways and compartments.
//
// # Description
//
// Strongly connected components respect edge direction; weakly connected
// components ignore it. Components are computed once per Analyzer and
// shared. Overlap ratios are computed on event nodes only, since pathway
// and compartment membership is recorded on events.
//
// # Thread Safety
//
// An Analyzer is safe for concurrent use.
package connectivity

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
)

// ComponentKind selects strong or weak connectivity.
type ComponentKind int

const (
	// Strong components respect edge direction.
	Strong ComponentKind = iota

	// Weak components ignore edge direction.
	Weak
)

// String returns "scc" or "wcc".
func (k ComponentKind) String() string {
	switch k {
	case Strong:
		return "scc"
	case Weak:
		return "wcc"
	default:
		return "unknown"
	}
}

// StructureKind selects the node grouping intersected with components.
type StructureKind int

const (
	// Pathways groups nodes by pathway annotation.
	Pathways StructureKind = iota

	// Compartments groups nodes by compartment annotation.
	Compartments
)

// String returns "pathways" or "compartments".
func (k StructureKind) String() string {
	switch k {
	case Pathways:
		return "pathways"
	case Compartments:
		return "compartments"
	default:
		return "unknown"
	}
}

// Analyzer computes connectivity over one graph.
type Analyzer struct {
	g       *graph.Graph
	logger  *slog.Logger
	workers int

	sccOnce sync.Once
	scc     []Component

	wccOnce sync.Once
	wcc     []Component
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithWorkers bounds the goroutines used by SubgraphSummary.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// New creates an Analyzer for a frozen graph.
func New(g *graph.Graph, opts ...Option) (*Analyzer, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if !g.IsFrozen() {
		return nil, ErrGraphNotFrozen
	}
	a := &Analyzer{
		g:       g,
		logger:  slog.Default(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Components returns the components of the requested kind.
func (a *Analyzer) Components(kind ComponentKind) ([]Component, error) {
	switch kind {
	case Strong:
		return a.StronglyConnected(), nil
	case Weak:
		return a.WeaklyConnected(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownComponentKind, kind)
	}
}
