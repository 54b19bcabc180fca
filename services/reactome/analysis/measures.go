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
	"slices"

	"github.com/AleutianAI/AleutianReactome/services/reactome/centrality"
	"github.com/AleutianAI/AleutianReactome/services/reactome/connectivity"
	"github.com/AleutianAI/AleutianReactome/services/reactome/orchestrator"
)

// Centrality measure names.
const (
	MeasureCloseness   = "closeness"
	MeasureDegree      = "degree"
	MeasureLaplacian   = "laplacian"
	MeasureLeverage    = "leverage"
	MeasureHIndex      = "h_index"
	MeasureInformation = "information"
	MeasureSubgraph    = "subgraph"
)

// Connectivity measure names.
const (
	MeasureSCCPathways     = "scc_pathways_intersection"
	MeasureWCCPathways     = "wcc_pathways_intersection"
	MeasureSCCCompartments = "scc_compartments_intersection"
	MeasureWCCCompartments = "wcc_compartments_intersection"
)

const (
	familyCentrality   = "centrality"
	familyConnectivity = "connectivity"
)

type centralityTask = orchestrator.Task[centrality.Scores]

type connectivityTask = orchestrator.Task[connectivity.Intersection]

var centralityMeasures = map[string]func(*centrality.Analyzer) centralityTask{
	MeasureCloseness:   func(a *centrality.Analyzer) centralityTask { return a.Closeness },
	MeasureDegree:      func(a *centrality.Analyzer) centralityTask { return a.Degree },
	MeasureLaplacian:   func(a *centrality.Analyzer) centralityTask { return a.Laplacian },
	MeasureLeverage:    func(a *centrality.Analyzer) centralityTask { return a.Leverage },
	MeasureHIndex:      func(a *centrality.Analyzer) centralityTask { return a.HIndex },
	MeasureInformation: func(a *centrality.Analyzer) centralityTask { return a.Information },
	MeasureSubgraph:    func(a *centrality.Analyzer) centralityTask { return a.Subgraph },
}

type intersectionKinds struct {
	component connectivity.ComponentKind
	structure connectivity.StructureKind
}

var connectivityMeasures = map[string]intersectionKinds{
	MeasureSCCPathways:     {connectivity.Strong, connectivity.Pathways},
	MeasureWCCPathways:     {connectivity.Weak, connectivity.Pathways},
	MeasureSCCCompartments: {connectivity.Strong, connectivity.Compartments},
	MeasureWCCCompartments: {connectivity.Weak, connectivity.Compartments},
}

// CentralityMeasures returns every supported centrality name, sorted.
func CentralityMeasures() []string {
	return sortedKeys(centralityMeasures)
}

// ConnectivityMeasures returns every supported connectivity name, sorted.
func ConnectivityMeasures() []string {
	return sortedKeys(connectivityMeasures)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// resolve checks every name against a registry and drops duplicates while
// keeping first-seen order. The first unknown name fails the whole call.
func resolve[V any](family string, registry map[string]V, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			return nil, &UnknownMeasureError{Family: family, Name: name, Supported: sortedKeys(registry)}
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func intersectionTask(a *connectivity.Analyzer, kinds intersectionKinds) connectivityTask {
	return func(ctx context.Context) (connectivity.Intersection, error) {
		return a.Intersection(ctx, kinds.component, kinds.structure)
	}
}
