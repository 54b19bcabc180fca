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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianReactome/pkg/logging"
	"github.com/AleutianAI/AleutianReactome/services/reactome/centrality"
	"github.com/AleutianAI/AleutianReactome/services/reactome/config"
	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
	"github.com/AleutianAI/AleutianReactome/services/reactome/graph/graphtest"
	"github.com/AleutianAI/AleutianReactome/services/reactome/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, g *graph.Graph, mutate func(*config.Config)) *Engine {
	t.Helper()
	cfg := quietConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(context.Background(), g, cfg, WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, e.Close()) })
	return e
}

// quietConfig disables telemetry and console logging.
func quietConfig() config.Config {
	cfg := config.Default()
	cfg.Telemetry.TraceExporter = telemetry.ExporterNone
	cfg.Telemetry.MetricExporter = telemetry.ExporterNone
	cfg.Logging.Quiet = true
	return cfg
}

func TestNew_Validation(t *testing.T) {
	g := graphtest.Chain(t)
	tests := []struct {
		name    string
		ctx     context.Context
		g       *graph.Graph
		mutate  func(*config.Config)
		wantErr error
	}{
		{name: "nil graph", ctx: context.Background(), wantErr: ErrNilGraph},
		{name: "nil context", g: g, wantErr: ErrNilContext},
		{
			name:    "unknown trace exporter",
			ctx:     context.Background(),
			g:       g,
			mutate:  func(c *config.Config) { c.Telemetry.TraceExporter = "zipkin" },
			wantErr: telemetry.ErrUnknownExporter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := quietConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			e, err := New(tt.ctx, tt.g, cfg)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, e)
			_, _, active := telemetry.Active()
			assert.False(t, active)
		})
	}
}

func TestNew_LogsToConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	cfg := quietConfig()
	cfg.Logging.LogDir = dir
	cfg.Logging.Service = "reactome-engine"

	e, err := New(context.Background(), graphtest.Chain(t), cfg)
	require.NoError(t, err)

	report, err := e.Centrality(context.Background(), MeasureDegree)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "Close is idempotent")

	name := fmt.Sprintf("reactome-engine_%s.log", time.Now().Format("2006-01-02"))
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)

	var finished map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry), string(line))
		if entry["msg"] == "analysis finished" {
			finished = entry
		}
	}
	require.NotNil(t, finished, "log file:\n%s", data)
	assert.Equal(t, "centrality", finished["family"])
	assert.Equal(t, "reactome-engine", finished["service"])
	assert.Equal(t, 1.0, finished["succeeded"])
	assert.Equal(t, 4.0, finished["nodes"])
}

func TestNew_SharesTelemetry(t *testing.T) {
	cfg := quietConfig()
	cfg.Telemetry.MetricExporter = "prometheus"
	g := graphtest.Chain(t)

	first, err := New(context.Background(), g, cfg, WithLogger(logging.Discard()))
	require.NoError(t, err)
	second, err := New(context.Background(), g, cfg, WithLogger(logging.Discard()))
	require.NoError(t, err)

	_, refs, active := telemetry.Active()
	require.True(t, active)
	assert.Equal(t, 2, refs)
	assert.NotNil(t, telemetry.MetricsHandler())

	_, err = first.Centrality(context.Background(), MeasureDegree)
	require.NoError(t, err)

	require.NoError(t, first.Close())
	_, refs, active = telemetry.Active()
	require.True(t, active)
	assert.Equal(t, 1, refs)

	require.NoError(t, second.Close())
	_, _, active = telemetry.Active()
	assert.False(t, active)
	assert.Nil(t, telemetry.MetricsHandler())
}

func TestMeasureNames(t *testing.T) {
	assert.Equal(t, []string{
		"closeness", "degree", "h_index", "information", "laplacian", "leverage", "subgraph",
	}, CentralityMeasures())
	assert.Equal(t, []string{
		"scc_compartments_intersection", "scc_pathways_intersection",
		"wcc_compartments_intersection", "wcc_pathways_intersection",
	}, ConnectivityMeasures())

	// Every configured default must be a registered name.
	cfg := config.Default()
	assert.ElementsMatch(t, CentralityMeasures(), cfg.Centrality.Measures)
	assert.ElementsMatch(t, ConnectivityMeasures(), cfg.Connectivity.Measures)
}

func TestCentrality_DefaultMeasures(t *testing.T) {
	e := newEngine(t, graphtest.Chain(t), nil)

	report, err := e.Centrality(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Len(t, report.Results, 7)
	assert.Len(t, report.Durations, 7)

	assert.Equal(t, 4.0, report.Results[MeasureLaplacian]["A"])
	assert.Equal(t, 0.0, report.Results[MeasureHIndex]["D"])
	assert.Equal(t, 0.0, report.Results[MeasureLeverage]["D"])

	info := report.Results[MeasureInformation]
	assert.InDelta(t, 16.0/23.0, info["A"], 1e-9)
	assert.InDelta(t, 16.0/19.0, info["B"], 1e-9)
	assert.InDelta(t, 16.0/15.0, info["C"], 1e-9)
	assert.InDelta(t, 16.0/39.0, info["D"], 1e-9)
}

func TestCentrality_PartialFailure(t *testing.T) {
	e := newEngine(t, graphtest.Chain(t), func(c *config.Config) {
		c.Centrality.SubgraphMaxNodes = 2
	})

	report, err := e.Centrality(context.Background(), MeasureDegree, MeasureSubgraph)
	require.NoError(t, err)

	require.True(t, report.Succeeded(MeasureDegree))
	assert.Equal(t, 0.5, report.Results[MeasureDegree]["A"])

	require.Contains(t, report.Failures, MeasureSubgraph)
	failure := report.Failures[MeasureSubgraph]
	assert.Equal(t, MeasureSubgraph, failure.Name)
	assert.ErrorIs(t, failure, centrality.ErrGraphTooLarge)
	assert.NotContains(t, report.Results, MeasureSubgraph)
	assert.ErrorIs(t, report.Err(), centrality.ErrGraphTooLarge)
}

func TestCentrality_UnknownMeasure(t *testing.T) {
	e := newEngine(t, graphtest.Chain(t), nil)

	tests := []struct {
		name  string
		names []string
	}{
		{"unknown", []string{MeasureDegree, "pagerank"}},
		{"connectivity name", []string{MeasureSCCPathways}},
		{"empty string", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := e.Centrality(context.Background(), tt.names...)
			assert.Nil(t, report)
			require.ErrorIs(t, err, ErrUnknownMeasure)

			var unknown *UnknownMeasureError
			require.True(t, errors.As(err, &unknown))
			assert.Equal(t, "centrality", unknown.Family)
			assert.Equal(t, CentralityMeasures(), unknown.Supported)
		})
	}
}

func TestCentrality_DuplicateNamesRunOnce(t *testing.T) {
	e := newEngine(t, graphtest.Chain(t), nil)

	report, err := e.Centrality(context.Background(), MeasureDegree, MeasureDegree)
	require.NoError(t, err)
	assert.Len(t, report.Results, 1)
}

func TestCentrality_NoConfiguredMeasures(t *testing.T) {
	e := newEngine(t, graphtest.Chain(t), func(c *config.Config) {
		c.Centrality.Measures = nil
	})

	report, err := e.Centrality(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Failures)
}

func TestCentrality_CancelledReportsEveryMeasure(t *testing.T) {
	e := newEngine(t, graphtest.Chain(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := e.Centrality(ctx, MeasureDegree, MeasureCloseness, MeasureInformation)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	require.Len(t, report.Failures, 3)
	for name, failure := range report.Failures {
		assert.ErrorIs(t, failure, context.Canceled, name)
	}
}

func TestCentrality_NilContext(t *testing.T) {
	e := newEngine(t, graphtest.Chain(t), nil)
	//nolint:staticcheck // nil context is the case under test
	_, err := e.Centrality(nil)
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestConnectivity_DefaultMeasures(t *testing.T) {
	e := newEngine(t, graphtest.TwoComponents(t), nil)

	report, err := e.Connectivity(context.Background())
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Len(t, report.Results, 4)

	for _, name := range []string{MeasureSCCPathways, MeasureWCCPathways} {
		p1 := report.Results[name]["P1"]
		require.Len(t, p1, 1, name)
		for _, ratio := range p1 {
			assert.Equal(t, 1.0, ratio)
		}
		assert.NotContains(t, report.Results[name], "EMPTY")
	}

	c1 := report.Results[MeasureSCCCompartments]["C1"]
	require.Len(t, c1, 2)
	for _, ratio := range c1 {
		assert.Equal(t, 0.5, ratio)
	}
}

func TestConnectivity_UnknownMeasure(t *testing.T) {
	e := newEngine(t, graphtest.TwoComponents(t), nil)

	report, err := e.Connectivity(context.Background(), MeasureSCCPathways, MeasureDegree)
	assert.Nil(t, report)
	var unknown *UnknownMeasureError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "connectivity", unknown.Family)
	assert.Equal(t, MeasureDegree, unknown.Name)
	assert.Contains(t, err.Error(), `"degree"`)
}

func TestConnectivity_SingleWorker(t *testing.T) {
	e := newEngine(t, graphtest.TwoComponents(t), func(c *config.Config) {
		c.Orchestrator.MaxWorkers = 1
	})

	report, err := e.Connectivity(context.Background(), MeasureWCCPathways, MeasureWCCCompartments)
	require.NoError(t, err)
	assert.Len(t, report.Results, 2)
}

func TestStats(t *testing.T) {
	e := newEngine(t, graphtest.TwoComponents(t), nil)

	stats, err := e.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Graph.Nodes)
	assert.Equal(t, 2, stats.StronglyConnected.Total)
	assert.Equal(t, map[int]int{3: 1, 5: 1}, stats.StronglyConnected.Sizes)
	assert.Equal(t, 2, stats.WeaklyConnected.Total)

	require.Contains(t, stats.Pathways, "P1")
	assert.Equal(t, map[int]int{1: 2}, stats.Pathways["P1"].SCC.Sizes)
	require.Contains(t, stats.Compartments, "C1")
	assert.Equal(t, 2, stats.Compartments["C1"].WCC.Total)
}

func TestStats_Cancelled(t *testing.T) {
	e := newEngine(t, graphtest.TwoComponents(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Stats(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
