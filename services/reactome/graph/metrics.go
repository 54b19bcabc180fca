// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for graph operations.
var (
	tracer = otel.Tracer("aleutian.reactome.graph")
	meter  = otel.Meter("aleutian.reactome.graph")
)

// Metrics for graph building operations.
var (
	buildLatency   metric.Float64Histogram
	buildTotal     metric.Int64Counter
	nodesCreated   metric.Int64Histogram
	edgesCreated   metric.Int64Histogram
	recordsDropped metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"reactome_graph_build_duration_seconds",
			metric.WithDescription("Duration of graph build operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"reactome_graph_build_total",
			metric.WithDescription("Total number of graph build operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"reactome_graph_nodes_created",
			metric.WithDescription("Number of nodes created per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesCreated, err = meter.Int64Histogram(
			"reactome_graph_edges_created",
			metric.WithDescription("Number of edges created per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		recordsDropped, err = meter.Int64Counter(
			"reactome_graph_records_dropped_total",
			metric.WithDescription("Malformed records skipped during ingestion"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuildMetrics records metrics for a build operation.
func recordBuildMetrics(ctx context.Context, duration time.Duration, stats BuildStats, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)

	if success {
		nodesCreated.Record(ctx, int64(stats.NodesCreated))
		edgesCreated.Record(ctx, int64(stats.EdgesCreated))
	}
	if dropped := stats.Dropped(); dropped > 0 {
		recordsDropped.Add(ctx, int64(dropped))
	}
}

// startBuildSpan creates a span for a build operation.
func startBuildSpan(ctx context.Context, nodeRecords, edgeRecords int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "graph.Build",
		trace.WithAttributes(
			attribute.Int("graph.node_records", nodeRecords),
			attribute.Int("graph.edge_records", edgeRecords),
		),
	)
}

// setBuildSpanResult sets the result attributes on a build span.
func setBuildSpanResult(span trace.Span, stats BuildStats) {
	span.SetAttributes(
		attribute.Int("graph.node_count", stats.NodesCreated),
		attribute.Int("graph.edge_count", stats.EdgesCreated),
		attribute.Int("graph.records_dropped", stats.Dropped()),
		attribute.Int("graph.edges_reversed", stats.EdgesReversed),
	)
}
