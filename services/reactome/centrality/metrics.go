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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("aleutian.reactome.centrality")

var (
	// measureDuration observes wall time per measure.
	// Labels: measure, result ("success", "error")
	measureDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reactome_centrality_measure_duration_seconds",
		Help:    "Centrality measure computation duration",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	}, []string{"measure", "result"})

	// informationPhaseDuration observes each phase of information centrality.
	// Labels: phase ("fill", "reduce", "invert", "score")
	informationPhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reactome_centrality_information_phase_seconds",
		Help:    "Information centrality phase duration",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	}, []string{"phase"})
)

// startMeasure opens a span for a measure and returns a finisher that
// records duration, status and the number of scored nodes.
func (a *Analyzer) startMeasure(ctx context.Context, measure string) (context.Context, func(Scores, error)) {
	ctx, span := tracer.Start(ctx, "centrality."+measure,
		trace.WithAttributes(
			attribute.String("measure", measure),
			attribute.Int("graph.node_count", a.g.NodeCount()),
			attribute.Int("graph.edge_count", a.g.EdgeCount()),
		),
	)
	start := time.Now()

	return ctx, func(scores Scores, err error) {
		defer span.End()
		elapsed := time.Since(start)
		result := "success"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			a.logger.Warn("centrality measure failed",
				"measure", measure,
				"error", err,
			)
		} else {
			span.SetAttributes(attribute.Int("scored_nodes", len(scores)))
			span.SetStatus(codes.Ok, "")
			a.logger.Debug("centrality measure completed",
				"measure", measure,
				"nodes", len(scores),
				"duration_ms", elapsed.Milliseconds(),
			)
		}
		measureDuration.WithLabelValues(measure, result).Observe(elapsed.Seconds())
	}
}

func observePhase(phase string, start time.Time) {
	informationPhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}
