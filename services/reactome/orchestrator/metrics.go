// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("aleutian.reactome.orchestrator")

// Worker outcome labels.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomePanic   = "panic"
	outcomeTimeout = "timeout"
)

var (
	// workersTotal counts finished workers by outcome.
	// Labels: "success", "failure", "panic", "timeout"
	workersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reactome_orchestrator_workers_total",
		Help: "Finished orchestrator workers by outcome",
	}, []string{"outcome"})

	// workerDuration observes worker wall time per task name.
	workerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reactome_orchestrator_worker_duration_seconds",
		Help:    "Orchestrator worker duration",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"task"})

	// runsInFlight tracks runs waiting on their join-all barrier.
	runsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reactome_orchestrator_runs_in_flight",
		Help: "Orchestrator runs currently executing",
	})
)
