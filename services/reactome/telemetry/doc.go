// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry configures OpenTelemetry for the analysis engine.
//
// Analysis packages use the otel API directly (otel.Tracer, otel.Meter) and
// prometheus promauto collectors. Until Init runs, the otel globals are
// no-ops, so library code never depends on this package.
//
// # Backends
//
// Traces go to an OTLP gRPC receiver or stdout. Metrics go to a Prometheus
// registry served by MetricsHandler, or to stdout. Both default to "none".
//
// # Lifecycle
//
// Init is reference counted: analysis.New takes a reference and
// Engine.Close drops it, so several engines share one provider set and the
// last Close flushes it.
//
//	release, err := telemetry.Init(ctx, cfg.Telemetry)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer release(context.Background())
//
// # Environment Variables
//
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//   - OTEL_TRACES_EXPORTER: otlp, stdout, or none (default: none)
//   - OTEL_METRICS_EXPORTER: prometheus, stdout, or none (default: none)
//   - REACTOME_ENV: environment name (default: development)
//
// # Thread Safety
//
// All exported functions are safe for concurrent use.
package telemetry
