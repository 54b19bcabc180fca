// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analysis runs named centrality and connectivity measures over a
// Reactome graph.
//
// # Description
//
// An Engine resolves measure names, fans the measures out through the
// orchestrator (one worker per measure) and returns the merged report. A
// measure that fails appears in Report.Failures while every other measure
// still reports its result.
//
// # Lifecycle
//
// New takes a telemetry reference and, without WithLogger, opens the logger
// described by Config.Logging. Close releases both.
//
// # Thread Safety
//
// An Engine only reads its graph. Centrality, Connectivity and Stats may be
// called concurrently. Close must not race with a running measure.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianReactome/pkg/logging"
	"github.com/AleutianAI/AleutianReactome/services/reactome/centrality"
	"github.com/AleutianAI/AleutianReactome/services/reactome/config"
	"github.com/AleutianAI/AleutianReactome/services/reactome/connectivity"
	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
	"github.com/AleutianAI/AleutianReactome/services/reactome/orchestrator"
	"github.com/AleutianAI/AleutianReactome/services/reactome/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("aleutian.reactome.analysis")

// closeTimeout bounds the telemetry flush in Close.
const closeTimeout = 5 * time.Second

// Engine runs measures over one frozen graph.
type Engine struct {
	g      *graph.Graph
	cfg    config.Config
	logger *slog.Logger

	central *centrality.Analyzer
	connect *connectivity.Analyzer

	// closers run in reverse order on Close.
	closers   []func(context.Context) error
	closeOnce sync.Once
	closeErr  error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger passed to every analyzer and to the
// orchestrator. The caller keeps ownership; Config.Logging is then ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine.
//
// Description:
//
//	Takes a telemetry reference for cfg.Telemetry, opens the cfg.Logging
//	logger unless WithLogger is given, then builds one centrality and one
//	connectivity analyzer over g. Analyzer caches (out-degrees, components)
//	are shared by every later call. On error everything opened so far is
//	released.
//
// Inputs:
//
//	ctx - Used while connecting telemetry exporters. Must not be nil.
//	g - Frozen graph. Must not be nil.
//	cfg - Engine configuration; see config.Default.
//	opts - Engine options.
//
// Outputs:
//
//	*Engine - Ready for use. The caller must Close it.
//	error - ErrNilContext, ErrNilGraph, a telemetry error, or the analyzer
//	        construction error.
func New(ctx context.Context, g *graph.Graph, cfg config.Config, opts ...Option) (_ *Engine, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if g == nil {
		return nil, ErrNilGraph
	}
	e := &Engine{g: g, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	defer func() {
		if err != nil {
			_ = e.Close()
		}
	}()

	if e.logger == nil {
		owned := logging.New(cfg.Logging)
		e.logger = owned.Slog()
		e.closers = append(e.closers, func(context.Context) error { return owned.Close() })
	}

	release, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	e.closers = append(e.closers, release)

	central, err := centrality.New(g, cfg.Centrality.AnalyzerOptions(e.logger))
	if err != nil {
		return nil, fmt.Errorf("centrality analyzer: %w", err)
	}
	e.central = central

	connOpts := []connectivity.Option{connectivity.WithLogger(e.logger)}
	if cfg.Connectivity.Workers > 0 {
		connOpts = append(connOpts, connectivity.WithWorkers(cfg.Connectivity.Workers))
	}
	connect, err := connectivity.New(g, connOpts...)
	if err != nil {
		return nil, fmt.Errorf("connectivity analyzer: %w", err)
	}
	e.connect = connect

	return e, nil
}

// Close drops the telemetry reference, flushing the providers if it was the
// last one, then closes the logger New opened. Later calls return the first
// result.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		var errs []error
		for i := len(e.closers) - 1; i >= 0; i-- {
			errs = append(errs, e.closers[i](ctx))
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}

// Graph returns the analyzed graph.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Centrality runs the named centrality measures.
//
// Description:
//
//	Every name is checked before any worker starts. With no names the
//	configured default measures run. Duplicate names run once. The call
//	blocks until every measure has finished.
//
// Inputs:
//
//	ctx - Cancellation is propagated to every measure.
//	names - Measure names such as "degree" or "information".
//
// Outputs:
//
//	*orchestrator.Report[centrality.Scores] - Results and failures by name.
//	error - *UnknownMeasureError, ErrNilContext, or an orchestrator error.
//	Measure failures are in the report, not here.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) Centrality(ctx context.Context, names ...string) (*orchestrator.Report[centrality.Scores], error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if len(names) == 0 {
		names = e.cfg.Centrality.Measures
	}
	resolved, err := resolve(familyCentrality, centralityMeasures, names)
	if err != nil {
		return nil, err
	}

	tasks := make(map[string]centralityTask, len(resolved))
	for _, name := range resolved {
		tasks[name] = centralityMeasures[name](e.central)
	}
	return runMeasures(ctx, e, familyCentrality, tasks)
}

// Connectivity runs the named component/structure intersection measures.
//
// Unknown names fail before any worker starts. With no names the
// configured default measures run.
func (e *Engine) Connectivity(ctx context.Context, names ...string) (*orchestrator.Report[connectivity.Intersection], error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if len(names) == 0 {
		names = e.cfg.Connectivity.Measures
	}
	resolved, err := resolve(familyConnectivity, connectivityMeasures, names)
	if err != nil {
		return nil, err
	}

	tasks := make(map[string]connectivityTask, len(resolved))
	for _, name := range resolved {
		tasks[name] = intersectionTask(e.connect, connectivityMeasures[name])
	}
	return runMeasures(ctx, e, familyConnectivity, tasks)
}

// runMeasures fans tasks out through the orchestrator and logs the outcome.
func runMeasures[T any](ctx context.Context, e *Engine, family string, tasks map[string]orchestrator.Task[T]) (*orchestrator.Report[T], error) {
	ctx, span := tracer.Start(ctx, "analysis."+family,
		trace.WithAttributes(
			attribute.String("family", family),
			attribute.Int("measures", len(tasks)),
		),
	)
	defer span.End()

	start := time.Now()
	report, err := orchestrator.Run(ctx, tasks, e.cfg.Orchestrator.RunOptions(e.logger)...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s run: %w", family, err)
	}
	span.SetAttributes(
		attribute.String("run_id", report.RunID.String()),
		attribute.Int("failed", len(report.Failures)),
	)
	if len(report.Failures) > 0 {
		span.SetStatus(codes.Error, "measures failed")
	}
	e.logRun(ctx, family, report.RunID.String(), len(report.Results), len(report.Failures), start)
	return report, nil
}

func (e *Engine) logRun(ctx context.Context, family, runID string, succeeded, failed int, start time.Time) {
	telemetry.LoggerWithTrace(ctx, e.logger).Info("analysis finished",
		slog.String("family", family),
		slog.String("run_id", runID),
		slog.Int("succeeded", succeeded),
		slog.Int("failed", failed),
		slog.Int("nodes", e.g.NodeCount()),
		slog.Duration("elapsed", time.Since(start)),
	)
}
