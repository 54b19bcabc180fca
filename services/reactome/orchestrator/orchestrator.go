// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator fans independent named computations out to workers
// and joins all of them before returning.
//
// # Description
//
// Each task runs in its own goroutine with panic isolation. A failing task
// never cancels or blocks the others; its failure is recorded by name next
// to the results of the tasks that succeeded. Run returns only after every
// worker has finished.
//
// # Thread Safety
//
// Run is safe for concurrent use. Tasks must not share mutable state other
// than what they synchronize themselves.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Task is a named unit of work producing one result.
type Task[T any] func(ctx context.Context) (T, error)

// Report is the merged outcome of a Run.
type Report[T any] struct {
	// RunID identifies the run in logs and traces.
	RunID uuid.UUID

	// Results holds the result of every task that succeeded.
	Results map[string]T

	// Failures holds the failure of every task that did not.
	Failures map[string]*WorkerFailure

	// Durations holds the wall time of every task.
	Durations map[string]time.Duration
}

// Succeeded reports whether the named task produced a result.
func (r *Report[T]) Succeeded(name string) bool {
	_, ok := r.Results[name]
	return ok
}

// Err joins every failure in task-name order, or returns nil.
func (r *Report[T]) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Failures))
	for name := range r.Failures {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, r.Failures[name])
	}
	return errors.Join(errs...)
}

type runOptions struct {
	maxWorkers int
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures Run.
type Option func(*runOptions)

// WithMaxWorkers bounds the number of concurrently running tasks.
// Zero or negative means one worker per task.
func WithMaxWorkers(n int) Option {
	return func(o *runOptions) {
		o.maxWorkers = n
	}
}

// WithTimeout gives every task its own deadline. Run never abandons a task
// that outlives its deadline. It waits for the task to return, and a task
// that returns an error after the deadline is recorded as ErrWorkerTimeout.
// A task that still returns a result is recorded as a success.
func WithTimeout(d time.Duration) Option {
	return func(o *runOptions) {
		o.timeout = d
	}
}

// WithLogger sets the logger for worker diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Run executes every task and blocks until all of them have finished.
//
// Description:
//
//	Tasks run concurrently, bounded by WithMaxWorkers. Completion order is
//	unconstrained. Each task's outcome is written once into the report
//	under its name: a result on success, a WorkerFailure on error, panic or
//	timeout. One task failing does not cancel the others. Cancelling ctx
//	is propagated to every task.
//
// Inputs:
//
//	ctx - Parent context. Must not be nil.
//	tasks - Named tasks. Every task must be non-nil.
//	opts - Optional configuration.
//
// Outputs:
//
//	*Report[T] - Results and failures keyed by task name.
//	error - ErrNilContext or ErrNilTask. Task failures are never returned
//	        here; use Report.Err.
//
// Example:
//
//	report, err := orchestrator.Run(ctx, map[string]orchestrator.Task[Scores]{
//	    "degree":    analyzer.Degree,
//	    "closeness": analyzer.Closeness,
//	})
//	if err != nil {
//	    return err
//	}
//	for name, failure := range report.Failures {
//	    logger.Error("measure failed", "measure", name, "error", failure.Err)
//	}
//
// Thread Safety: Safe for concurrent use.
func Run[T any](ctx context.Context, tasks map[string]Task[T], opts ...Option) (*Report[T], error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	for name, task := range tasks {
		if task == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilTask, name)
		}
	}

	options := runOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}

	report := &Report[T]{
		RunID:     uuid.New(),
		Results:   make(map[string]T, len(tasks)),
		Failures:  make(map[string]*WorkerFailure),
		Durations: make(map[string]time.Duration, len(tasks)),
	}
	logger := options.logger.With("run_id", report.RunID.String())

	ctx, span := tracer.Start(ctx, "orchestrator.Run",
		trace.WithAttributes(
			attribute.String("run_id", report.RunID.String()),
			attribute.Int("tasks", len(tasks)),
			attribute.Int("max_workers", options.maxWorkers),
		),
	)
	defer span.End()

	runsInFlight.Inc()
	defer runsInFlight.Dec()

	var mu sync.Mutex
	var g errgroup.Group
	if options.maxWorkers > 0 {
		g.SetLimit(options.maxWorkers)
	}

	start := time.Now()
	for name, task := range tasks {
		g.Go(func() error {
			value, failure, elapsed := runWorker(ctx, name, task, options.timeout)

			mu.Lock()
			defer mu.Unlock()
			report.Durations[name] = elapsed
			if failure != nil {
				report.Failures[name] = failure
				logger.Warn("worker failed",
					"task", name,
					"error", failure.Err,
					"duration_ms", elapsed.Milliseconds(),
				)
				return nil
			}
			report.Results[name] = value
			logger.Debug("worker completed",
				"task", name,
				"duration_ms", elapsed.Milliseconds(),
			)
			return nil
		})
	}

	// Join-all barrier. Workers never return errors, so Wait cannot fail.
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("succeeded", len(report.Results)),
		attribute.Int("failed", len(report.Failures)),
	)
	if len(report.Failures) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d tasks failed", len(report.Failures), len(tasks)))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	logger.Info("orchestrator run completed",
		"tasks", len(tasks),
		"succeeded", len(report.Results),
		"failed", len(report.Failures),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// runWorker executes one task with panic isolation and an optional deadline.
func runWorker[T any](ctx context.Context, name string, task Task[T], timeout time.Duration) (value T, failure *WorkerFailure, elapsed time.Duration) {
	ctx, span := tracer.Start(ctx, "orchestrator.worker",
		trace.WithAttributes(attribute.String("task", name)),
	)
	defer span.End()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	outcome := outcomeSuccess
	defer func() {
		elapsed = time.Since(start)
		workerDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		workersTotal.WithLabelValues(outcome).Inc()
		if failure != nil {
			span.RecordError(failure.Err)
			span.SetStatus(codes.Error, failure.Err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			var zero T
			value = zero
			outcome = outcomePanic
			failure = &WorkerFailure{
				Name:  name,
				Err:   fmt.Errorf("%w: %v", ErrWorkerPanic, r),
				Stack: string(debug.Stack()),
			}
		}
	}()

	v, err := task(ctx)
	switch {
	case err != nil && timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome = outcomeTimeout
		return value, &WorkerFailure{Name: name, Err: fmt.Errorf("%w after %s: %w", ErrWorkerTimeout, timeout, err)}, 0
	case err != nil:
		outcome = outcomeFailure
		return value, &WorkerFailure{Name: name, Err: err}, 0
	}
	return v, nil, 0
}
