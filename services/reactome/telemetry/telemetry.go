// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ExporterNone disables a signal.
const ExporterNone = "none"

var (
	// ErrNilContext indicates Init was called with a nil context.
	ErrNilContext = errors.New("context must not be nil")

	// ErrUnknownExporter indicates an unsupported exporter name.
	ErrUnknownExporter = errors.New("unknown exporter")
)

// Config selects the exporters installed by Init.
type Config struct {
	// ServiceName is the service.name resource attribute.
	ServiceName string `json:"service_name" yaml:"service_name" validate:"required"`

	// ServiceVersion is the service.version resource attribute.
	ServiceVersion string `json:"service_version" yaml:"service_version"`

	// Environment is the deployment.environment resource attribute.
	Environment string `json:"environment" yaml:"environment"`

	// TraceExporter is "otlp", "stdout", or "none".
	TraceExporter string `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=otlp stdout none"`

	// MetricExporter is "prometheus", "stdout", or "none".
	MetricExporter string `json:"metric_exporter" yaml:"metric_exporter" validate:"oneof=prometheus stdout none"`

	// OTLPEndpoint is the gRPC receiver for the otlp trace exporter.
	OTLPEndpoint string `json:"otlp_endpoint" yaml:"otlp_endpoint"`

	// OTLPInsecure disables TLS towards OTLPEndpoint.
	OTLPInsecure bool `json:"otlp_insecure" yaml:"otlp_insecure"`
}

// Enabled reports whether either signal has an exporter.
func (c Config) Enabled() bool {
	return c.TraceExporter != ExporterNone || c.MetricExporter != ExporterNone
}

// DefaultConfig returns the batch-run defaults: both signals off unless the
// OTEL_TRACES_EXPORTER or OTEL_METRICS_EXPORTER variables select one.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "reactome-analysis",
		ServiceVersion: "1.0.0",
		Environment:    envOr("REACTOME_ENV", "development"),
		TraceExporter:  envOr("OTEL_TRACES_EXPORTER", ExporterNone),
		MetricExporter: envOr("OTEL_METRICS_EXPORTER", ExporterNone),
		OTLPEndpoint:   envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:   true,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// spanExporters builds a span exporter per TraceExporter name.
var spanExporters = map[string]func(context.Context, Config) (sdktrace.SpanExporter, error){
	"otlp": func(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	},
	"stdout": func(context.Context, Config) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	},
}

// metricReader is a reader plus the /metrics handler it exposes, if any.
type metricReader struct {
	reader  sdkmetric.Reader
	handler http.Handler
}

// metricReaders builds a metric reader per MetricExporter name.
var metricReaders = map[string]func(Config) (metricReader, error){
	// Each provider gets its own registry so a later Init never collides
	// with an earlier exporter. The handler also serves the default
	// registry, which holds the promauto collectors of the analysis packages.
	"prometheus": func(Config) (metricReader, error) {
		reg := prometheus.NewRegistry()
		exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
		if err != nil {
			return metricReader{}, err
		}
		gatherers := prometheus.Gatherers{reg, prometheus.DefaultGatherer}
		return metricReader{
			reader:  exporter,
			handler: promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}),
		}, nil
	},
	"stdout": func(Config) (metricReader, error) {
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return metricReader{}, err
		}
		return metricReader{reader: sdkmetric.NewPeriodicReader(exporter)}, nil
	},
}

// installation is the process-wide provider set shared by every Init caller.
type installation struct {
	refs     int
	cfg      Config
	handler  http.Handler
	shutdown []func(context.Context) error
}

var (
	installMu sync.Mutex
	installed *installation
)

// Init installs the global otel providers selected by cfg.
//
// Description:
//
//	Init is reference counted. The first call builds the providers and sets
//	them as the otel globals; later calls share them and ignore their cfg.
//	The returned release drops one reference. The last release flushes and
//	stops the providers and restores no-op globals. With both exporters
//	"none", Init installs nothing and release is a no-op.
//
// Inputs:
//
//	ctx - Used while connecting exporters.
//	cfg - Exporter selection.
//
// Outputs:
//
//	release - Drops this caller's reference. Safe to call more than once.
//	error - ErrNilContext, ErrUnknownExporter, or an exporter error.
//
// Thread Safety: Safe for concurrent use.
func Init(ctx context.Context, cfg Config) (release func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if !cfg.Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	installMu.Lock()
	defer installMu.Unlock()

	if installed == nil {
		inst, err := install(ctx, cfg)
		if err != nil {
			return nil, err
		}
		installed = inst
	}
	installed.refs++

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() { err = releaseInstallation(ctx) })
		return err
	}, nil
}

func install(ctx context.Context, cfg Config) (*installation, error) {
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)
	inst := &installation{cfg: cfg}

	var tp *sdktrace.TracerProvider
	if cfg.TraceExporter != ExporterNone {
		build, ok := spanExporters[cfg.TraceExporter]
		if !ok {
			return nil, fmt.Errorf("%w: trace exporter %q", ErrUnknownExporter, cfg.TraceExporter)
		}
		exporter, err := build(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create %s span exporter: %w", cfg.TraceExporter, err)
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		inst.shutdown = append(inst.shutdown, tp.Shutdown)
	}

	var mp *sdkmetric.MeterProvider
	if cfg.MetricExporter != ExporterNone {
		build, ok := metricReaders[cfg.MetricExporter]
		if !ok {
			_ = inst.stop(ctx)
			return nil, fmt.Errorf("%w: metric exporter %q", ErrUnknownExporter, cfg.MetricExporter)
		}
		mr, err := build(cfg)
		if err != nil {
			_ = inst.stop(ctx)
			return nil, fmt.Errorf("create %s metric reader: %w", cfg.MetricExporter, err)
		}
		mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(mr.reader),
		)
		inst.handler = mr.handler
		inst.shutdown = append(inst.shutdown, mp.Shutdown)
	}

	// Globals change only once every exporter exists.
	if tp != nil {
		otel.SetTracerProvider(tp)
	}
	if mp != nil {
		otel.SetMeterProvider(mp)
	}
	return inst, nil
}

func releaseInstallation(ctx context.Context) error {
	installMu.Lock()
	defer installMu.Unlock()

	if installed == nil {
		return nil
	}
	installed.refs--
	if installed.refs > 0 {
		return nil
	}
	inst := installed
	installed = nil

	otel.SetTracerProvider(tracenoop.NewTracerProvider())
	otel.SetMeterProvider(metricnoop.NewMeterProvider())
	return inst.stop(ctx)
}

func (inst *installation) stop(ctx context.Context) error {
	var errs []error
	for _, fn := range inst.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}

// Active returns the config of the installed providers and the number of
// Init references holding them. ok is false when nothing is installed.
func Active() (cfg Config, refs int, ok bool) {
	installMu.Lock()
	defer installMu.Unlock()
	if installed == nil {
		return Config{}, 0, false
	}
	return installed.cfg, installed.refs, true
}

// MetricsHandler returns the /metrics handler of the installed prometheus
// reader, or nil when the prometheus exporter is not installed.
//
// Thread Safety: Safe for concurrent use.
func MetricsHandler() http.Handler {
	installMu.Lock()
	defer installMu.Unlock()
	if installed == nil {
		return nil
	}
	return installed.handler
}
