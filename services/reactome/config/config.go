// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the analysis engine configuration.
//
// Priority is env > file > defaults. Files may be YAML or JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianReactome/pkg/logging"
	"github.com/AleutianAI/AleutianReactome/services/reactome/centrality"
	"github.com/AleutianAI/AleutianReactome/services/reactome/graph"
	"github.com/AleutianAI/AleutianReactome/services/reactome/orchestrator"
	"github.com/AleutianAI/AleutianReactome/services/reactome/telemetry"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure returned by Load and
// Validate.
var ErrInvalidConfig = errors.New("invalid config")

var configValidate = validator.New()

// Config is the full engine configuration.
type Config struct {
	Graph        GraphConfig        `json:"graph" yaml:"graph"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	Centrality   CentralityConfig   `json:"centrality" yaml:"centrality"`
	Connectivity ConnectivityConfig `json:"connectivity" yaml:"connectivity"`
	Logging      logging.Config     `json:"logging" yaml:"logging"`
	Telemetry    telemetry.Config   `json:"telemetry" yaml:"telemetry"`
}

// GraphConfig controls graph construction.
type GraphConfig struct {
	// MaxNodes and MaxEdges bound the graph. Zero means the graph package
	// defaults.
	MaxNodes int `json:"max_nodes" yaml:"max_nodes" validate:"gte=0"`
	MaxEdges int `json:"max_edges" yaml:"max_edges" validate:"gte=0"`

	// Preoriented skips edge reversal for records already event-centric.
	Preoriented bool `json:"preoriented" yaml:"preoriented"`

	// Relations keeps only these relation types. Empty keeps all.
	Relations []graph.RelationType `json:"relations,omitempty" yaml:"relations,omitempty" validate:"dive,required"`

	// ReversedRelations overrides graph.DefaultReversedRelations.
	ReversedRelations []graph.RelationType `json:"reversed_relations,omitempty" yaml:"reversed_relations,omitempty" validate:"dive,required"`
}

// OrchestratorConfig controls the worker fan-out.
type OrchestratorConfig struct {
	// MaxWorkers bounds concurrently running measures. Zero means one
	// worker per measure.
	MaxWorkers int `json:"max_workers" yaml:"max_workers" validate:"gte=0"`

	// Timeout is the per-measure deadline. Zero means none.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
}

// CentralityConfig controls centrality runs.
type CentralityConfig struct {
	// Measures run when Centrality is called with no names.
	Measures []string `json:"measures" yaml:"measures" validate:"dive,oneof=closeness degree laplacian leverage h_index information subgraph"`

	// Workers is the goroutine count inside parallel measures. Zero means
	// runtime.NumCPU().
	Workers int `json:"workers" yaml:"workers" validate:"gte=0"`

	// SubgraphMaxNodes is the largest graph subgraph centrality accepts.
	SubgraphMaxNodes int `json:"subgraph_max_nodes" yaml:"subgraph_max_nodes" validate:"gte=0"`
}

// ConnectivityConfig controls connectivity runs.
type ConnectivityConfig struct {
	// Measures run when Connectivity is called with no names.
	Measures []string `json:"measures" yaml:"measures" validate:"dive,oneof=scc_pathways_intersection wcc_pathways_intersection scc_compartments_intersection wcc_compartments_intersection"`

	// Workers bounds concurrent per-structure subgraph summaries.
	Workers int `json:"workers" yaml:"workers" validate:"gte=0"`
}

// Default returns the built-in configuration: every measure enabled, the
// graph package limits, no timeout.
func Default() Config {
	return Config{
		Centrality: CentralityConfig{
			Measures: []string{
				"closeness", "degree", "laplacian", "leverage",
				"h_index", "information", "subgraph",
			},
			SubgraphMaxNodes: centrality.DefaultSubgraphMaxNodes,
		},
		Connectivity: ConnectivityConfig{
			Measures: []string{
				"scc_pathways_intersection", "wcc_pathways_intersection",
				"scc_compartments_intersection", "wcc_compartments_intersection",
			},
		},
		Logging: logging.Config{
			Level:   logging.LevelInfo,
			Service: "reactome",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - path: Path to a YAML or JSON file. Empty or missing means defaults.
//
// Outputs:
//   - Config: Merged configuration.
//   - error: Non-nil if the file is unreadable, unparsable or the merged
//     result fails validation (wraps ErrInvalidConfig).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("load config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

// loadEnv applies REACTOME_* overrides. A malformed value is an error
// rather than silently ignored.
func loadEnv(cfg *Config) error {
	var errs []error
	intVar := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = i
		}
	}
	boolVar := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	listVar := func(key string, dst *[]string) {
		if v := os.Getenv(key); v != "" {
			*dst = splitList(v)
		}
	}

	// Graph
	intVar("REACTOME_GRAPH_MAX_NODES", &cfg.Graph.MaxNodes)
	intVar("REACTOME_GRAPH_MAX_EDGES", &cfg.Graph.MaxEdges)
	boolVar("REACTOME_GRAPH_PREORIENTED", &cfg.Graph.Preoriented)
	if v := os.Getenv("REACTOME_GRAPH_RELATIONS"); v != "" {
		cfg.Graph.Relations = nil
		for _, s := range splitList(v) {
			cfg.Graph.Relations = append(cfg.Graph.Relations, graph.RelationType(s))
		}
	}

	// Orchestrator
	intVar("REACTOME_MAX_WORKERS", &cfg.Orchestrator.MaxWorkers)
	if v := os.Getenv("REACTOME_WORKER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REACTOME_WORKER_TIMEOUT: %w", err))
		} else {
			cfg.Orchestrator.Timeout = d
		}
	}

	// Measures
	listVar("REACTOME_CENTRALITY_MEASURES", &cfg.Centrality.Measures)
	intVar("REACTOME_CENTRALITY_WORKERS", &cfg.Centrality.Workers)
	intVar("REACTOME_SUBGRAPH_MAX_NODES", &cfg.Centrality.SubgraphMaxNodes)
	listVar("REACTOME_CONNECTIVITY_MEASURES", &cfg.Connectivity.Measures)
	intVar("REACTOME_CONNECTIVITY_WORKERS", &cfg.Connectivity.Workers)

	// Logging
	if v := os.Getenv("REACTOME_LOG_LEVEL"); v != "" {
		level, err := logging.ParseLevel(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("REACTOME_LOG_LEVEL: %w", err))
		} else {
			cfg.Logging.Level = level
		}
	}
	boolVar("REACTOME_LOG_JSON", &cfg.Logging.JSON)
	if v := os.Getenv("REACTOME_LOG_DIR"); v != "" {
		cfg.Logging.LogDir = v
	}

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks struct constraints on every section.
//
// Outputs:
//   - error: Nil, or ErrInvalidConfig joined with the validator errors.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// BuildOptions converts the graph section into graph.Build options.
func (c GraphConfig) BuildOptions(logger *slog.Logger) []graph.BuildOption {
	opts := []graph.BuildOption{graph.WithLogger(logger)}
	if c.MaxNodes > 0 {
		opts = append(opts, graph.WithMaxNodes(c.MaxNodes))
	}
	if c.MaxEdges > 0 {
		opts = append(opts, graph.WithMaxEdges(c.MaxEdges))
	}
	if c.Preoriented {
		opts = append(opts, graph.WithPreorientedEdges())
	}
	if len(c.Relations) > 0 {
		opts = append(opts, graph.WithRelations(c.Relations...))
	}
	if len(c.ReversedRelations) > 0 {
		opts = append(opts, graph.WithReversedRelations(c.ReversedRelations...))
	}
	return opts
}

// RunOptions converts the orchestrator section into orchestrator options.
func (c OrchestratorConfig) RunOptions(logger *slog.Logger) []orchestrator.Option {
	return []orchestrator.Option{
		orchestrator.WithMaxWorkers(c.MaxWorkers),
		orchestrator.WithTimeout(c.Timeout),
		orchestrator.WithLogger(logger),
	}
}

// AnalyzerOptions converts the centrality section into analyzer options.
func (c CentralityConfig) AnalyzerOptions(logger *slog.Logger) centrality.Options {
	return centrality.Options{
		Workers:          c.Workers,
		SubgraphMaxNodes: c.SubgraphMaxNodes,
		Logger:           logger,
	}
}
