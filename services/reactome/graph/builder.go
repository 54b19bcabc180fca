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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/codes"
)

// cancelCheckInterval is how many records are ingested between context checks.
const cancelCheckInterval = 1024

// recordValidate validates raw records. validator.Validate is goroutine safe
// and caches struct metadata, so one instance serves every build.
var recordValidate = validator.New()

// NodeRecord is a raw node as produced by the extraction pipeline.
type NodeRecord struct {
	ID           string   `json:"id" yaml:"id" validate:"required"`
	Class        string   `json:"class" yaml:"class" validate:"required,oneof=Entity Event entity event"`
	SchemaClass  string   `json:"schema_class" yaml:"schema_class"`
	Pathways     []string `json:"pathways,omitempty" yaml:"pathways,omitempty"`
	Compartments []string `json:"compartments,omitempty" yaml:"compartments,omitempty"`
}

// EdgeRecord is a raw relation in database orientation (entity -> event for
// the reversed relation types) unless WithPreorientedEdges is used.
type EdgeRecord struct {
	Source        string       `json:"source" yaml:"source" validate:"required"`
	Target        string       `json:"target" yaml:"target" validate:"required"`
	Type          RelationType `json:"type" yaml:"type" validate:"required"`
	Order         *int         `json:"order,omitempty" yaml:"order,omitempty"`
	Stoichiometry *int         `json:"stoichiometry,omitempty" yaml:"stoichiometry,omitempty" validate:"omitempty,gte=0"`
}

// PathwayRecord is raw pathway metadata.
type PathwayRecord struct {
	ID        string `json:"id" yaml:"id" validate:"required"`
	Name      string `json:"name" yaml:"name"`
	TopLevel  bool   `json:"top_level" yaml:"top_level"`
	InDisease bool   `json:"in_disease" yaml:"in_disease"`
	Level     int    `json:"level" yaml:"level" validate:"gte=0"`
}

// CompartmentRecord is raw compartment metadata.
type CompartmentRecord struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name"`
}

// Records bundles all raw input for a build.
type Records struct {
	Nodes        []NodeRecord
	Edges        []EdgeRecord
	Pathways     []PathwayRecord
	Compartments []CompartmentRecord
}

// buildOptions configures Build.
type buildOptions struct {
	graph       GraphOptions
	reversed    map[RelationType]struct{}
	preoriented bool
	relations   map[RelationType]struct{}
	logger      *slog.Logger
}

// BuildOption is a functional option for configuring Build.
type BuildOption func(*buildOptions)

// WithMaxNodes sets the maximum number of nodes the graph can hold.
func WithMaxNodes(n int) BuildOption {
	return func(o *buildOptions) {
		o.graph.MaxNodes = n
	}
}

// WithMaxEdges sets the maximum number of edges the graph can hold.
func WithMaxEdges(n int) BuildOption {
	return func(o *buildOptions) {
		o.graph.MaxEdges = n
	}
}

// WithReversedRelations replaces the set of relation types whose direction
// is inverted to establish the event-centric convention.
func WithReversedRelations(types ...RelationType) BuildOption {
	return func(o *buildOptions) {
		o.reversed = relationSet(types)
	}
}

// WithPreorientedEdges declares that edge records are already event-centric.
// No edge is inverted.
func WithPreorientedEdges() BuildOption {
	return func(o *buildOptions) {
		o.preoriented = true
	}
}

// WithRelations restricts the graph to the listed relation types. Edges of
// other types are counted in BuildStats.EdgesFiltered.
func WithRelations(types ...RelationType) BuildOption {
	return func(o *buildOptions) {
		o.relations = relationSet(types)
	}
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func relationSet(types []RelationType) map[RelationType]struct{} {
	out := make(map[RelationType]struct{}, len(types))
	for _, t := range types {
		out[t] = struct{}{}
	}
	return out
}

// Build validates raw records and produces a frozen Graph.
//
// Description:
//
//	Ingestion is tolerant. Node records with missing fields or an invalid
//	class, duplicate IDs, edges with missing fields or dangling endpoints,
//	and invalid pathway/compartment records are skipped. Each skipped
//	record is reported in BuildResult.Errors and counted in
//	BuildResult.Stats. Edges of reversed relation types are inverted
//	exactly once here; downstream analyzers take directions as stored.
//
// Inputs:
//
//	ctx - Context for cancellation. Must not be nil.
//	records - The raw records.
//	opts - Optional build configuration.
//
// Outputs:
//
//	*BuildResult - The frozen graph and ingestion report.
//	error - Non-nil only for a nil or cancelled context.
//
// Example:
//
//	result, err := graph.Build(ctx, records)
//	if err != nil {
//	    return fmt.Errorf("build graph: %w", err)
//	}
//	if result.HasErrors() {
//	    logger.Warn("records dropped", "count", result.Stats.Dropped())
//	}
func Build(ctx context.Context, records Records, opts ...BuildOption) (*BuildResult, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	options := buildOptions{
		graph:    DefaultGraphOptions(),
		reversed: relationSet(DefaultReversedRelations()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := startBuildSpan(ctx, len(records.Nodes), len(records.Edges))
	defer span.End()

	start := time.Now()
	b := &builder{
		g:       newGraph(options.graph),
		options: options,
		result:  &BuildResult{},
	}

	steps := []func(context.Context, Records) error{
		b.ingestNodes,
		b.ingestPathways,
		b.ingestCompartments,
		b.ingestEdges,
	}
	for _, step := range steps {
		if err := step(ctx, records); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			recordBuildMetrics(ctx, time.Since(start), b.result.Stats, false)
			return nil, err
		}
	}

	b.g.freeze()

	duration := time.Since(start)
	b.result.Graph = b.g
	b.result.Stats.NodesCreated = b.g.NodeCount()
	b.result.Stats.EdgesCreated = b.g.EdgeCount()
	b.result.Stats.DurationMicro = duration.Microseconds()

	setBuildSpanResult(span, b.result.Stats)
	recordBuildMetrics(ctx, duration, b.result.Stats, true)

	if b.result.HasErrors() {
		options.logger.Warn("graph build dropped records",
			slog.Int("nodes_dropped", b.result.Stats.NodesDropped),
			slog.Int("edges_dropped", b.result.Stats.EdgesDropped),
			slog.Int("pathways_dropped", b.result.Stats.PathwaysDropped),
			slog.Int("compartments_dropped", b.result.Stats.CompartmentsDropped),
		)
	}
	options.logger.Debug("graph build completed",
		slog.Int("nodes", b.result.Stats.NodesCreated),
		slog.Int("edges", b.result.Stats.EdgesCreated),
		slog.Int("edges_reversed", b.result.Stats.EdgesReversed),
		slog.Int("edges_filtered", b.result.Stats.EdgesFiltered),
		slog.Int64("duration_us", b.result.Stats.DurationMicro),
	)

	return b.result, nil
}

// builder carries the mutable state of a single Build call.
type builder struct {
	g       *Graph
	options buildOptions
	result  *BuildResult
}

func (b *builder) drop(kind RecordKind, pos int, id string, err error) {
	b.result.Errors = append(b.result.Errors, RecordError{Kind: kind, Position: pos, ID: id, Err: err})
	switch kind {
	case RecordNode:
		b.result.Stats.NodesDropped++
	case RecordEdge:
		b.result.Stats.EdgesDropped++
	case RecordPathway:
		b.result.Stats.PathwaysDropped++
	case RecordCompartment:
		b.result.Stats.CompartmentsDropped++
	}
}

func checkCancelled(ctx context.Context, i int) error {
	if i%cancelCheckInterval != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBuildCancelled, err)
	}
	return nil
}

func (b *builder) ingestNodes(ctx context.Context, records Records) error {
	for i, rec := range records.Nodes {
		if err := checkCancelled(ctx, i); err != nil {
			return err
		}
		if err := validateRecord(rec); err != nil {
			b.drop(RecordNode, i, rec.ID, err)
			continue
		}
		class, err := ParseBipartiteClass(rec.Class)
		if err != nil {
			b.drop(RecordNode, i, rec.ID, err)
			continue
		}

		node := &Node{
			ID:           rec.ID,
			Class:        class,
			SchemaClass:  rec.SchemaClass,
			Pathways:     nonEmptyDistinct(rec.Pathways),
			Compartments: nonEmptyDistinct(rec.Compartments),
		}
		if err := b.g.addNode(node); err != nil {
			b.drop(RecordNode, i, rec.ID, err)
			continue
		}
	}
	return nil
}

func (b *builder) ingestPathways(ctx context.Context, records Records) error {
	for i, rec := range records.Pathways {
		if err := checkCancelled(ctx, i); err != nil {
			return err
		}
		if err := validateRecord(rec); err != nil {
			b.drop(RecordPathway, i, rec.ID, err)
			continue
		}
		p := Pathway{
			ID:        rec.ID,
			Name:      rec.Name,
			TopLevel:  rec.TopLevel,
			InDisease: rec.InDisease,
			Level:     rec.Level,
		}
		if err := b.g.addPathway(p); err != nil {
			b.drop(RecordPathway, i, rec.ID, err)
		}
	}
	return nil
}

func (b *builder) ingestCompartments(ctx context.Context, records Records) error {
	for i, rec := range records.Compartments {
		if err := checkCancelled(ctx, i); err != nil {
			return err
		}
		if err := validateRecord(rec); err != nil {
			b.drop(RecordCompartment, i, rec.ID, err)
			continue
		}
		if err := b.g.addCompartment(Compartment{ID: rec.ID, Name: rec.Name}); err != nil {
			b.drop(RecordCompartment, i, rec.ID, err)
		}
	}
	return nil
}

func (b *builder) ingestEdges(ctx context.Context, records Records) error {
	for i, rec := range records.Edges {
		if err := checkCancelled(ctx, i); err != nil {
			return err
		}
		id := rec.Source + "->" + rec.Target
		if err := validateRecord(rec); err != nil {
			b.drop(RecordEdge, i, id, err)
			continue
		}
		if b.options.relations != nil {
			if _, ok := b.options.relations[rec.Type]; !ok {
				b.result.Stats.EdgesFiltered++
				continue
			}
		}

		edge := &Edge{
			Source:        rec.Source,
			Target:        rec.Target,
			Type:          rec.Type,
			Order:         rec.Order,
			Stoichiometry: rec.Stoichiometry,
		}
		reversed := false
		if !b.options.preoriented {
			if _, ok := b.options.reversed[rec.Type]; ok {
				edge.Source, edge.Target = edge.Target, edge.Source
				reversed = true
			}
		}

		if err := b.g.addEdge(edge); err != nil {
			b.drop(RecordEdge, i, id, err)
			continue
		}
		if reversed {
			b.result.Stats.EdgesReversed++
		}
	}
	return nil
}

// validateRecord runs struct-tag validation and folds validator errors into
// a single ErrMalformedRecord listing the offending fields.
func validateRecord(rec any) error {
	err := recordValidate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+":"+fe.Tag())
		}
		return fmt.Errorf("%w: %s", ErrMalformedRecord, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
}

func nonEmptyDistinct(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
