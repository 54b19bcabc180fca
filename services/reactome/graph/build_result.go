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

import "fmt"

// RecordKind identifies the kind of raw record.
type RecordKind string

const (
	RecordNode        RecordKind = "node"
	RecordEdge        RecordKind = "edge"
	RecordPathway     RecordKind = "pathway"
	RecordCompartment RecordKind = "compartment"
)

// RecordError describes a single record skipped during ingestion.
type RecordError struct {
	// Kind is the kind of record that was dropped.
	Kind RecordKind

	// Position is the index of the record in its input slice.
	Position int

	// ID is the record identifier, or "source->target" for edges.
	// May be empty when the identifier itself was missing.
	ID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e RecordError) Error() string {
	return fmt.Sprintf("%s record #%d (%s): %v", e.Kind, e.Position, e.ID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e RecordError) Unwrap() error {
	return e.Err
}

// BuildStats contains statistics about a build operation.
type BuildStats struct {
	// NodesCreated is the number of nodes added to the graph.
	NodesCreated int

	// EdgesCreated is the number of edges added to the graph.
	EdgesCreated int

	// NodesDropped is the number of node records skipped.
	NodesDropped int

	// EdgesDropped is the number of edge records skipped because they were
	// malformed or referenced unknown nodes.
	EdgesDropped int

	// PathwaysDropped is the number of pathway records skipped.
	PathwaysDropped int

	// CompartmentsDropped is the number of compartment records skipped.
	CompartmentsDropped int

	// EdgesFiltered is the number of well-formed edges excluded by the
	// relation allow-list. Filtered edges are not errors.
	EdgesFiltered int

	// EdgesReversed is the number of edges whose direction was inverted.
	EdgesReversed int

	// DurationMicro is the total build time in microseconds.
	DurationMicro int64
}

// Dropped returns the total number of skipped malformed records.
func (s BuildStats) Dropped() int {
	return s.NodesDropped + s.EdgesDropped + s.PathwaysDropped + s.CompartmentsDropped
}

// BuildResult contains the result of a graph build operation.
//
// Builds are tolerant: malformed records are skipped and reported here
// instead of failing the build.
type BuildResult struct {
	// Graph is the frozen graph.
	Graph *Graph

	// Errors lists every skipped record, in input order per kind.
	Errors []RecordError

	// Stats contains build statistics.
	Stats BuildStats
}

// HasErrors returns true if any record was dropped.
func (r *BuildResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ErrorsOfKind returns the dropped records of a single kind.
func (r *BuildResult) ErrorsOfKind(kind RecordKind) []RecordError {
	out := make([]RecordError, 0)
	for _, e := range r.Errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
