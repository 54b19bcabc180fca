// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the Reactome reaction network model.
//
// The network is a bipartite directed multigraph. Nodes are either
// biochemical entities or reaction events; edges are typed relations
// (input, output, catalyst, regulation, ...) whose direction follows an
// event-centric convention: an event's out-edges lead to what it produces,
// its in-edges come from what it requires.
//
// # Ownership Model
//
// A Graph is produced once by Build from raw records and is immutable
// afterwards. Every slice or set returned by a query is owned by the graph
// and MUST NOT be mutated by callers.
//
// # Thread Safety
//
// A built Graph is safe for concurrent reads from any number of goroutines.
// Derived properties (event/entity partitions, pathway and compartment
// node sets, the adjacency matrix) are computed lazily on first access and
// memoized for the lifetime of the graph; first access is synchronized.
//
// # Lifecycle
//
//  1. Collect Records from an external extractor
//  2. Call Build() to validate, orient and freeze the graph
//  3. Inspect BuildResult.Stats for dropped records
//  4. Hand the Graph to the centrality and connectivity analyzers
package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrGraphFrozen is returned when attempting to modify a frozen graph.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrNodeNotFound is returned when a lookup references a non-existent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode is returned when a record re-uses an existing node ID.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrDuplicateRecord is returned when a pathway or compartment record
	// re-uses an existing ID.
	ErrDuplicateRecord = errors.New("duplicate record ID")

	// ErrMalformedRecord is returned when a record misses required fields
	// or carries invalid values.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDanglingEndpoint is returned when an edge references a node that
	// is not part of the node table.
	ErrDanglingEndpoint = errors.New("edge endpoint references unknown node")

	// ErrMaxNodesExceeded is returned when the graph reached its node capacity.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrMaxEdgesExceeded is returned when the graph reached its edge capacity.
	ErrMaxEdgesExceeded = errors.New("maximum edge count exceeded")

	// ErrBuildCancelled is returned when a build is cancelled via context.
	ErrBuildCancelled = errors.New("build cancelled")

	// ErrNilContext is returned when a nil context is passed to Build.
	ErrNilContext = errors.New("context must not be nil")

	// ErrPathwayNotFound is returned when a pathway ID is not present.
	ErrPathwayNotFound = errors.New("pathway not found")

	// ErrCompartmentNotFound is returned when a compartment ID is not present.
	ErrCompartmentNotFound = errors.New("compartment not found")
)
