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
	"fmt"
	"sort"
	"sync"
	"time"
)

// Default configuration values.
const (
	// DefaultMaxNodes is the default maximum number of nodes a graph can hold.
	DefaultMaxNodes = 1_000_000

	// DefaultMaxEdges is the default maximum number of edges a graph can hold.
	DefaultMaxEdges = 10_000_000
)

// BipartiteClass identifies which side of the bipartition a node belongs to.
type BipartiteClass int

const (
	// ClassEntity marks a biochemical participant (protein, complex, small molecule).
	ClassEntity BipartiteClass = iota

	// ClassEvent marks a reaction or process.
	ClassEvent
)

// String returns the string representation of the BipartiteClass.
func (c BipartiteClass) String() string {
	switch c {
	case ClassEntity:
		return "Entity"
	case ClassEvent:
		return "Event"
	default:
		return "unknown"
	}
}

// Opposite returns the other side of the bipartition.
func (c BipartiteClass) Opposite() BipartiteClass {
	if c == ClassEvent {
		return ClassEntity
	}
	return ClassEvent
}

// ParseBipartiteClass converts a record label into a BipartiteClass.
func ParseBipartiteClass(s string) (BipartiteClass, error) {
	switch s {
	case "Entity", "entity":
		return ClassEntity, nil
	case "Event", "event":
		return ClassEvent, nil
	default:
		return ClassEntity, fmt.Errorf("%w: unknown bipartite class %q", ErrMalformedRecord, s)
	}
}

// RelationType is the relation symbol carried by an edge.
//
// Unknown symbols are kept verbatim; the constants below are the ones the
// extraction pipeline is known to emit.
type RelationType string

const (
	RelationInput                  RelationType = "input"
	RelationOutput                 RelationType = "output"
	RelationCatalyst               RelationType = "catalyst"
	RelationPositiveRegulator      RelationType = "positiveRegulator"
	RelationNegativeRegulator      RelationType = "negativeRegulator"
	RelationCatalystActiveUnit     RelationType = "catalystActiveUnit"
	RelationRegulatorActiveUnit    RelationType = "regulatorActiveUnit"
	RelationRequiredInputComponent RelationType = "requiredInputComponent"
)

// DefaultReversedRelations lists the relations whose stored direction is
// inverted at build time so that they point from the event to the entity.
func DefaultReversedRelations() []RelationType {
	return []RelationType{
		RelationInput,
		RelationCatalyst,
		RelationPositiveRegulator,
		RelationNegativeRegulator,
		RelationCatalystActiveUnit,
		RelationRegulatorActiveUnit,
		RelationRequiredInputComponent,
	}
}

// Edge represents a directed typed relation between two nodes.
//
// Multiple edges between the same ordered pair are allowed and are
// distinguished by Type and Order (multigraph semantics).
type Edge struct {
	// Source is the ID of the source node (already event-centric).
	Source string

	// Target is the ID of the target node.
	Target string

	// Type is the relation symbol.
	Type RelationType

	// Order is the optional participant order. Nil when absent.
	Order *int

	// Stoichiometry is the optional stoichiometric coefficient. Nil when absent.
	Stoichiometry *int
}

// Node is a biochemical entity or event together with its adjacency.
type Node struct {
	// ID is the unique stable identifier.
	ID string

	// Class is the bipartite class.
	Class BipartiteClass

	// SchemaClass is the schema class label (e.g. "Reaction", "Complex").
	SchemaClass string

	// Pathways contains the IDs of pathways this node belongs to.
	Pathways []string

	// Compartments contains the IDs of compartments this node is located in.
	Compartments []string

	index        int
	outgoing     []*Edge
	incoming     []*Edge
	successors   []string
	predecessors []string
}

// Index returns the node's position in the graph's stable node order.
func (n *Node) Index() int { return n.index }

// IsEvent reports whether the node is an event node.
func (n *Node) IsEvent() bool { return n.Class == ClassEvent }

// Outgoing returns edges where this node is the source.
func (n *Node) Outgoing() []*Edge { return n.outgoing }

// Incoming returns edges where this node is the target.
func (n *Node) Incoming() []*Edge { return n.incoming }

// OutDegree returns the number of outgoing edges, counting parallel edges.
func (n *Node) OutDegree() int { return len(n.outgoing) }

// InDegree returns the number of incoming edges, counting parallel edges.
func (n *Node) InDegree() int { return len(n.incoming) }

// Degree returns InDegree + OutDegree.
func (n *Node) Degree() int { return len(n.outgoing) + len(n.incoming) }

// Successors returns the distinct out-neighbours in first-seen order.
func (n *Node) Successors() []string { return n.successors }

// Predecessors returns the distinct in-neighbours in first-seen order.
func (n *Node) Predecessors() []string { return n.predecessors }

// Pathway is a named hierarchical grouping of event nodes.
type Pathway struct {
	ID        string
	Name      string
	TopLevel  bool
	InDisease bool
	Level     int
}

// Compartment is a named cellular location.
type Compartment struct {
	ID   string
	Name string
}

// GraphOptions configures Graph limits.
type GraphOptions struct {
	// MaxNodes is the maximum number of nodes the graph can hold.
	// Default: 1,000,000
	MaxNodes int

	// MaxEdges is the maximum number of edges the graph can hold.
	// Default: 10,000,000
	MaxEdges int
}

// DefaultGraphOptions returns sensible defaults for graph configuration.
func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// Graph is the immutable Reactome reaction network.
//
// Thread Safety:
//
//	A Graph returned by Build is frozen. It can be read from multiple
//	goroutines without locking. Lazily derived properties are guarded by
//	sync.Once so concurrent analyzers share a single computation.
type Graph struct {
	nodes        map[string]*Node
	order        []*Node
	edges        []*Edge
	pathways     []Pathway
	pathwayByID  map[string]int
	compartments []Compartment
	compByID     map[string]int
	options      GraphOptions
	frozen       bool

	// BuiltAtMilli is the Unix timestamp in milliseconds when the graph was frozen.
	BuiltAtMilli int64

	derived derivedCache
}

// derivedCache holds memoized derived properties.
type derivedCache struct {
	partitionOnce sync.Once
	events        NodeSet
	entities      NodeSet

	pathwaysOnce sync.Once
	pathwaySets  map[string]*PathwaySet

	compartmentsOnce sync.Once
	compartmentSets  map[string]*CompartmentSet

	adjacencyOnce sync.Once
	adjacency     *AdjacencyMatrix
}

func newGraph(options GraphOptions) *Graph {
	return &Graph{
		nodes:       make(map[string]*Node),
		order:       make([]*Node, 0),
		edges:       make([]*Edge, 0),
		pathwayByID: make(map[string]int),
		compByID:    make(map[string]int),
		options:     options,
	}
}

// addNode appends a node to the node table. Build phase only.
func (g *Graph) addNode(n *Node) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if len(g.order) >= g.options.MaxNodes {
		return ErrMaxNodesExceeded
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}

	n.index = len(g.order)
	n.outgoing = make([]*Edge, 0)
	n.incoming = make([]*Edge, 0)
	g.nodes[n.ID] = n
	g.order = append(g.order, n)
	return nil
}

// addEdge appends an edge between two existing nodes. Build phase only.
func (g *Graph) addEdge(e *Edge) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if len(g.edges) >= g.options.MaxEdges {
		return ErrMaxEdgesExceeded
	}

	from, ok := g.nodes[e.Source]
	if !ok {
		return fmt.Errorf("%w: source %s", ErrDanglingEndpoint, e.Source)
	}
	to, ok := g.nodes[e.Target]
	if !ok {
		return fmt.Errorf("%w: target %s", ErrDanglingEndpoint, e.Target)
	}

	g.edges = append(g.edges, e)
	from.outgoing = append(from.outgoing, e)
	to.incoming = append(to.incoming, e)
	return nil
}

// addPathway registers pathway metadata. Build phase only.
func (g *Graph) addPathway(p Pathway) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if _, exists := g.pathwayByID[p.ID]; exists {
		return fmt.Errorf("%w: pathway %s", ErrDuplicateRecord, p.ID)
	}
	g.pathwayByID[p.ID] = len(g.pathways)
	g.pathways = append(g.pathways, p)
	return nil
}

// addCompartment registers compartment metadata. Build phase only.
func (g *Graph) addCompartment(c Compartment) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if _, exists := g.compByID[c.ID]; exists {
		return fmt.Errorf("%w: compartment %s", ErrDuplicateRecord, c.ID)
	}
	g.compByID[c.ID] = len(g.compartments)
	g.compartments = append(g.compartments, c)
	return nil
}

// freeze computes neighbour lists and transitions the graph to read-only.
func (g *Graph) freeze() {
	for _, n := range g.order {
		n.successors = distinctEndpoints(n.outgoing, func(e *Edge) string { return e.Target })
		n.predecessors = distinctEndpoints(n.incoming, func(e *Edge) string { return e.Source })
	}
	g.frozen = true
	g.BuiltAtMilli = time.Now().UnixMilli()
}

func distinctEndpoints(edges []*Edge, endpoint func(*Edge) string) []string {
	out := make([]string, 0, len(edges))
	seen := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		id := endpoint(e)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// IsFrozen returns true if the graph is in read-only mode.
func (g *Graph) IsFrozen() bool { return g.frozen }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node retrieves a node by its ID in O(1).
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeAt returns the node at position i of the stable node order.
func (g *Graph) NodeAt(i int) *Node { return g.order[i] }

// Index returns the stable position of a node, or -1 if absent.
func (g *Graph) Index(id string) int {
	if n, ok := g.nodes[id]; ok {
		return n.index
	}
	return -1
}

// Nodes returns an iterator over all nodes in stable index order.
//
// Example:
//
//	for i, node := range g.Nodes() {
//	    fmt.Printf("%d: %s\n", i, node.ID)
//	}
func (g *Graph) Nodes() func(yield func(int, *Node) bool) {
	return func(yield func(int, *Node) bool) {
		for i, n := range g.order {
			if !yield(i, n) {
				return
			}
		}
	}
}

// Edges returns all edges. Callers must not modify the returned slice.
func (g *Graph) Edges() []*Edge { return g.edges }

// OutDegree returns the out-degree of the node, or 0 if it does not exist.
func (g *Graph) OutDegree(id string) int {
	if n, ok := g.nodes[id]; ok {
		return n.OutDegree()
	}
	return 0
}

// InDegree returns the in-degree of the node, or 0 if it does not exist.
func (g *Graph) InDegree(id string) int {
	if n, ok := g.nodes[id]; ok {
		return n.InDegree()
	}
	return 0
}

// EdgeMultiplicity returns the number of parallel edges from u to v.
func (g *Graph) EdgeMultiplicity(u, v string) int {
	n, ok := g.nodes[u]
	if !ok {
		return 0
	}
	count := 0
	for _, e := range n.outgoing {
		if e.Target == v {
			count++
		}
	}
	return count
}

// PathwayRecords returns the pathway metadata in record order.
func (g *Graph) PathwayRecords() []Pathway { return g.pathways }

// Pathway returns metadata for a pathway ID.
func (g *Graph) Pathway(id string) (Pathway, bool) {
	i, ok := g.pathwayByID[id]
	if !ok {
		return Pathway{}, false
	}
	return g.pathways[i], true
}

// TopLevelPathways returns the pathways flagged as top level.
func (g *Graph) TopLevelPathways() []Pathway {
	out := make([]Pathway, 0)
	for _, p := range g.pathways {
		if p.TopLevel {
			out = append(out, p)
		}
	}
	return out
}

// Compartments returns the compartment records in record order.
func (g *Graph) Compartments() []Compartment { return g.compartments }

// Compartment returns metadata for a compartment ID.
func (g *Graph) Compartment(id string) (Compartment, bool) {
	i, ok := g.compByID[id]
	if !ok {
		return Compartment{}, false
	}
	return g.compartments[i], true
}

// NodeCompartments returns the compartment IDs of a node.
func (g *Graph) NodeCompartments(id string) []string {
	if n, ok := g.nodes[id]; ok {
		return n.Compartments
	}
	return nil
}

// NodeSet is an unordered set of node IDs.
type NodeSet map[string]struct{}

// Has reports whether id is in the set.
func (s NodeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the set cardinality.
func (s NodeSet) Len() int { return len(s) }

// Sorted returns the members in lexical order.
func (s NodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IntersectionSize returns |s ∩ other| without allocating.
func (s NodeSet) IntersectionSize(other NodeSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	count := 0
	for id := range small {
		if large.Has(id) {
			count++
		}
	}
	return count
}
