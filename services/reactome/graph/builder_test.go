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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// databaseRecords returns records in database orientation: input edges point
// entity -> event, output edges event -> entity.
func databaseRecords() Records {
	return Records{
		Nodes: []NodeRecord{
			{ID: "R1", Class: "Event", SchemaClass: "Reaction", Pathways: []string{"P1"}},
			{ID: "ATP", Class: "Entity", SchemaClass: "SimpleEntity", Compartments: []string{"cytosol"}},
			{ID: "ADP", Class: "Entity", SchemaClass: "SimpleEntity", Compartments: []string{"cytosol"}},
			{ID: "ENZ", Class: "Entity", SchemaClass: "EntityWithAccessionedSequence"},
		},
		Edges: []EdgeRecord{
			{Source: "ATP", Target: "R1", Type: RelationInput, Stoichiometry: intPtr(2)},
			{Source: "R1", Target: "ADP", Type: RelationOutput, Order: intPtr(0)},
			{Source: "ENZ", Target: "R1", Type: RelationCatalyst},
		},
		Pathways: []PathwayRecord{
			{ID: "P1", Name: "Glycolysis", TopLevel: true, Level: 1},
		},
		Compartments: []CompartmentRecord{
			{ID: "cytosol", Name: "cytosol"},
		},
	}
}

func TestBuild_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	result, err := Build(nil, Records{})
	assert.ErrorIs(t, err, ErrNilContext)
	assert.Nil(t, result)
}

func TestBuild_ReversesDatabaseOrientation(t *testing.T) {
	result, err := Build(context.Background(), databaseRecords())
	require.NoError(t, err)
	require.False(t, result.HasErrors())

	g := result.Graph
	assert.True(t, g.IsFrozen())
	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, 2, result.Stats.EdgesReversed)

	// Event-centric: the reaction points at everything it touches.
	r1, ok := g.Node("R1")
	require.True(t, ok)
	assert.Equal(t, 3, r1.OutDegree())
	assert.Equal(t, 0, r1.InDegree())
	assert.ElementsMatch(t, []string{"ATP", "ADP", "ENZ"}, r1.Successors())

	assert.Equal(t, 1, g.EdgeMultiplicity("R1", "ATP"))
	assert.Equal(t, 0, g.EdgeMultiplicity("ATP", "R1"))

	for _, e := range g.Edges() {
		if e.Type == RelationInput {
			require.NotNil(t, e.Stoichiometry)
			assert.Equal(t, 2, *e.Stoichiometry)
		}
	}
}

func TestBuild_PreorientedKeepsDirection(t *testing.T) {
	result, err := Build(context.Background(), databaseRecords(), WithPreorientedEdges())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Stats.EdgesReversed)
	assert.Equal(t, 1, result.Graph.EdgeMultiplicity("ATP", "R1"))
	assert.Equal(t, 1, result.Graph.OutDegree("R1"))
}

func TestBuild_CustomReversedRelations(t *testing.T) {
	result, err := Build(context.Background(), databaseRecords(), WithReversedRelations(RelationCatalyst))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.EdgesReversed)
	assert.Equal(t, 1, result.Graph.EdgeMultiplicity("R1", "ENZ"))
	assert.Equal(t, 1, result.Graph.EdgeMultiplicity("ATP", "R1"))
}

func TestBuild_RelationFilter(t *testing.T) {
	result, err := Build(context.Background(), databaseRecords(),
		WithRelations(RelationInput, RelationOutput))
	require.NoError(t, err)

	assert.False(t, result.HasErrors(), "filtered edges are not errors")
	assert.Equal(t, 1, result.Stats.EdgesFiltered)
	assert.Equal(t, 2, result.Graph.EdgeCount())
	enz, ok := result.Graph.Node("ENZ")
	require.True(t, ok)
	assert.Equal(t, 0, enz.Degree())
}

func TestBuild_TolerantIngestion(t *testing.T) {
	records := databaseRecords()
	records.Nodes = append(records.Nodes,
		NodeRecord{ID: "", Class: "Event"},       // missing id
		NodeRecord{ID: "X", Class: "Complexish"}, // bad class
		NodeRecord{ID: "ATP", Class: "Entity"},   // duplicate
		NodeRecord{ID: "Y", Class: ""},           // missing class
		NodeRecord{ID: "R2", Class: "event"},     // lower-case label accepted
	)
	records.Edges = append(records.Edges,
		EdgeRecord{Source: "R1", Target: "GHOST", Type: RelationOutput}, // dangling
		EdgeRecord{Source: "", Target: "R1", Type: RelationOutput},      // missing source
		EdgeRecord{Source: "R1", Target: "ADP"},                         // missing type
		EdgeRecord{Source: "R1", Target: "ADP", Type: RelationOutput, Stoichiometry: intPtr(-1)},
	)
	records.Pathways = append(records.Pathways,
		PathwayRecord{ID: ""},
		PathwayRecord{ID: "P1"},
	)
	records.Compartments = append(records.Compartments, CompartmentRecord{ID: ""})

	result, err := Build(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Graph.NodeCount())
	assert.Equal(t, 3, result.Graph.EdgeCount())

	stats := result.Stats
	assert.Equal(t, 4, stats.NodesDropped)
	assert.Equal(t, 4, stats.EdgesDropped)
	assert.Equal(t, 2, stats.PathwaysDropped)
	assert.Equal(t, 1, stats.CompartmentsDropped)
	assert.Equal(t, 11, stats.Dropped())
	assert.Len(t, result.Errors, 11)

	nodeErrs := result.ErrorsOfKind(RecordNode)
	require.Len(t, nodeErrs, 4)
	assert.ErrorIs(t, nodeErrs[0], ErrMalformedRecord)
	assert.ErrorIs(t, nodeErrs[1], ErrMalformedRecord)
	assert.ErrorIs(t, nodeErrs[2], ErrDuplicateNode)
	assert.Equal(t, 6, nodeErrs[2].Position)

	edgeErrs := result.ErrorsOfKind(RecordEdge)
	require.Len(t, edgeErrs, 4)
	assert.ErrorIs(t, edgeErrs[0], ErrDanglingEndpoint)
	assert.Equal(t, "R1->GHOST", edgeErrs[0].ID)
	for _, e := range edgeErrs[1:] {
		assert.ErrorIs(t, e, ErrMalformedRecord)
	}

	pathErrs := result.ErrorsOfKind(RecordPathway)
	require.Len(t, pathErrs, 2)
	assert.ErrorIs(t, pathErrs[1], ErrDuplicateRecord)
}

func TestBuild_Limits(t *testing.T) {
	result, err := Build(context.Background(), databaseRecords(), WithMaxNodes(2), WithMaxEdges(1))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Graph.NodeCount())
	assert.Equal(t, 2, result.Stats.NodesDropped)
	for _, e := range result.ErrorsOfKind(RecordNode) {
		assert.ErrorIs(t, e, ErrMaxNodesExceeded)
	}
	assert.LessOrEqual(t, result.Graph.EdgeCount(), 1)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, databaseRecords())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuildCancelled)
}

func TestBuild_AnnotationsDeduplicated(t *testing.T) {
	records := Records{
		Nodes: []NodeRecord{
			{ID: "R1", Class: "Event", Pathways: []string{"P1", "", "P1", "P2"}},
		},
	}
	result, err := Build(context.Background(), records)
	require.NoError(t, err)

	n, ok := result.Graph.Node("R1")
	require.True(t, ok)
	assert.Equal(t, []string{"P1", "P2"}, n.Pathways)
}

func TestBuild_MultiEdges(t *testing.T) {
	records := Records{
		Nodes: []NodeRecord{
			{ID: "R1", Class: "Event"},
			{ID: "M", Class: "Entity"},
		},
		Edges: []EdgeRecord{
			{Source: "R1", Target: "M", Type: RelationOutput, Order: intPtr(0)},
			{Source: "R1", Target: "M", Type: RelationOutput, Order: intPtr(1)},
			{Source: "M", Target: "R1", Type: RelationCatalyst},
		},
	}
	result, err := Build(context.Background(), records, WithPreorientedEdges())
	require.NoError(t, err)

	g := result.Graph
	assert.Equal(t, 2, g.EdgeMultiplicity("R1", "M"))
	assert.Equal(t, 2, g.OutDegree("R1"))
	r1, ok := g.Node("R1")
	require.True(t, ok)
	assert.Equal(t, []string{"M"}, r1.Successors())
	assert.Equal(t, []string{"M"}, r1.Predecessors())
}

func TestRecordError_Unwrap(t *testing.T) {
	e := RecordError{Kind: RecordEdge, Position: 3, ID: "a->b", Err: ErrDanglingEndpoint}
	assert.True(t, errors.Is(e, ErrDanglingEndpoint))
	assert.Contains(t, e.Error(), "edge record #3")
}

func TestParseBipartiteClass(t *testing.T) {
	tests := []struct {
		in      string
		want    BipartiteClass
		wantErr bool
	}{
		{"Event", ClassEvent, false},
		{"event", ClassEvent, false},
		{"Entity", ClassEntity, false},
		{"entity", ClassEntity, false},
		{"Reaction", ClassEntity, true},
		{"", ClassEntity, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			got, err := ParseBipartiteClass(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedRecord)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Opposite().Opposite(), got)
		})
	}
}

func BenchmarkBuild(b *testing.B) {
	records := Records{}
	for i := 0; i < 1000; i++ {
		records.Nodes = append(records.Nodes,
			NodeRecord{ID: fmt.Sprintf("R%d", i), Class: "Event"},
			NodeRecord{ID: fmt.Sprintf("M%d", i), Class: "Entity"},
		)
		records.Edges = append(records.Edges,
			EdgeRecord{Source: fmt.Sprintf("M%d", i), Target: fmt.Sprintf("R%d", i), Type: RelationInput},
			EdgeRecord{Source: fmt.Sprintf("R%d", i), Target: fmt.Sprintf("M%d", (i+1)%1000), Type: RelationOutput},
		)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Build(context.Background(), records); err != nil {
			b.Fatal(err)
		}
	}
}
