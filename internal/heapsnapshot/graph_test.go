package heapsnapshot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heapsnap-analysis/pkg/filter"
)

// chainFixture builds a two-node snapshot: root (id 1) --property "a"--> child (id 2).
// Node layout: [type, name, id, self_size, edge_count]. Edge layout: [type, name_or_index, to_node].
func chainFixture() *RawSnapshot {
	nodeTypeDomain, _ := json.Marshal([]string{"hidden", "object"})
	edgeTypeDomain, _ := json.Marshal([]string{"context", "property", "weak", "shortcut"})
	strTag, _ := json.Marshal("string")
	numTag, _ := json.Marshal("number")
	sonTag, _ := json.Marshal("string_or_number")
	nodeTag, _ := json.Marshal("node")

	return &RawSnapshot{
		Snapshot: struct {
			Meta RawMeta `json:"meta"`
		}{
			Meta: RawMeta{
				NodeFields: []string{"type", "name", "id", "self_size", "edge_count"},
				NodeTypes:  []json.RawMessage{nodeTypeDomain, strTag, numTag, numTag, numTag},
				EdgeFields: []string{"type", "name_or_index", "to_node"},
				EdgeTypes:  []json.RawMessage{edgeTypeDomain, sonTag, nodeTag},
			},
		},
		Nodes: []int64{
			1, 0, 1, 10, 1, // root: type=object, name="Root", id=1, self_size=10, edge_count=1
			1, 1, 2, 20, 0, // child: type=object, name="Child", id=2, self_size=20, edge_count=0
		},
		Edges: []int64{
			1, 2, 5, // type=property, name_or_index="a", to_node=position 5 (the child)
		},
		Strings:   []string{"Root", "Child", "a"},
		Locations: []int64{},
	}
}

func TestBuild_ChainGraph(t *testing.T) {
	g, err := Build(context.Background(), chainFixture(), filter.DefaultFilter)
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	root := g.Nodes[1]
	child := g.Nodes[2]
	require.NotNil(t, root)
	require.NotNil(t, child)

	assert.Equal(t, "Root", root.Name)
	assert.Equal(t, "Child", child.Name)
	assert.Equal(t, []uint64{2}, root.Successors)
	assert.Empty(t, child.Successors)

	require.Len(t, g.EdgeRows, 1)
	assert.Equal(t, EdgeRow{From: 1, To: 2, Type: "property", NameOrIndex: "a"}, g.EdgeRows[0])
}

func TestBuild_WeakEdgeDroppedFromTraversalButPersisted(t *testing.T) {
	snap := chainFixture()
	snap.Edges = []int64{2, 2, 5} // type=weak, name_or_index=2 ("a" -> reuse index), to_node=5

	g, err := Build(context.Background(), snap, filter.DefaultFilter)
	require.NoError(t, err)

	assert.Empty(t, g.Nodes[1].Successors, "weak edge must not be traversed")
	require.Len(t, g.EdgeRows, 1, "weak edge must still be persisted")
	assert.Equal(t, "weak", g.EdgeRows[0].Type)
}

func TestBuild_ShortcutEdgeExceptionForRoot(t *testing.T) {
	snap := chainFixture()
	snap.Edges = []int64{3, 2, 5} // type=shortcut, owner is node 1 (id == 1) -> essential

	g, err := Build(context.Background(), snap, filter.DefaultFilter)
	require.NoError(t, err)

	assert.Equal(t, []uint64{2}, g.Nodes[1].Successors)
}

func TestBuild_ShortcutEdgeExcludedWhenOwnerIsNotRoot(t *testing.T) {
	nodeTypeDomain, _ := json.Marshal([]string{"hidden", "object"})
	edgeTypeDomain, _ := json.Marshal([]string{"context", "property", "weak", "shortcut"})
	strTag, _ := json.Marshal("string")
	numTag, _ := json.Marshal("number")
	sonTag, _ := json.Marshal("string_or_number")
	nodeTag, _ := json.Marshal("node")

	snap := &RawSnapshot{
		Snapshot: struct {
			Meta RawMeta `json:"meta"`
		}{
			Meta: RawMeta{
				NodeFields: []string{"type", "name", "id", "self_size", "edge_count"},
				NodeTypes:  []json.RawMessage{nodeTypeDomain, strTag, numTag, numTag, numTag},
				EdgeFields: []string{"type", "name_or_index", "to_node"},
				EdgeTypes:  []json.RawMessage{edgeTypeDomain, sonTag, nodeTag},
			},
		},
		Nodes: []int64{
			1, 0, 9, 10, 1, // owner node has id 9, not the root
			1, 1, 2, 20, 0,
		},
		Edges:     []int64{3, 1, 5}, // type=shortcut, owned by node 9
		Strings:   []string{"Owner", "Child"},
		Locations: []int64{},
	}

	g, err := Build(context.Background(), snap, filter.DefaultFilter)
	require.NoError(t, err)
	assert.Empty(t, g.Nodes[9].Successors)
	require.Len(t, g.EdgeRows, 1)
}

func TestBuild_NumericEdgeNameConvertsToDecimalString(t *testing.T) {
	snap := chainFixture()
	snap.Edges = []int64{0, 99, 5} // type=context, name_or_index=99 (out of strings range -> numeric fallback)

	g, err := Build(context.Background(), snap, filter.DefaultFilter)
	require.NoError(t, err)
	require.Len(t, g.EdgeRows, 1)
	assert.Equal(t, "99", g.EdgeRows[0].NameOrIndex)
}

func TestBuild_ResolveLocationNodeID(t *testing.T) {
	snap := chainFixture()
	snap.Locations = []int64{5, 1, 10, 3} // node_index 5 (the child), script 1, line 10, col 3

	g, err := Build(context.Background(), snap, filter.DefaultFilter)
	require.NoError(t, err)
	require.Len(t, g.Locations, 1)
	assert.Equal(t, uint64(2), g.ResolveLocationNodeID(g.Locations[0].NodeIndex))
}

func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bigSnap := chainFixture()
	// Pad with enough nodes to cross the cancellation-check stride.
	extra := make([]int64, 0, 5*5000)
	for i := 0; i < 5000; i++ {
		extra = append(extra, 1, 1, uint64ToInt64(uint64(1000+i)), 1, 0)
	}
	bigSnap.Nodes = append(bigSnap.Nodes, extra...)

	_, err := Build(ctx, bigSnap, filter.DefaultFilter)
	require.Error(t, err)
}

func uint64ToInt64(v uint64) int64 { return int64(v) }
