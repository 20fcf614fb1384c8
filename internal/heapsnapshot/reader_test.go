package heapsnapshot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/heapsnap-analysis/pkg/errors"
)

const minimalSnapshotJSON = `{
	"snapshot": {
		"meta": {
			"node_fields": ["type", "name", "id", "self_size", "edge_count"],
			"node_types": [["hidden", "object"], "string", "number", "number", "number"],
			"edge_fields": ["type", "name_or_index", "to_node"],
			"edge_types": [["context", "property"], "string_or_number", "node"]
		}
	},
	"nodes": [1, 0, 1, 10, 0],
	"edges": [],
	"strings": ["Root"],
	"locations": []
}`

func TestRead_MinimalSnapshot(t *testing.T) {
	raw, err := Read(context.Background(), strings.NewReader(minimalSnapshotJSON))
	require.NoError(t, err)
	assert.Equal(t, []string{"type", "name", "id", "self_size", "edge_count"}, raw.Snapshot.Meta.NodeFields)
	assert.Equal(t, []int64{1, 0, 1, 10, 0}, raw.Nodes)
	assert.Equal(t, []string{"Root"}, raw.Strings)
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, apperrors.IsIOError(err))
}

func TestRead_MalformedJSON(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader("{not json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsParseError(err))
}

func TestRead_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Read(ctx, strings.NewReader(minimalSnapshotJSON))
	require.Error(t, err)
	assert.True(t, apperrors.IsIOError(err))
}

func TestRead_MissingNodeFields(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader(`{"snapshot":{"meta":{}}}`))
	require.Error(t, err)
	assert.True(t, apperrors.IsParseError(err))
}

func TestRead_NodeTypesLengthMismatch(t *testing.T) {
	const bad = `{
		"snapshot": {
			"meta": {
				"node_fields": ["type", "id"],
				"node_types": ["string"],
				"edge_fields": ["type"],
				"edge_types": [["context"]]
			}
		},
		"nodes": [],
		"edges": [],
		"strings": [],
		"locations": []
	}`
	_, err := Read(context.Background(), strings.NewReader(bad))
	require.Error(t, err)
	assert.True(t, apperrors.IsParseError(err))
}

func TestRead_NodesArrayNotMultipleOfFieldCount(t *testing.T) {
	const bad = `{
		"snapshot": {
			"meta": {
				"node_fields": ["type", "id"],
				"node_types": ["string", "number"],
				"edge_fields": ["type"],
				"edge_types": [["context"]]
			}
		},
		"nodes": [1, 2, 3],
		"edges": [],
		"strings": [],
		"locations": []
	}`
	_, err := Read(context.Background(), strings.NewReader(bad))
	require.Error(t, err)
	assert.True(t, apperrors.IsParseError(err))
}

func TestRead_LocationsArrayNotMultipleOfFour(t *testing.T) {
	const bad = `{
		"snapshot": {
			"meta": {
				"node_fields": ["type"],
				"node_types": ["string"],
				"edge_fields": ["type"],
				"edge_types": [["context"]]
			}
		},
		"nodes": [],
		"edges": [],
		"strings": [],
		"locations": [1, 2, 3]
	}`
	_, err := Read(context.Background(), strings.NewReader(bad))
	require.Error(t, err)
	assert.True(t, apperrors.IsParseError(err))
}
