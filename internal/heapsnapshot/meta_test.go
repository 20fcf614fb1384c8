package heapsnapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawMessage(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestBuildNodeColumns(t *testing.T) {
	meta := RawMeta{
		NodeFields: []string{"type", "name", "id", "self_size", "edge_count"},
		NodeTypes: []json.RawMessage{
			rawMessage(t, []string{"hidden", "object"}),
			rawMessage(t, "string"),
			rawMessage(t, "number"),
			rawMessage(t, "number"),
			rawMessage(t, "number"),
		},
	}

	cols, err := BuildNodeColumns(meta)
	require.NoError(t, err)

	idOffset, ok := cols.Offset("id")
	require.True(t, ok)
	assert.Equal(t, 2, idOffset)
	assert.Equal(t, KindEnum, cols.Columns[0].Kind)
	assert.Equal(t, []string{"hidden", "object"}, cols.Columns[0].Domain)
	assert.Equal(t, KindNumber, cols.Columns[2].Kind)
}

func TestBuildNodeColumns_FieldCountMismatch(t *testing.T) {
	meta := RawMeta{
		NodeFields: []string{"type", "id"},
		NodeTypes:  []json.RawMessage{rawMessage(t, "string")},
	}
	_, err := BuildNodeColumns(meta)
	require.Error(t, err)
}

func TestBuildNodeColumns_RejectsNodeTypeTag(t *testing.T) {
	meta := RawMeta{
		NodeFields: []string{"to_node"},
		NodeTypes:  []json.RawMessage{rawMessage(t, "node")},
	}
	_, err := BuildNodeColumns(meta)
	require.Error(t, err)
}

func TestBuildEdgeColumns_AcceptsNodeAndStringOrNumber(t *testing.T) {
	meta := RawMeta{
		EdgeFields: []string{"type", "name_or_index", "to_node"},
		EdgeTypes: []json.RawMessage{
			rawMessage(t, []string{"context", "property", "weak", "shortcut"}),
			rawMessage(t, "string_or_number"),
			rawMessage(t, "node"),
		},
	}
	cols, err := BuildEdgeColumns(meta)
	require.NoError(t, err)
	assert.Equal(t, KindStringOrNumber, cols.Columns[1].Kind)
	assert.Equal(t, KindNode, cols.Columns[2].Kind)
}

func TestBuildEdgeColumns_UnknownTag(t *testing.T) {
	meta := RawMeta{
		EdgeFields: []string{"mystery"},
		EdgeTypes:  []json.RawMessage{rawMessage(t, "bogus_tag")},
	}
	_, err := BuildEdgeColumns(meta)
	require.Error(t, err)
}

func TestColumnTable_DecodeField_Enum(t *testing.T) {
	cols, err := BuildNodeColumns(RawMeta{
		NodeFields: []string{"type"},
		NodeTypes:  []json.RawMessage{rawMessage(t, []string{"hidden", "object"})},
	})
	require.NoError(t, err)

	str, _, isString, err := cols.DecodeField(0, 1, nil)
	require.NoError(t, err)
	assert.True(t, isString)
	assert.Equal(t, "object", str)
}

func TestColumnTable_DecodeField_EnumOutOfRange(t *testing.T) {
	cols, err := BuildNodeColumns(RawMeta{
		NodeFields: []string{"type"},
		NodeTypes:  []json.RawMessage{rawMessage(t, []string{"hidden", "object"})},
	})
	require.NoError(t, err)

	_, _, _, err = cols.DecodeField(0, 99, nil)
	require.Error(t, err)
}

func TestColumnTable_DecodeField_StringRefInRange(t *testing.T) {
	cols, err := BuildNodeColumns(RawMeta{
		NodeFields: []string{"name"},
		NodeTypes:  []json.RawMessage{rawMessage(t, "string")},
	})
	require.NoError(t, err)

	str, _, isString, err := cols.DecodeField(0, 0, []string{"Root"})
	require.NoError(t, err)
	assert.True(t, isString)
	assert.Equal(t, "Root", str)
}

func TestColumnTable_DecodeField_StringRefOutOfRangeFallsBackToRawInteger(t *testing.T) {
	cols, err := BuildNodeColumns(RawMeta{
		NodeFields: []string{"name"},
		NodeTypes:  []json.RawMessage{rawMessage(t, "string")},
	})
	require.NoError(t, err)

	str, num, isString, err := cols.DecodeField(0, 42, []string{"Root"})
	require.NoError(t, err)
	assert.False(t, isString)
	assert.Equal(t, int64(42), num)
	assert.Empty(t, str)
}

func TestColumnTable_DecodeField_Number(t *testing.T) {
	cols, err := BuildNodeColumns(RawMeta{
		NodeFields: []string{"self_size"},
		NodeTypes:  []json.RawMessage{rawMessage(t, "number")},
	})
	require.NoError(t, err)

	_, num, isString, err := cols.DecodeField(0, 1024, nil)
	require.NoError(t, err)
	assert.False(t, isString)
	assert.Equal(t, int64(1024), num)
}

func TestDecodedToText(t *testing.T) {
	assert.Equal(t, "foo", decodedToText("foo", 0, true))
	assert.Equal(t, "7", decodedToText("", 7, false))
}
