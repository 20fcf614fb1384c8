// Package heapsnapshot decodes a V8 heap snapshot's column-oriented JSON
// encoding into a typed object graph and computes per-node distance and
// retain-size over it.
package heapsnapshot

import "encoding/json"

// RawSnapshot is the snapshot's top-level JSON shape, decoded once in full
// before any interpretation begins. Unknown top-level keys are ignored by
// virtue of encoding/json's default unmarshal behavior.
type RawSnapshot struct {
	Snapshot struct {
		Meta RawMeta `json:"meta"`
	} `json:"snapshot"`
	Nodes     []int64  `json:"nodes"`
	Edges     []int64  `json:"edges"`
	Strings   []string `json:"strings"`
	Locations []int64  `json:"locations"`
}

// RawMeta is the meta header describing the column layout of the nodes and
// edges flat arrays. Each type descriptor is left as a json.RawMessage
// since it is either a JSON array of strings (an enum domain) or a JSON
// string (a primitive type tag); meta.go resolves which.
type RawMeta struct {
	NodeFields []string          `json:"node_fields"`
	NodeTypes  []json.RawMessage `json:"node_types"`
	EdgeFields []string          `json:"edge_fields"`
	EdgeTypes  []json.RawMessage `json:"edge_types"`
}

// NodeRecord is one decoded node of the intermediate object graph.
type NodeRecord struct {
	ID         uint64
	Name       string
	Type       string
	SelfSize   int64
	EdgeCount  int64
	Distance   uint64 // 0 sentinel: "unassigned" for every node except the root itself
	RetainSize int64
	Successors []uint64 // node ids surviving the essential-edge filter
}

// EdgeRow is one edge as persisted to the edge table: every decoded edge
// produces exactly one row, regardless of whether it survives the
// essential-edge filter for traversal.
type EdgeRow struct {
	From        uint64
	To          uint64
	Type        string
	NameOrIndex string
}

// LocationQuad is one raw (node_index, script_id, line, col) tuple from the
// snapshot's locations array, prior to node_index -> node id resolution.
type LocationQuad struct {
	NodeIndex int64
	ScriptID  int64
	Line      int64
	Col       int64
}

// Graph is the decoded intermediate graph plus what the persister needs to
// resolve location node positions into node ids. It lives only between the
// graph builder and the persister; once the node table is written it can be
// discarded.
type Graph struct {
	Nodes     map[uint64]*NodeRecord
	Order     []uint64 // node ids in source (scan) order, for dense indexing
	IDIndex   map[uint64]int
	EdgeRows  []EdgeRow
	Locations []LocationQuad

	rawNodes      []int64 // kept for location node_index -> id resolution
	idFieldOffset int
}

// ResolveLocationNodeID converts a location's node_index (a node array
// position, a multiple of the node field count) into the owning node's id,
// per the meta-declared position of the id field within each node record.
func (g *Graph) ResolveLocationNodeID(nodeIndex int64) uint64 {
	return uint64(g.rawNodes[int(nodeIndex)+g.idFieldOffset])
}
