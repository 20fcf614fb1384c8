package repository

// Node represents the node table: one row per decoded heap object, with
// distance and retain_size filled in after the BFS walk completes.
type Node struct {
	ID            uint64 `gorm:"column:id;type:integer;primaryKey"`
	Name          string `gorm:"column:name;type:text"`
	Type          string `gorm:"column:type;type:text"`
	SelfSize      int64  `gorm:"column:self_size;type:integer"`
	ChildrenCount int64  `gorm:"column:children_count;type:integer"`
	Distance      uint64 `gorm:"column:distance;type:integer"`
	RetainSize    int64  `gorm:"column:retain_size;type:integer"`
}

// TableName returns the table name for Node.
func (Node) TableName() string {
	return "node"
}

// Edge represents the edge table: one row per decoded edge, persisted
// unconditionally regardless of whether the essential-edge filter honored
// it for traversal.
type Edge struct {
	From        uint64 `gorm:"column:from;type:integer"`
	To          uint64 `gorm:"column:to;type:integer"`
	Type        string `gorm:"column:type;type:text"`
	NameOrIndex string `gorm:"column:name_or_index;type:text"`
}

// TableName returns the table name for Edge.
func (Edge) TableName() string {
	return "edge"
}

// Location represents the location table: one row per decoded (node_index,
// script_id, line, col) quadruple, with node_index already resolved to the
// owning node's id.
type Location struct {
	NodeID   uint64 `gorm:"column:node_id;type:integer"`
	ScriptID int64  `gorm:"column:script_id;type:integer"`
	Line     int64  `gorm:"column:line;type:integer"`
	Col      int64  `gorm:"column:col;type:integer"`
}

// TableName returns the table name for Location.
func (Location) TableName() string {
	return "location"
}
