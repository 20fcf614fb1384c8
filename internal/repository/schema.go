package repository

import (
	"gorm.io/gorm"

	apperrors "github.com/heapsnap-analysis/pkg/errors"
)

// schemaDDL creates the three output tables exactly as specified: no
// foreign keys, no indexes beyond the node primary key. Hand-written rather
// than produced by AutoMigrate, so the schema never drifts from the spec
// regardless of GORM's own column-inference defaults.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS node (
	id INTEGER PRIMARY KEY,
	name TEXT,
	type TEXT,
	self_size INTEGER,
	children_count INTEGER,
	distance INTEGER,
	retain_size INTEGER
);
CREATE TABLE IF NOT EXISTS edge (
	"from" INTEGER,
	"to" INTEGER,
	type TEXT,
	name_or_index TEXT
);
CREATE TABLE IF NOT EXISTS location (
	node_id INTEGER,
	script_id INTEGER,
	line INTEGER,
	col INTEGER
);
`

// CreateSchema creates the node/edge/location tables if they do not already
// exist. Safe to call against a fresh or a previously ingested store.
func CreateSchema(db *gorm.DB) error {
	if err := db.Exec(schemaDDL).Error; err != nil {
		return apperrors.Wrap(apperrors.CodePersistError, "failed to create output schema", err)
	}
	return nil
}

// DatabaseExists reports whether the node table is already present in db.
func DatabaseExists(db *gorm.DB) bool {
	return db.Migrator().HasTable(&Node{})
}
