package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_SimpleSelect(t *testing.T) {
	db := setupOutputDB(t)
	require.NoError(t, db.Create(&Node{ID: 1, Name: "Root", Type: "object", SelfSize: 10, RetainSize: 10}).Error)

	rows, err := Query(context.Background(), db, "SELECT id, name, self_size FROM node")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, []string{"id", "name", "self_size"}, rows[0].Columns)
	assert.Equal(t, KindInteger, rows[0].Values[0].Kind)
	assert.EqualValues(t, 1, rows[0].Values[0].Integer)
	assert.Equal(t, KindText, rows[0].Values[1].Kind)
	assert.Equal(t, "Root", rows[0].Values[1].Text)
}

func TestQuery_NullCell(t *testing.T) {
	db := setupOutputDB(t)
	require.NoError(t, db.Exec(`INSERT INTO node (id, name) VALUES (1, NULL)`).Error)

	rows, err := Query(context.Background(), db, "SELECT name FROM node WHERE id = 1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, KindNull, rows[0].Values[0].Kind)
}

func TestQuery_InvalidSQL(t *testing.T) {
	db := setupOutputDB(t)
	_, err := Query(context.Background(), db, "SELECT * FROM nonexistent_table")
	require.Error(t, err)
}

func TestQuery_NoRows(t *testing.T) {
	db := setupOutputDB(t)
	rows, err := Query(context.Background(), db, "SELECT id FROM node")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
