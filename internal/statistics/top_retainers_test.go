package statistics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/heapsnap-analysis/internal/repository"
)

func setupDBWithNodes(t *testing.T, nodes []repository.Node) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.CreateSchema(db))
	for _, n := range nodes {
		require.NoError(t, db.Create(&n).Error)
	}
	return db
}

func TestTopRetainersCalculator_OrdersByRetainSizeDescending(t *testing.T) {
	db := setupDBWithNodes(t, []repository.Node{
		{ID: 1, Name: "A", RetainSize: 10},
		{ID: 2, Name: "B", RetainSize: 50},
		{ID: 3, Name: "C", RetainSize: 30},
	})

	calc := NewTopRetainersCalculator(WithTopN(2))
	entries, err := calc.Calculate(context.Background(), db)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "B", entries[0].Name)
	assert.Equal(t, "C", entries[1].Name)
}

func TestTopRetainersCalculator_DefaultTopN(t *testing.T) {
	calc := NewTopRetainersCalculator()
	assert.Equal(t, 15, calc.topN)
}

func TestTopRetainersCalculator_EmptyStore(t *testing.T) {
	db := setupDBWithNodes(t, nil)
	calc := NewTopRetainersCalculator()
	entries, err := calc.Calculate(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
