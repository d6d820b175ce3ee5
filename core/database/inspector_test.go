package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_hosts (id INTEGER PRIMARY KEY, name TEXT NOT NULL, state TEXT DEFAULT 'unknown')").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "test_hosts")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	byName := make(map[string]ColumnInfo)
	for _, col := range columns {
		byName[col.Field] = col
	}

	assert.Equal(t, "integer", byName["id"].Type)
	assert.Equal(t, "PRI", byName["id"].Key)
	assert.Equal(t, "text", byName["name"].Type)
	assert.Equal(t, "NO", byName["name"].Null)
	assert.Equal(t, "YES", byName["state"].Null)
	require.NotNil(t, byName["state"].Default)
	assert.Equal(t, "'unknown'", *byName["state"].Default)

	// PRAGMA table_info returns an empty result for a missing table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestHasIndex(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, db.Exec("CREATE TABLE test_vms (id TEXT PRIMARY KEY, parent_id TEXT, priority INTEGER)").Error)
	require.NoError(t, db.Exec("CREATE UNIQUE INDEX idx_test_parent_priority ON test_vms (parent_id, priority)").Error)

	assert.True(t, HasIndex(db, "test_vms", "idx_test_parent_priority"))
	assert.False(t, HasIndex(db, "test_vms", "idx_missing"))
}
