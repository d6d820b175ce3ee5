package vmsync

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"infra-inventory/core/reconcile"
	"infra-inventory/feature/vmsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates a migrated in-memory SQLite database private to the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func testVM(id, parent string, priority int) models.VirtualMachine {
	ts := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return models.VirtualMachine{
		ID:         "id-" + id,
		ExternalID: id,
		ParentID:   parent,
		Name:       "name-" + id,
		State:      "poweredOn",
		Priority:   priority,
		LastSyncAt: ts,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

func TestGormStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupTestDB(t))

	_, err := store.Insert(ctx, testVM("vm-1", "h1", 1))
	require.NoError(t, err)

	got, found, err := store.FindByNaturalKey(ctx, reconcile.Key{ExternalID: "vm-1", ParentID: "h1"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "id-vm-1", got.ID)
	assert.Equal(t, 1, got.Priority)
	assert.Equal(t, "poweredOn", got.State)

	_, found, err = store.FindByNaturalKey(ctx, reconcile.Key{ExternalID: "vm-1", ParentID: "h2"})
	require.NoError(t, err)
	assert.False(t, found, "same external id under another parent is a different VM")
}

func TestGormStore_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupTestDB(t))

	_, err := store.Insert(ctx, testVM("vm-1", "h1", 1))
	require.NoError(t, err)

	t.Run("DuplicateNaturalKey", func(t *testing.T) {
		dup := testVM("vm-1", "h1", 2)
		dup.ID = "other-id"
		_, err := store.Insert(ctx, dup)
		assert.Error(t, err)
	})

	t.Run("DuplicatePriorityPerParent", func(t *testing.T) {
		_, err := store.Insert(ctx, testVM("vm-2", "h1", 1))
		assert.Error(t, err)
	})

	t.Run("SamePriorityOtherParent", func(t *testing.T) {
		_, err := store.Insert(ctx, testVM("vm-2", "h2", 1))
		assert.NoError(t, err)
	})
}

func TestGormStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupTestDB(t))

	_, err := store.Insert(ctx, testVM("vm-1", "h1", 1))
	require.NoError(t, err)

	t2 := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	changed := testVM("vm-1", "h1", 1)
	changed.State = "poweredOff"
	changed.IP = "10.0.0.5"
	changed.CPUCount = 0
	changed.Priority = 99
	changed.LastSyncAt = t2

	_, err = store.Update(ctx, changed)
	require.NoError(t, err)

	got, _, err := store.FindByNaturalKey(ctx, reconcile.Key{ExternalID: "vm-1", ParentID: "h1"})
	require.NoError(t, err)
	assert.Equal(t, "poweredOff", got.State)
	assert.Equal(t, "10.0.0.5", got.IP)
	assert.Equal(t, 1, got.Priority, "priority is never rewritten by an update")
	assert.True(t, t2.Equal(got.LastSyncAt.UTC()))

	t.Run("MissingRow", func(t *testing.T) {
		ghost := testVM("vm-9", "h1", 5)
		_, err := store.Update(ctx, ghost)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestGormStore_FindAllByParent(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupTestDB(t))

	for _, vm := range []models.VirtualMachine{
		testVM("vm-3", "h1", 3),
		testVM("vm-1", "h1", 1),
		testVM("vm-x", "h2", 1),
	} {
		_, err := store.Insert(ctx, vm)
		require.NoError(t, err)
	}

	vms, err := store.FindAllByParent(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, vms, 2)
	assert.Equal(t, 1, vms[0].Priority)
	assert.Equal(t, 3, vms[1].Priority)

	vms, err = store.FindAllByParent(ctx, "h3")
	require.NoError(t, err)
	assert.Empty(t, vms)
}

func TestGormStore_ListVMs(t *testing.T) {
	ctx := context.Background()
	store := NewGormStore(setupTestDB(t))

	for _, vm := range []models.VirtualMachine{
		testVM("vm-1", "h1", 1),
		testVM("vm-2", "h1", 2),
		testVM("vm-3", "h2", 1),
	} {
		_, err := store.Insert(ctx, vm)
		require.NoError(t, err)
	}

	all, err := store.ListVMs(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "h1", all[0].ParentID)

	h1, err := store.ListVMs(ctx, ListOptions{ParentID: "h1"})
	require.NoError(t, err)
	assert.Len(t, h1, 2)

	page, err := store.ListVMs(ctx, ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "vm-2", page[0].ExternalID)
}
