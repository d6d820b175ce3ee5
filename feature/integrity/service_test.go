package integrity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"infra-inventory/core/storage/mocks"
	"infra-inventory/feature/vmsync/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

// setupInventoryDB creates a migrated in-memory SQLite inventory.
func setupInventoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func TestService_Structure(t *testing.T) {
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, "test-bucket", []string{"sync-reports"}, zap.NewNop(), nil)

	t.Run("CheckStructure", func(t *testing.T) {
		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(mocks.Listing())

		missing, err := svc.CheckStructure(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, []string{"sync-reports"}, missing)
	})

	t.Run("FixStructure", func(t *testing.T) {
		mockClient.On("PutObject", mock.Anything, "test-bucket", "sync-reports/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)
		err := svc.FixStructure(context.Background(), []string{"sync-reports"})
		assert.NoError(t, err)
	})
}

func TestService_Schema(t *testing.T) {
	t.Run("NoDatabase", func(t *testing.T) {
		svc := NewService(new(mocks.Client), "test-bucket", nil, zap.NewNop(), nil)
		report, err := svc.CheckSchema()
		assert.Error(t, err)
		assert.Nil(t, report)
	})

	t.Run("MissingTables", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		empty := []string{"Field", "Type", "Null", "Key", "Default", "Extra"}
		for _, table := range []string{"hypervisor_endpoints", "virtual_machines", "vm_sync_runs"} {
			sqlMock.ExpectQuery(regexp.QuoteMeta("SHOW COLUMNS FROM `" + table + "`")).
				WillReturnRows(sqlmock.NewRows(empty))
		}

		svc := NewService(new(mocks.Client), "test-bucket", nil, zap.NewNop(), db)
		report, err := svc.CheckSchema()
		require.NoError(t, err)
		assert.False(t, report.Matched)
		assert.Len(t, report.Errors, 3)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Migrated", func(t *testing.T) {
		svc := NewService(new(mocks.Client), "test-bucket", nil, zap.NewNop(), setupInventoryDB(t))
		report, err := svc.CheckSchema()
		require.NoError(t, err)
		assert.True(t, report.Matched, "%+v", report)
	})
}

func TestService_Inventory(t *testing.T) {
	svc := NewService(new(mocks.Client), "test-bucket", nil, zap.NewNop(), setupInventoryDB(t))

	report, err := svc.CheckInventory(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Matched)
	assert.Zero(t, report.TotalVMs)
}
