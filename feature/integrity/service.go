package integrity

import (
	"context"

	"infra-inventory/core/storage"
	"infra-inventory/feature/integrity/checks"
	"infra-inventory/feature/vmsync/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	client  storage.Client
	bucket  string
	folders []string
	db      *gorm.DB
	logger  *zap.Logger
}

// NewService creates a new integrity service. folders are the object prefixes
// the bucket must contain; db may be nil when no database is configured.
func NewService(client storage.Client, bucket string, folders []string, logger *zap.Logger, db *gorm.DB) *Service {
	return &Service{
		client:  client,
		bucket:  bucket,
		folders: folders,
		db:      db,
		logger:  logger,
	}
}

// CheckStructure returns a list of missing folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	return checks.CheckStructure(ctx, s.client, s.bucket, s.folders)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckSchema compares the inventory tables with the models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, models.AllModels()...)
}

// CheckInventory audits the stored virtual machines.
func (s *Service) CheckInventory(ctx context.Context) (*checks.InventoryReport, error) {
	return checks.CheckInventory(ctx, s.db)
}
