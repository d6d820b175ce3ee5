package vmsync

import (
	"context"
	"errors"
	"fmt"

	"infra-inventory/core/reconcile"
	"infra-inventory/feature/vmsync/models"

	"gorm.io/gorm"
)

// updateColumns are the only columns written when an existing VM changes.
// Identity, natural key, priority and created_at are never rewritten.
var updateColumns = []string{"name", "state", "ip", "guest_os", "cpu_count", "host_moid", "last_sync_at", "updated_at"}

// GormStore persists virtual machines through gorm.
type GormStore struct {
	db *gorm.DB
}

var _ reconcile.Store[models.VirtualMachine] = (*GormStore)(nil)

// NewGormStore creates a store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates every table owned by the vmsync feature.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("migrate vmsync tables: %w", err)
	}
	return nil
}

// FindByNaturalKey looks a VM up by (external_id, parent_id).
func (s *GormStore) FindByNaturalKey(ctx context.Context, key reconcile.Key) (models.VirtualMachine, bool, error) {
	var vm models.VirtualMachine
	err := s.db.WithContext(ctx).
		Where("external_id = ? AND parent_id = ?", key.ExternalID, key.ParentID).
		Take(&vm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.VirtualMachine{}, false, nil
	}
	if err != nil {
		return models.VirtualMachine{}, false, err
	}
	return vm, true, nil
}

// FindAllByParent returns every VM of a parent ordered by priority.
func (s *GormStore) FindAllByParent(ctx context.Context, parentID string) ([]models.VirtualMachine, error) {
	var vms []models.VirtualMachine
	err := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("priority ASC").
		Find(&vms).Error
	return vms, err
}

// Insert creates a new VM row. Unique indexes reject duplicate keys and priorities.
func (s *GormStore) Insert(ctx context.Context, vm models.VirtualMachine) (models.VirtualMachine, error) {
	if err := s.db.WithContext(ctx).Create(&vm).Error; err != nil {
		return models.VirtualMachine{}, err
	}
	return vm, nil
}

// Update writes the mutable columns of an existing VM.
func (s *GormStore) Update(ctx context.Context, vm models.VirtualMachine) (models.VirtualMachine, error) {
	res := s.db.WithContext(ctx).
		Model(&models.VirtualMachine{ID: vm.ID}).
		Select(updateColumns).
		Updates(&vm)
	if res.Error != nil {
		return models.VirtualMachine{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.VirtualMachine{}, fmt.Errorf("virtual machine %s: %w", vm.ID, gorm.ErrRecordNotFound)
	}
	return vm, nil
}

// ListOptions filters ListVMs.
type ListOptions struct {
	ParentID string
	Limit    int
	Offset   int
}

// ListVMs returns VMs ordered by parent and priority.
func (s *GormStore) ListVMs(ctx context.Context, opts ListOptions) ([]models.VirtualMachine, error) {
	q := s.db.WithContext(ctx).Model(&models.VirtualMachine{})
	if opts.ParentID != "" {
		q = q.Where("parent_id = ?", opts.ParentID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var vms []models.VirtualMachine
	if err := q.Order("parent_id ASC").Order("priority ASC").Find(&vms).Error; err != nil {
		return nil, err
	}
	return vms, nil
}
