package vmsync

import (
	"context"
	"fmt"

	"infra-inventory/feature/vmsync/models"

	"gorm.io/gorm"
)

// History stores a summary row for every executed run.
type History interface {
	Record(ctx context.Context, report *models.RunReport) error
	Recent(ctx context.Context, limit int) ([]models.SyncRun, error)
	Find(ctx context.Context, id string) (models.SyncRun, error)
}

// GormHistory keeps run summaries in vm_sync_runs.
type GormHistory struct {
	db *gorm.DB
}

// NewGormHistory creates a history over db.
func NewGormHistory(db *gorm.DB) *GormHistory {
	return &GormHistory{db: db}
}

// Record inserts the summary of report.
func (h *GormHistory) Record(ctx context.Context, report *models.RunReport) error {
	run := models.NewSyncRun(report)
	if err := h.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("record sync run %s: %w", report.ID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (h *GormHistory) Recent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var runs []models.SyncRun
	err := h.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// Find returns the run with the given id. A missing run yields gorm.ErrRecordNotFound.
func (h *GormHistory) Find(ctx context.Context, id string) (models.SyncRun, error) {
	var run models.SyncRun
	err := h.db.WithContext(ctx).Where("id = ?", id).Take(&run).Error
	return run, err
}
