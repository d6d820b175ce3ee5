package checks

import (
	"context"
	"fmt"

	"infra-inventory/core/database"
	"infra-inventory/feature/vmsync/models"

	"gorm.io/gorm"
)

// InventoryReport lists violations of the virtual_machines invariants.
type InventoryReport struct {
	Matched             bool                `json:"matched"`
	TotalVMs            int64               `json:"total_vms"`
	Parents             int64               `json:"parents"`
	DuplicateKeys       []DuplicateKey      `json:"duplicate_keys"`
	DuplicatePriorities []DuplicatePriority `json:"duplicate_priorities"`
	InvalidPriorities   int64               `json:"invalid_priorities"`
	MissingIndexes      []string            `json:"missing_indexes"`
}

// DuplicateKey is a natural key stored more than once.
type DuplicateKey struct {
	ExternalID string `json:"external_id"`
	ParentID   string `json:"parent_id"`
	Count      int    `json:"count"`
}

// DuplicatePriority is a priority used by more than one VM of the same parent.
type DuplicatePriority struct {
	ParentID string `json:"parent_id"`
	Priority int    `json:"priority"`
	Count    int    `json:"count"`
}

// CheckInventory audits the virtual_machines table: natural keys and per-parent
// priorities must be unique, priorities start at 1, and the unique indexes that
// enforce this must exist.
func CheckInventory(ctx context.Context, db *gorm.DB) (*InventoryReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &InventoryReport{
		DuplicateKeys:       []DuplicateKey{},
		DuplicatePriorities: []DuplicatePriority{},
		MissingIndexes:      []string{},
	}
	q := db.WithContext(ctx).Model(&models.VirtualMachine{})

	if err := q.Session(&gorm.Session{}).Count(&report.TotalVMs).Error; err != nil {
		return nil, fmt.Errorf("count virtual machines: %w", err)
	}
	if err := q.Session(&gorm.Session{}).Distinct("parent_id").Count(&report.Parents).Error; err != nil {
		return nil, fmt.Errorf("count parents: %w", err)
	}

	err := q.Session(&gorm.Session{}).
		Select("external_id, parent_id, COUNT(*) AS count").
		Group("external_id, parent_id").
		Having("COUNT(*) > 1").
		Scan(&report.DuplicateKeys).Error
	if err != nil {
		return nil, fmt.Errorf("find duplicate keys: %w", err)
	}

	err = q.Session(&gorm.Session{}).
		Select("parent_id, priority, COUNT(*) AS count").
		Group("parent_id, priority").
		Having("COUNT(*) > 1").
		Scan(&report.DuplicatePriorities).Error
	if err != nil {
		return nil, fmt.Errorf("find duplicate priorities: %w", err)
	}

	if err := q.Session(&gorm.Session{}).Where("priority < 1").Count(&report.InvalidPriorities).Error; err != nil {
		return nil, fmt.Errorf("count invalid priorities: %w", err)
	}

	table := models.VirtualMachine{}.TableName()
	for _, idx := range IndexNames(models.VirtualMachine{}) {
		if !database.HasIndex(db, table, idx) {
			report.MissingIndexes = append(report.MissingIndexes, idx)
		}
	}

	report.Matched = len(report.DuplicateKeys) == 0 &&
		len(report.DuplicatePriorities) == 0 &&
		report.InvalidPriorities == 0 &&
		len(report.MissingIndexes) == 0
	return report, nil
}
