package vmsync

import (
	"time"

	"infra-inventory/core/reconcile"
	"infra-inventory/feature/vmsync/models"

	"github.com/google/uuid"
)

// DefaultState is stored when discovery does not report a power state.
const DefaultState = "unknown"

// Adapter reconciles discovered virtual machines into VirtualMachine rows.
type Adapter struct{}

var _ reconcile.Adapter[models.DiscoveredVM, models.VirtualMachine] = Adapter{}

// Name returns the adapter name.
func (Adapter) Name() string {
	return "virtual_machines"
}

// Key returns the natural key of a discovered VM.
func (Adapter) Key(vm models.DiscoveredVM) reconcile.Key {
	return reconcile.Key{ExternalID: vm.ExternalID, ParentID: vm.ParentID}
}

// RecordKey returns the natural key of a stored VM.
func (Adapter) RecordKey(rec models.VirtualMachine) reconcile.Key {
	return reconcile.Key{ExternalID: rec.ExternalID, ParentID: rec.ParentID}
}

// DisplayName returns the VM name, or its external id when the platform reported none.
func (Adapter) DisplayName(vm models.DiscoveredVM) string {
	if vm.Name != "" {
		return vm.Name
	}
	return vm.ExternalID
}

// Priority returns the stored priority.
func (Adapter) Priority(rec models.VirtualMachine) int {
	return rec.Priority
}

// HasChanged reports whether merging vm into rec would alter any mutable field.
func (Adapter) HasChanged(rec models.VirtualMachine, vm models.DiscoveredVM) bool {
	merged := applyDiscovered(rec, vm)
	return merged.Name != rec.Name ||
		merged.State != rec.State ||
		merged.IP != rec.IP ||
		merged.GuestOS != rec.GuestOS ||
		merged.CPUCount != rec.CPUCount ||
		merged.HostMoid != rec.HostMoid
}

// Merge applies vm to rec and stamps the sync time. Identity and priority are kept.
func (Adapter) Merge(rec models.VirtualMachine, vm models.DiscoveredVM, now time.Time) models.VirtualMachine {
	merged := applyDiscovered(rec, vm)
	merged.LastSyncAt = now
	merged.UpdatedAt = now
	return merged
}

// Build creates a new row for a VM seen for the first time.
func (Adapter) Build(vm models.DiscoveredVM, priority int, now time.Time) models.VirtualMachine {
	rec := models.VirtualMachine{
		ID:         uuid.NewString(),
		ExternalID: vm.ExternalID,
		ParentID:   vm.ParentID,
		Priority:   priority,
		LastSyncAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return applyDiscovered(rec, vm)
}

// applyDiscovered implements the merge policy: fields the platform did not
// report keep their stored value, except state which falls back to "unknown".
func applyDiscovered(rec models.VirtualMachine, vm models.DiscoveredVM) models.VirtualMachine {
	if vm.Name != "" {
		rec.Name = vm.Name
	}
	rec.State = stateOf(vm)
	if vm.IP != "" {
		rec.IP = vm.IP
	}
	if vm.GuestOS != "" {
		rec.GuestOS = vm.GuestOS
	}
	if vm.CPUCount != nil {
		rec.CPUCount = *vm.CPUCount
	}
	if vm.HostMoid != "" {
		rec.HostMoid = vm.HostMoid
	}
	return rec
}

func stateOf(vm models.DiscoveredVM) string {
	if vm.PowerState == "" {
		return DefaultState
	}
	return vm.PowerState
}
