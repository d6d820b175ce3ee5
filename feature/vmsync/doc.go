// Package vmsync keeps the virtual machine inventory in step with the hypervisor
// discovery service.
//
// A run resolves the hypervisor endpoint, asks the discovery service for the
// current VM list and reconciles it into the virtual_machines table through
// the generic engine in core/reconcile. New VMs get the smallest unused
// priority of their parent server; existing VMs are updated only when a
// tracked field changed.
//
// # Triggers
//
// Runs start either from the Scheduler (RunScheduled) or from
// POST /vms/sync (TriggerManual). Both paths share one guard: a trigger
// that finds a run in flight is rejected and performs no discovery and no
// writes.
//
// # Side channels
//
// After each executed run the orchestrator updates metrics, writes a
// vm_sync_runs row, optionally archives the JSON report to object storage and
// publishes an inventory.vm.sync.completed CloudEvent. Failures in these
// channels are logged and never change the run outcome.
//
// # API
//
//	GET  /vms                       list inventoried VMs (?server=&limit=&offset=)
//	POST /vms/sync                  run a sync and wait for the result
//	GET  /vms/sync/status           running flag and last run
//	GET  /vms/sync/runs             recent run summaries
//	GET  /vms/sync/runs/:id/report  archived report of a run
package vmsync
