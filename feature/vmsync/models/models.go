package models

import (
	"time"

	"infra-inventory/core/reconcile"
)

// DiscoveredVM is a virtual machine as observed by the discovery source.
// Empty strings and nil pointers mean the platform did not report the field.
type DiscoveredVM struct {
	ExternalID string `json:"externalId"`
	ParentID   string `json:"parentId"`
	Name       string `json:"name"`
	IP         string `json:"ip,omitempty"`
	GuestOS    string `json:"guestOs,omitempty"`
	PowerState string `json:"powerState,omitempty"`
	MemoryMB   *int   `json:"memoryMB,omitempty"`
	CPUCount   *int   `json:"cpuCount,omitempty"`
	HostMoid   string `json:"hostMoid,omitempty"`
}

// DiscoveryResult is the response of one discovery call.
type DiscoveryResult struct {
	Success     bool           `json:"success"`
	RecordCount int            `json:"recordCount"`
	Records     []DiscoveredVM `json:"records"`
}

// Endpoint is the connection descriptor handed to the discovery source.
type Endpoint struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

// Trigger identifies what started a sync run.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// Run statuses recorded in history and metrics.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// TriggerResult is returned by a manual sync trigger.
type TriggerResult struct {
	Success         bool                    `json:"success"`
	Message         string                  `json:"message"`
	DurationSeconds *float64                `json:"durationSeconds,omitempty"`
	Errors          []reconcile.RecordError `json:"errors,omitempty"`
}

// RunReport is the full outcome of one executed sync run. It is archived,
// published as an event and summarized into a SyncRun row.
type RunReport struct {
	ID         string                  `json:"id"`
	Trigger    Trigger                 `json:"trigger"`
	Endpoint   string                  `json:"endpoint,omitempty"`
	Status     string                  `json:"status"`
	Message    string                  `json:"message"`
	StartedAt  time.Time               `json:"startedAt"`
	FinishedAt time.Time               `json:"finishedAt"`
	Discovered int                     `json:"discovered"`
	ByParent   map[string]int          `json:"byParent,omitempty"`
	Result     *reconcile.SyncResult   `json:"result,omitempty"`
	Errors     []reconcile.RecordError `json:"errors,omitempty"`
}

// Duration returns the elapsed time of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Status is the orchestrator state exposed by the API.
type Status struct {
	Running bool       `json:"running"`
	Enabled bool       `json:"enabled"`
	LastRun *RunReport `json:"lastRun,omitempty"`
}
