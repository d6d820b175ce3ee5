package models

import (
	"time"
)

// VirtualMachine represents the 'virtual_machines' table.
// (external_id, parent_id) is the natural key; priority is unique per parent.
type VirtualMachine struct {
	ID         string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	ExternalID string    `gorm:"column:external_id;type:varchar(128);not null;uniqueIndex:idx_vm_natural_key,priority:1" json:"externalId"`
	ParentID   string    `gorm:"column:parent_id;type:varchar(128);not null;uniqueIndex:idx_vm_natural_key,priority:2;uniqueIndex:idx_vm_parent_priority,priority:1" json:"parentId"`
	Name       string    `gorm:"column:name;type:varchar(255)" json:"name"`
	State      string    `gorm:"column:state;type:varchar(32);default:unknown" json:"state"`
	IP         string    `gorm:"column:ip;type:varchar(64)" json:"ip"`
	GuestOS    string    `gorm:"column:guest_os;type:varchar(255)" json:"guestOs"`
	CPUCount   int       `gorm:"column:cpu_count;type:int" json:"cpuCount"`
	HostMoid   string    `gorm:"column:host_moid;type:varchar(128)" json:"hostMoid"`
	Priority   int       `gorm:"column:priority;type:int;not null;uniqueIndex:idx_vm_parent_priority,priority:2" json:"priority"`
	LastSyncAt time.Time `gorm:"column:last_sync_at;type:datetime" json:"lastSyncAt"`
	CreatedAt  time.Time `gorm:"column:created_at;type:datetime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:datetime" json:"updatedAt"`
}

// TableName overrides the table name.
func (VirtualMachine) TableName() string {
	return "virtual_machines"
}

// HypervisorEndpoint represents the 'hypervisor_endpoints' table.
type HypervisorEndpoint struct {
	ID        uint      `gorm:"column:id;type:int;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(128);uniqueIndex" json:"name"`
	URL       string    `gorm:"column:url;type:varchar(512)" json:"url"`
	Platform  string    `gorm:"column:platform;type:varchar(32)" json:"platform"`
	Enabled   bool      `gorm:"column:enabled;type:tinyint(1)" json:"enabled"`
	CreatedAt time.Time `gorm:"column:created_at;type:datetime" json:"createdAt"`
}

// TableName overrides the table name.
func (HypervisorEndpoint) TableName() string {
	return "hypervisor_endpoints"
}

// ToEndpoint converts the row into a discovery descriptor.
func (h HypervisorEndpoint) ToEndpoint() Endpoint {
	return Endpoint{Name: h.Name, URL: h.URL, Platform: h.Platform}
}

// SyncRun represents the 'vm_sync_runs' table, one row per executed run.
type SyncRun struct {
	ID         string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Trigger    string    `gorm:"column:trigger_type;type:varchar(16)" json:"trigger"`
	Endpoint   string    `gorm:"column:endpoint;type:varchar(128)" json:"endpoint"`
	Status     string    `gorm:"column:status;type:varchar(16);index" json:"status"`
	Message    string    `gorm:"column:message;type:text" json:"message"`
	StartedAt  time.Time `gorm:"column:started_at;type:datetime;index" json:"startedAt"`
	FinishedAt time.Time `gorm:"column:finished_at;type:datetime" json:"finishedAt"`
	DurationMS int64     `gorm:"column:duration_ms;type:bigint" json:"durationMs"`
	Discovered int       `gorm:"column:discovered;type:int" json:"discovered"`
	Created    int       `gorm:"column:created;type:int" json:"created"`
	Updated    int       `gorm:"column:updated;type:int" json:"updated"`
	Skipped    int       `gorm:"column:skipped;type:int" json:"skipped"`
	Failed     int       `gorm:"column:failed;type:int" json:"failed"`
	Error      string    `gorm:"column:error;type:text" json:"error,omitempty"`
}

// TableName overrides the table name.
func (SyncRun) TableName() string {
	return "vm_sync_runs"
}

// NewSyncRun summarizes a report into a history row.
func NewSyncRun(r *RunReport) SyncRun {
	run := SyncRun{
		ID:         r.ID,
		Trigger:    string(r.Trigger),
		Endpoint:   r.Endpoint,
		Status:     r.Status,
		Message:    r.Message,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DurationMS: r.Duration().Milliseconds(),
		Discovered: r.Discovered,
	}
	if r.Result != nil {
		run.Created = r.Result.Created
		run.Updated = r.Result.Updated
		run.Skipped = r.Result.Skipped
		run.Failed = r.Result.Failed
	}
	if len(r.Errors) > 0 && r.Result == nil {
		run.Error = r.Errors[0].ErrorMessage
	}
	return run
}

// AllModels lists the tables owned by the vmsync feature, in migration order.
func AllModels() []interface{} {
	return []interface{}{&HypervisorEndpoint{}, &VirtualMachine{}, &SyncRun{}}
}
