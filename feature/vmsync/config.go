package vmsync

import "time"

// Config holds the sync section of the application configuration.
type Config struct {
	// Enabled gates the scheduled trigger. Manual triggers ignore it.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Interval is the scheduled trigger period.
	Interval time.Duration `mapstructure:"interval" default:"5m"`
	// RunOnStart fires one scheduled run as soon as the scheduler starts.
	RunOnStart bool `mapstructure:"run_on_start" default:"true"`
	// EndpointName selects a hypervisor_endpoints row when no endpoint URL is configured.
	EndpointName string `mapstructure:"endpoint_name" default:""`
	// AllocationConcurrency bounds how many parents are loaded in parallel for priority planning.
	AllocationConcurrency int `mapstructure:"allocation_concurrency" default:"4"`
	// EndpointCacheTTL is how long a resolved endpoint is reused.
	EndpointCacheTTL time.Duration `mapstructure:"endpoint_cache_ttl" default:"1m"`
	// History persists one vm_sync_runs row per executed run.
	History bool `mapstructure:"history" default:"true"`
	// ArchiveReports writes the JSON report of every run to object storage.
	ArchiveReports bool `mapstructure:"archive_reports" default:"false"`
	// ReportPrefix is the object prefix for archived reports.
	ReportPrefix string `mapstructure:"report_prefix" default:"sync-reports"`
	// ReportRetentionDays prunes archived reports older than this many days. 0 keeps everything.
	ReportRetentionDays int `mapstructure:"report_retention_days" default:"30"`
}
