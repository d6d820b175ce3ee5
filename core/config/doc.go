// Package config provides configuration management for the inventory service.
//
// Configuration comes from environment variables, optionally seeded from a
// .env file. Every key and its default are declared on the owning package's
// Config struct through 'mapstructure' and 'default' tags; LoadConfig walks
// those structs by reflection so SYNC_INTERVAL maps to sync.interval without a
// hand-maintained key list.
//
// # Sections
//
//   - Server: HTTP port, API key and instance name
//   - Database: mysql or sqlite connection
//   - Storage: S3/MinIO bucket for sync report archives
//   - Log: level and format
//   - Sync: scheduler cadence, enabled flag and run side channels
//   - Discovery: discovery service client and static hypervisor endpoint
//   - Events: NATS JetStream publishing
//   - Metrics: OTLP exporter
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.Interval)
package config
