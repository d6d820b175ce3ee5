package telemetry

import "time"

// Config holds configuration for the OTLP metrics exporter.
type Config struct {
	// OTLPEndpoint is the collector address (host:port). Empty disables export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" default:""`
	// ExportInterval is how often metrics are pushed to the collector.
	ExportInterval time.Duration `mapstructure:"export_interval" default:"30s"`
	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure" default:"true"`
}
