package events

// Config holds configuration for publishing events to NATS JetStream.
type Config struct {
	// Enabled turns event publishing on.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// NATSURL is the NATS server address.
	NATSURL string `mapstructure:"nats_url" default:"nats://localhost:4222"`
	// Stream is the JetStream stream that captures published subjects.
	Stream string `mapstructure:"stream" default:"INVENTORY"`
	// Subject is the subject events are published on.
	Subject string `mapstructure:"subject" default:"inventory.vm.sync"`
	// Source is the CloudEvents source attribute.
	Source string `mapstructure:"source" default:"infra-inventory"`
}
