// Package events publishes domain events as CloudEvents on NATS JetStream.
//
// Connect dials the server, makes sure the configured stream captures the
// event subject and returns a JetStreamPublisher. Components depend on the
// Publisher interface so NopPublisher can stand in when events are disabled.
package events
