package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// CloudEvent is the CloudEvents 1.0 envelope published on the stream.
type CloudEvent struct {
	SpecVersion     string     `json:"specversion"`
	ID              string     `json:"id"`
	Source          string     `json:"source"`
	Type            string     `json:"type"`
	DataContentType string     `json:"datacontenttype"`
	Subject         string     `json:"subject"`
	Time            *time.Time `json:"time,omitempty"`
	Data            any        `json:"data"`
}

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}

// JetStream is the subset of jetstream.JetStream used for publishing.
type JetStream interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamPublisher wraps events in CloudEvents and publishes them on one subject.
type JetStreamPublisher struct {
	js      JetStream
	subject string
	source  string
	logger  *zap.Logger
	now     func() time.Time
}

// NewJetStreamPublisher creates a publisher on an existing JetStream context.
func NewJetStreamPublisher(js JetStream, cfg Config, logger *zap.Logger) *JetStreamPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JetStreamPublisher{
		js:      js,
		subject: cfg.Subject,
		source:  cfg.Source,
		logger:  logger,
		now:     time.Now,
	}
}

// Publish marshals data into a CloudEvent of the given type and waits for the stream ack.
func (p *JetStreamPublisher) Publish(ctx context.Context, eventType string, data any) error {
	ts := p.now().UTC()
	event := CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          p.source,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         p.subject,
		Time:            &ts,
		Data:            data,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	ack, err := p.js.Publish(ctx, p.subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	p.logger.Debug("Published event",
		zap.String("event_id", event.ID),
		zap.String("type", eventType),
		zap.String("subject", p.subject),
		zap.Uint64("seq", ack.Sequence),
	)
	return nil
}

// Connect dials NATS, ensures the stream captures the configured subject and
// returns a publisher with its close function.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*JetStreamPublisher, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name(cfg.Source),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
	}); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create or update stream %s: %w", cfg.Stream, err)
	}

	return NewJetStreamPublisher(js, cfg, logger), nc.Close, nil
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }
