package eventbus

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Envelope is one event on its way to the broker.
type Envelope struct {
	MessageID     string
	CorrelationID string
	RoutingKey    string
	Payload       []byte
	OccurredAt    time.Time
}

// Publisher sends envelopes to a message broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// NoopPublisher drops every envelope. Local mode uses it so the outbox
// drains without a broker.
type NoopPublisher struct {
	logger *zap.Logger
}

func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, env Envelope) error {
	p.logger.Debug("noop publish",
		zap.String("routing_key", env.RoutingKey),
		zap.String("message_id", env.MessageID),
		zap.Int("size", len(env.Payload)),
	)
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}
