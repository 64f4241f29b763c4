package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// DefaultSubject is the NATS subject completion events are published on.
const DefaultSubject = "forge.pipeline.completed"

// NATSBus carries completion events over a NATS connection as JSON messages.
// It owns its subscriptions but not the connection: closing the bus drains
// the subscriptions and leaves the connection to the caller.
type NATSBus struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
	subs    []*nats.Subscription
}

// NATSOption configures a NATSBus.
type NATSOption func(*NATSBus)

// WithSubject overrides the subject events are published on.
func WithSubject(subject string) NATSOption {
	return func(b *NATSBus) {
		b.subject = subject
	}
}

// WithNATSLogger sets the logger for subscription-side decode failures.
func WithNATSLogger(log zerolog.Logger) NATSOption {
	return func(b *NATSBus) {
		b.log = log
	}
}

// NewNATSBus creates a bus over an established connection.
func NewNATSBus(conn *nats.Conn, opts ...NATSOption) *NATSBus {
	bus := &NATSBus{
		conn:    conn,
		subject: DefaultSubject,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(bus)
	}
	return bus
}

// Publish implements Bus.
func (b *NATSBus) Publish(_ context.Context, event domain.CompletionEvent) error {
	const op = "events.nats.publish"

	data, err := json.Marshal(event)
	if err != nil {
		return ferrors.Wrap(op, ferrors.CodeInvalidInput, err)
	}
	if err := b.conn.Publish(b.subject, data); err != nil {
		return ferrors.Wrap(op, ferrors.CodeNetwork, err)
	}
	return nil
}

// Subscribe implements Bus. The handler runs on the NATS delivery goroutine
// with a background context.
func (b *NATSBus) Subscribe(handler Handler) error {
	const op = "events.nats.subscribe"

	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		var event domain.CompletionEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping undecodable event")
			return
		}
		handler(context.Background(), event)
	})
	if err != nil {
		return ferrors.Wrap(op, ferrors.CodeNetwork, err)
	}

	b.subs = append(b.subs, sub)
	return nil
}

// Close implements Bus.
func (b *NATSBus) Close() error {
	const op = "events.nats.close"

	for _, sub := range b.subs {
		if err := sub.Drain(); err != nil {
			return ferrors.Wrap(op, ferrors.CodeNetwork, err)
		}
	}
	b.subs = nil
	return nil
}
