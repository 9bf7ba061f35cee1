package messaging

import (
	"context"
)

// Channels shared between instances.
const (
	ChannelSessions          = "auth.session"
	ChannelQueryInvalidate   = "query.invalidate"
	ChannelIntegrationEvents = "integration.events"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Publisher is the publish half of Broker, for components that only emit.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}
