package mq

import (
	"context"
	"encoding/json"

	"github.com/ggeraldodequeiroz/minhas-financas-backend/types"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// EventBus publishes entry lifecycle events on a fixed channel.
type EventBus struct {
	backend Backend
	channel string
}

// NewEventBus constructs an EventBus over the provided backend.
func NewEventBus(backend Backend, channel string) *EventBus {
	return &EventBus{backend: backend, channel: channel}
}

// PublishEntryEvent serializes the event and sends it to the channel.
// The action is mirrored into a message attribute so consumers can route
// without decoding the body.
func (b *EventBus) PublishEntryEvent(ctx context.Context, event types.EntryEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = b.backend.Publish(ctx, b.channel, data, map[string]string{"action": event.Action})
	return err
}

// Subscribe consumes entry events from the channel.
func (b *EventBus) Subscribe(ctx context.Context, handler Handler) error {
	return b.backend.Subscribe(ctx, b.channel, handler)
}

// Close closes the underlying backend.
func (b *EventBus) Close() error {
	return b.backend.Close()
}
