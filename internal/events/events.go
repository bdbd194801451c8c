package events

import "context"

// TopicCitationCreated carries one event per recorded citation.
const TopicCitationCreated = "citation.created"

// Event represents a broker-agnostic payload delivered to subscribers.
type Event struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes an event. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, evt Event) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Bus wraps a backend with a stable API. A nil *Bus is a no-op
// publisher so callers do not have to guard the disabled case.
type Bus struct {
	backend Backend
}

// NewBus constructs a Bus for the provided backend.
func NewBus(backend Backend) *Bus {
	return &Bus{backend: backend}
}

// Publish sends an event to the named topic.
func (b *Bus) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if b == nil || b.backend == nil {
		return "", nil
	}
	return b.backend.Publish(ctx, topic, data, attrs)
}

// Subscribe consumes events from the named topic.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	if b == nil || b.backend == nil {
		return nil
	}
	return b.backend.Subscribe(ctx, topic, handler)
}

// Close closes the underlying backend.
func (b *Bus) Close() error {
	if b == nil || b.backend == nil {
		return nil
	}
	return b.backend.Close()
}
