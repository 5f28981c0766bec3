package memory

import (
	"context"
	"sync"

	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

// Bus is a synchronous in-process event bus implementing both
// ports.EventPublisher and ports.EventSubscriber. Publish delivers to every
// registered handler before returning, so tests observe consumer effects
// without polling.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]func(context.Context, ports.EventEnvelope) error
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]func(context.Context, ports.EventEnvelope) error),
	}
}

func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.RLock()
	handlers := append([]func(context.Context, ports.EventEnvelope) error(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}
