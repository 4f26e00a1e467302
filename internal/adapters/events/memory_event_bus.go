package events

import (
	"context"
	"sync"

	"github.com/zatekoja/notefhir/internal/domain/entities"
	"github.com/zatekoja/notefhir/internal/domain/providers"
	"github.com/zatekoja/notefhir/internal/infrastructure/observability"
)

// MemoryEventBus is an in-process EventBus for single-instance deployments.
type MemoryEventBus struct {
	hub    *hub
	mu     sync.RWMutex
	closed bool
}

// NewMemoryEventBus creates an in-process event bus
func NewMemoryEventBus() *MemoryEventBus {
	return &MemoryEventBus{hub: newHub(observability.GetLogger())}
}

var _ providers.EventBus = (*MemoryEventBus)(nil)

// Publish delivers the event to current subscribers of channel
func (b *MemoryEventBus) Publish(ctx context.Context, channel string, event *entities.ResourceEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errBusClosed
	}
	n := b.hub.broadcast(channel, event)
	observability.LoggerFromContext(ctx).Debug().Str("channel", channel).Str("event_id", event.ID).Int("subscribers", n).Msg("published event")
	return nil
}

// Subscribe returns a channel that receives events until ctx is done
func (b *MemoryEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ResourceEvent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, errBusClosed
	}
	ch, _ := b.hub.add(channel)
	go func() {
		<-ctx.Done()
		b.hub.remove(channel, ch)
	}()
	return ch, nil
}

// Close closes every subscriber channel
func (b *MemoryEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, c := range b.hub.channels() {
		b.hub.closeChannel(c)
	}
	return nil
}
