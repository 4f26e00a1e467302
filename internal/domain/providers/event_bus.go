package providers

import (
	"context"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to resource events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ResourceEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ResourceEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for resource events
const (
	// EventChannelResourcesExtracted carries every resource event
	EventChannelResourcesExtracted = "resources:extracted"

	// EventChannelResourcePrefix is the prefix for per-kind channels
	EventChannelResourcePrefix = "resources:"
)

// GetKindChannel returns the channel name for a resource kind
func GetKindChannel(kind entities.ResourceKind) string {
	return EventChannelResourcePrefix + string(kind)
}
