package providers

import (
	"context"

	"github.com/nakanaka07/kueccha/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.POIEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.POIEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelPOIUpdates is the channel for all POI data updates
	EventChannelPOIUpdates = "poi:updates"

	// EventChannelAreaPrefix is the prefix for area-specific channels
	EventChannelAreaPrefix = "poi:area:"
)

// GetAreaChannel returns the channel name for a specific area
func GetAreaChannel(area entities.Area) string {
	return EventChannelAreaPrefix + string(area)
}
