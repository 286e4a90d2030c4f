package entities

import (
	"time"

	"github.com/google/uuid"
)

// POIEventType represents the type of POI data event
type POIEventType string

const (
	// POIEventTypeRefresh is emitted when a manual refresh purges the caches.
	POIEventTypeRefresh POIEventType = "refresh"

	// POIEventTypeAreaUpdated is emitted after an area's data set was
	// refetched and written to the cache.
	POIEventTypeAreaUpdated POIEventType = "area_updated"
)

// POIEvent represents a data-lifecycle event for an area's POI set
type POIEvent struct {
	ID        string       `json:"id"`
	Area      Area         `json:"area,omitempty"`
	EventType POIEventType `json:"event_type"`
	Count     int          `json:"count,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewPOIEvent creates a new POI event
func NewPOIEvent(area Area, eventType POIEventType, count int) *POIEvent {
	return &POIEvent{
		ID:        uuid.NewString(),
		Area:      area,
		EventType: eventType,
		Count:     count,
		Timestamp: time.Now(),
	}
}
