package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ResourceEventType represents the type of resource event
type ResourceEventType string

const (
	ResourceEventTypeExtracted ResourceEventType = "resource_extracted"
	ResourceEventTypeReset     ResourceEventType = "resources_reset"
)

// ResourceEvent announces a change to the extracted resource set
type ResourceEvent struct {
	ID         string            `json:"id"`
	EventType  ResourceEventType `json:"event_type"`
	Kind       ResourceKind      `json:"kind,omitempty"`
	ResourceID string            `json:"resource_id,omitempty"`
	Code       string            `json:"code,omitempty"`
	Display    string            `json:"display,omitempty"`
	Subject    string            `json:"subject,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewResourceExtractedEvent creates an event for a freshly built record
func NewResourceExtractedEvent(record *ResourceRecord) *ResourceEvent {
	return &ResourceEvent{
		ID:         generateEventID(),
		EventType:  ResourceEventTypeExtracted,
		Kind:       record.Kind,
		ResourceID: record.ID,
		Code:       record.Code(),
		Display:    record.Display(),
		Subject:    record.Resource.SubjectReference(),
		Timestamp:  time.Now(),
	}
}

// NewResourcesResetEvent creates an event for an accumulator reset
func NewResourcesResetEvent() *ResourceEvent {
	return &ResourceEvent{
		ID:        generateEventID(),
		EventType: ResourceEventTypeReset,
		Timestamp: time.Now(),
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
