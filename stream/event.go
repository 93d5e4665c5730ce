// Package stream provides a real-time event broker for Atelier lifecycle
// events. It bridges the ext.Extension system to connected clients via
// topic-based pub/sub.
package stream

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Project events.
	EventProjectStarted   EventType = "project.started"
	EventProjectCompleted EventType = "project.completed"
	EventProjectFailed    EventType = "project.failed"

	// Stage events.
	EventStageStarted   EventType = "stage.started"
	EventStageCompleted EventType = "stage.completed"
	EventStageFailed    EventType = "stage.failed"

	// Log and artifact events.
	EventMessageAppended EventType = "message.appended"
	EventArtifactAdded   EventType = "artifact.added"
)

// Event is the envelope sent to subscribers on a topic channel.
type Event struct {
	// Type identifies the lifecycle event.
	Type EventType `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"ts"`

	// Topic is the channel this event was published on.
	Topic string `json:"topic"`

	// Data is the event-specific payload.
	Data json.RawMessage `json:"data"`
}

// ProjectEventData is the payload for project and stage lifecycle events.
type ProjectEventData struct {
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
	Stage     string `json:"stage,omitempty"`
	Progress  int    `json:"progress"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// MessageEventData is the payload for message.appended events.
type MessageEventData struct {
	ProjectID string    `json:"project_id"`
	Seq       int       `json:"seq"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ArtifactEventData is the payload for artifact.added events.
type ArtifactEventData struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Stage     string `json:"stage"`
}
