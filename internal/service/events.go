package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventMappingSet     EventType = "mapping_set"
	EventMappingCleared EventType = "mapping_cleared"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// MappingEventPayload identifies the mapping that changed. ContextID is the
// question's permission context, 0 when the question could not be read.
type MappingEventPayload struct {
	QuestionID   int64 `json:"question_id"`
	CompetencyID int64 `json:"competency_id"`
	ContextID    int64 `json:"context_id"`
}

// ScopeContextID returns the permission context the event belongs to.
// ok is false for events that are not tied to a question.
func (e Event) ScopeContextID() (contextID int64, ok bool) {
	if p, isMapping := e.Payload.(MappingEventPayload); isMapping {
		return p.ContextID, true
	}
	return 0, false
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
