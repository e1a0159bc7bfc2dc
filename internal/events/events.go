package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingActivated = "booking_activated"
	EventBookingCompleted = "booking_completed"
	EventBookingCancelled = "booking_cancelled"
	EventReviewCreated    = "review_created"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID int64     `json:"booking_id"`
	Reference string    `json:"reference,omitempty"`
	RenterID  int64     `json:"renter_id"`
	CarID     int64     `json:"car_id"`
	CarName   string    `json:"car_name,omitempty"`
	Status    string    `json:"status"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Total     float64   `json:"total,omitempty"`
}

// ReviewEventPayload accompanies EventReviewCreated.
type ReviewEventPayload struct {
	BookingID int64  `json:"booking_id"`
	CarID     int64  `json:"car_id"`
	RenterID  int64  `json:"renter_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
