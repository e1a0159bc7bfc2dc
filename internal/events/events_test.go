package events

import (
	"encoding/json"
	"testing"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	handler := func(event *Event) error {
		received = event
		callCount++
		return nil
	}

	bus.Subscribe(EventBookingCreated, handler)

	payload := BookingEventPayload{BookingID: 42, Status: "upcoming"}
	err := bus.PublishJSON(EventBookingCreated, payload)
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}

	var decoded BookingEventPayload
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded.BookingID != 42 || decoded.Status != "upcoming" {
		t.Errorf("unexpected payload: %+v", decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Should not panic
	bus.Publish(&Event{Type: "unknown"})
	err := bus.PublishJSON("unknown", nil)
	if err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}
}

func TestEventBusNilReceiver(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventReviewCreated, ReviewEventPayload{BookingID: 1}); err != nil {
		t.Errorf("nil bus PublishJSON failed: %v", err)
	}
}
