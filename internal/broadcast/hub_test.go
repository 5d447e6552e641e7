package broadcast

import (
	"testing"
)

func TestFanOutSelectivity(t *testing.T) {
	hub := NewHub(nil, nil)

	var busEvents, bookingEvents []Event
	hub.Subscribe([]string{TypeBusCreated}, func(ev Event) { busEvents = append(busEvents, ev) })
	hub.Subscribe([]string{TypeBookingCreated}, func(ev Event) { bookingEvents = append(bookingEvents, ev) })

	hub.TriggerUpdate(TypeBusCreated, map[string]string{"id": "bus_1"}, "admin_1")
	hub.TriggerUpdate(TypeBookingCreated, map[string]string{"id": "bkg_1"}, "")

	if len(busEvents) != 1 {
		t.Fatalf("expected 1 bus event, got %d", len(busEvents))
	}
	if len(bookingEvents) != 1 {
		t.Fatalf("expected 1 booking event, got %d", len(bookingEvents))
	}
	if busEvents[0].UpdatedBy != "admin_1" {
		t.Fatalf("expected updatedBy propagated, got %q", busEvents[0].UpdatedBy)
	}
	if busEvents[0].Origin == "" {
		t.Fatalf("expected origin stamped on local events")
	}
}

func TestSubscribeAllReceivesEveryType(t *testing.T) {
	hub := NewHub(nil, nil)

	count := 0
	hub.SubscribeAll(func(Event) { count++ })

	for _, eventType := range AllTypes() {
		hub.TriggerUpdate(eventType, nil, "")
	}
	if count != len(AllTypes()) {
		t.Fatalf("expected %d events, got %d", len(AllTypes()), count)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(nil, nil)

	count := 0
	unsubscribe := hub.Subscribe([]string{TypeRouteUpdated}, func(Event) { count++ })

	hub.TriggerUpdate(TypeRouteUpdated, nil, "")
	unsubscribe()
	hub.TriggerUpdate(TypeRouteUpdated, nil, "")

	if count != 1 {
		t.Fatalf("expected delivery to stop after unsubscribe, got %d events", count)
	}
}

func TestPanickingSubscriberIsIsolated(t *testing.T) {
	hub := NewHub(nil, nil)

	hub.Subscribe([]string{TypeSettingsUpdated}, func(Event) { panic("boom") })

	delivered := false
	hub.Subscribe([]string{TypeSettingsUpdated}, func(Event) { delivered = true })

	hub.TriggerUpdate(TypeSettingsUpdated, nil, "")

	if !delivered {
		t.Fatalf("panicking subscriber blocked delivery to others")
	}
}

func TestCleanupClearsSubscribers(t *testing.T) {
	hub := NewHub(nil, nil)

	count := 0
	hub.SubscribeAll(func(Event) { count++ })

	hub.Cleanup()
	hub.TriggerUpdate(TypeBusDeleted, nil, "")

	if count != 0 {
		t.Fatalf("expected no delivery after cleanup, got %d events", count)
	}
}
