package service

import (
	"context"
	"testing"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
)

func TestCreateBookingRejectsTakenSeat(t *testing.T) {
	env := newTestEnv(t)
	bus := env.createBus(t, "KN-101", 40)

	env.book(t, bus.ID, "A1")

	_, _, err := env.bookings.Create(context.Background(), CreateBookingInput{
		BusID:      bus.ID,
		SeatNumber: "a1",
		Passenger:  domain.PassengerSnapshot{ID: "usr_2", Name: "Second"},
	})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict for taken seat (case-insensitive), got %v", err)
	}
}

func TestCreateBookingCapacityBoundary(t *testing.T) {
	env := newTestEnv(t)
	bus := env.createBus(t, "KN-102", 2)

	env.book(t, bus.ID, "A1")
	env.book(t, bus.ID, "A2")

	_, _, err := env.bookings.Create(context.Background(), CreateBookingInput{
		BusID:      bus.ID,
		SeatNumber: "A3",
		Passenger:  domain.PassengerSnapshot{ID: "usr_3", Name: "Third"},
	})
	if !domain.IsConflict(err) {
		t.Fatalf("expected capacity conflict at confirmed == capacity, got %v", err)
	}

	snapshot, err := env.bookings.GetSeatAvailability(context.Background(), bus.ID)
	if err != nil {
		t.Fatalf("availability failed: %v", err)
	}
	if snapshot.AvailableSeats != 0 || snapshot.BookedSeats != 2 {
		t.Fatalf("expected full bus, got %+v", snapshot)
	}
}

func TestCancelFreesSeatAndCapacity(t *testing.T) {
	env := newTestEnv(t)
	bus := env.createBus(t, "KN-103", 1)
	booking := env.book(t, bus.ID, "A1")

	cancelled, _, err := env.bookings.Cancel(context.Background(), booking.ID, "admin_test")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.BookingCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if cancelled.PaymentStatus != domain.PaymentRefunded {
		t.Fatalf("expected refunded payment, got %s", cancelled.PaymentStatus)
	}

	// Same seat and the last capacity slot are available again.
	env.book(t, bus.ID, "A1")

	if _, _, err := env.bookings.Cancel(context.Background(), booking.ID, "admin_test"); !domain.IsConflict(err) {
		t.Fatalf("expected conflict on double cancel, got %v", err)
	}
}

func TestCreateBookingUnknownBus(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.bookings.Create(context.Background(), CreateBookingInput{
		BusID:      "bus_missing",
		SeatNumber: "A1",
		Passenger:  domain.PassengerSnapshot{ID: "usr_1", Name: "Nobody"},
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBookingAmountDefaultsFromSettings(t *testing.T) {
	env := newTestEnv(t)
	bus := env.createBus(t, "KN-104", 10)

	booking := env.book(t, bus.ID, "B1")

	want := env.settings.Get(context.Background()).BookingPrice
	if booking.Amount != want {
		t.Fatalf("expected default amount %v, got %v", want, booking.Amount)
	}
}

func TestBookingBroadcastsCreatedAndAvailability(t *testing.T) {
	env := newTestEnv(t)
	bus := env.createBus(t, "KN-105", 10)

	var created, availability int
	env.hub.Subscribe([]string{broadcast.TypeBookingCreated}, func(broadcast.Event) { created++ })
	env.hub.Subscribe([]string{broadcast.TypeAvailabilityUpdated}, func(broadcast.Event) { availability++ })

	env.book(t, bus.ID, "C1")

	if created != 1 {
		t.Fatalf("expected exactly one booking_created event, got %d", created)
	}
	if availability != 1 {
		t.Fatalf("expected exactly one availability event, got %d", availability)
	}
}

func TestBusSummaryAggregation(t *testing.T) {
	env := newTestEnv(t)
	bus := env.createBus(t, "KN-106", 10)

	env.book(t, bus.ID, "A1")
	b2 := env.book(t, bus.ID, "A2")
	if _, _, err := env.bookings.Cancel(context.Background(), b2.ID, ""); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	summary, err := env.bookings.BusSummary(context.Background(), bus.ID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Total != 2 || summary.Confirmed != 1 || summary.Cancelled != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	price := env.settings.Get(context.Background()).BookingPrice
	if summary.Revenue != price {
		t.Fatalf("expected revenue from confirmed bookings only, got %v", summary.Revenue)
	}
}

func TestGetByPassengerFilters(t *testing.T) {
	env := newTestEnv(t)
	bus := env.createBus(t, "KN-107", 10)

	env.book(t, bus.ID, "A1")
	if _, _, err := env.bookings.Create(context.Background(), CreateBookingInput{
		BusID:      bus.ID,
		SeatNumber: "A2",
		Passenger:  domain.PassengerSnapshot{ID: "usr_other", Name: "Other"},
	}); err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	mine := env.bookings.GetByPassenger(context.Background(), "usr_test")
	if len(mine) != 1 || mine[0].SeatNumber != "A1" {
		t.Fatalf("expected one booking for usr_test, got %v", mine)
	}
}
