package service

import (
	"context"
	"testing"

	"github.com/yourorg/campusbus/internal/domain"
)

func TestBusCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, _, err := env.buses.Create(ctx, CreateBusInput{Capacity: 40}, ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for missing plate, got %v", err)
	}
	if _, _, err := env.buses.Create(ctx, CreateBusInput{PlateNumber: "KN-1", Capacity: 0}, ""); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for zero capacity, got %v", err)
	}

	bus, _, err := env.buses.Create(ctx, CreateBusInput{PlateNumber: "KN-1", Capacity: 40}, "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if bus.Status != domain.BusAvailable {
		t.Fatalf("expected default status available, got %s", bus.Status)
	}
}

func TestBusPartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bus := env.createBus(t, "KN-1", 40)

	status := domain.BusMaintenance
	updated, _, err := env.buses.Update(ctx, bus.ID, UpdateBusInput{Status: &status}, "")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != domain.BusMaintenance {
		t.Fatalf("expected status updated, got %s", updated.Status)
	}
	if updated.PlateNumber != "KN-1" || updated.Capacity != 40 {
		t.Fatalf("untouched fields must survive a partial update: %+v", updated)
	}
}

func TestBusDeleteLeavesBookings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bus := env.createBus(t, "KN-1", 40)
	booking := env.book(t, bus.ID, "A1")

	if err := env.buses.Delete(ctx, bus.ID, ""); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// The booking's bus reference is soft; the record itself survives.
	if got := env.bookings.GetByBus(ctx, bus.ID); len(got) != 1 || got[0].ID != booking.ID {
		t.Fatalf("expected orphaned booking kept, got %v", got)
	}
}

func TestSeedDefaultsIsIdempotentOnNonEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.buses.SeedDefaults(ctx); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	seeded := len(env.buses.GetAll(ctx))
	if seeded == 0 {
		t.Fatalf("expected seeded fleet")
	}

	if err := env.buses.SeedDefaults(ctx); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if got := len(env.buses.GetAll(ctx)); got != seeded {
		t.Fatalf("non-empty collection must not be reseeded: %d -> %d", seeded, got)
	}
}

func TestRouteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	route, _, err := env.routes.Create(ctx, CreateRouteInput{
		Name:       "Main Gate - Library",
		StartPoint: "Main Gate",
		EndPoint:   "Library",
		Stops:      []string{"Main Gate", "Admin Block", "Library"},
	}, "")
	if err != nil {
		t.Fatalf("create route failed: %v", err)
	}
	if route.Status != domain.RouteActive {
		t.Fatalf("expected new route active, got %s", route.Status)
	}

	inactive := domain.RouteInactive
	updated, _, err := env.routes.Update(ctx, route.ID, UpdateRouteInput{Status: &inactive}, "")
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if updated.Status != domain.RouteInactive {
		t.Fatalf("expected inactive, got %s", updated.Status)
	}

	// Retired routes stay listed for historical bookings.
	if got := env.routes.GetAll(ctx); len(got) != 1 {
		t.Fatalf("expected retired route still listed, got %d", len(got))
	}
}

func TestActivityLogCapAndOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < loadActivitiesCap+10; i++ {
		env.activity.Log(ctx, "test_event", "entry", "", nil)
	}

	entries := env.activity.Load(ctx)
	if len(entries) != loadActivitiesCap {
		t.Fatalf("expected feed capped at %d, got %d", loadActivitiesCap, len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].CreatedAt < entries[i].CreatedAt {
			t.Fatalf("expected newest-first ordering")
		}
	}
}
