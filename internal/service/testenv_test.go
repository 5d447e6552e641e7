package service

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/repository"
)

// testEnv wires the full service graph over a memory-only mirror with no
// remote store, which exercises the local-only degradation path end to end.
type testEnv struct {
	hub      *broadcast.Hub
	mirror   *repository.LocalMirror
	buses    *BusService
	routes   *RouteService
	bookings *BookingService
	users    *UserService
	settings *SettingsService
	activity *ActivityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mirror := repository.NewLocalMirror("", nil)
	hub := broadcast.NewHub(nil, nil)

	busCol := repository.NewCollection[domain.Bus](domain.CollectionBuses, mirror, nil, nil)
	routeCol := repository.NewCollection[domain.Route](domain.CollectionRoutes, mirror, nil, nil)
	bookingCol := repository.NewCollection[domain.Booking](domain.CollectionBookings, mirror, nil, nil)
	activityCol := repository.NewCollection[domain.ActivityEntry](domain.CollectionActivities, mirror, nil, nil)
	settingsCol := repository.NewCollection[domain.SystemSettings](domain.CollectionSettings, mirror, nil, nil)
	availCol := repository.NewCollection[domain.SeatAvailability](domain.CollectionAvailability, mirror, nil, nil)

	activity := NewActivityService(activityCol, hub, nil)
	settings := NewSettingsService(settingsCol, activity, hub, nil)
	buses := NewBusService(busCol, activity, hub, nil)
	routes := NewRouteService(routeCol, activity, hub, nil)
	bookings := NewBookingService(bookingCol, busCol, availCol, settings, activity, hub, nil)
	users := NewUserService(mirror, nil, activity, hub, nil)

	return &testEnv{
		hub:      hub,
		mirror:   mirror,
		buses:    buses,
		routes:   routes,
		bookings: bookings,
		users:    users,
		settings: settings,
		activity: activity,
	}
}

func (e *testEnv) createBus(t *testing.T, plate string, capacity int) *domain.Bus {
	t.Helper()
	bus, _, err := e.buses.Create(context.Background(), CreateBusInput{
		PlateNumber: plate,
		Capacity:    capacity,
	}, "admin_test")
	if err != nil {
		t.Fatalf("create bus failed: %v", err)
	}
	return bus
}

func (e *testEnv) book(t *testing.T, busID, seat string) *domain.Booking {
	t.Helper()
	booking, _, err := e.bookings.Create(context.Background(), CreateBookingInput{
		BusID:      busID,
		SeatNumber: seat,
		Passenger: domain.PassengerSnapshot{
			ID:   "usr_test",
			Name: "Test Passenger",
			Type: domain.RoleStudent,
		},
		TripDate: time.Now().Format("2006-01-02"),
		TripTime: "08:00",
	})
	if err != nil {
		t.Fatalf("booking seat %s failed: %v", seat, err)
	}
	return booking
}
