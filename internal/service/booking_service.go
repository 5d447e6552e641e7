package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/observability/metrics"
	"github.com/yourorg/campusbus/internal/repository"
)

// BookingService owns bookings and the derived seat-availability snapshots.
//
// The availability check and the booking write are serialized per bus with a
// keyed mutex, closing the check-then-act window two near-simultaneous
// requests for the same seat would otherwise race through. The external API
// is unchanged by the lock.
type BookingService struct {
	bookings     *repository.Collection[domain.Booking]
	buses        *repository.Collection[domain.Bus]
	availability *repository.Collection[domain.SeatAvailability]
	settings     *SettingsService
	activities   *ActivityService
	hub          *broadcast.Hub
	logger       *slog.Logger

	mu       sync.Mutex
	busLocks map[string]*sync.Mutex
}

// NewBookingService creates the booking service.
func NewBookingService(
	bookings *repository.Collection[domain.Booking],
	buses *repository.Collection[domain.Bus],
	availability *repository.Collection[domain.SeatAvailability],
	settings *SettingsService,
	activities *ActivityService,
	hub *broadcast.Hub,
	logger *slog.Logger,
) *BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingService{
		bookings:     bookings,
		buses:        buses,
		availability: availability,
		settings:     settings,
		activities:   activities,
		hub:          hub,
		logger:       logger,
		busLocks:     make(map[string]*sync.Mutex),
	}
}

// CreateBookingInput carries the fields for a new booking. The passenger
// snapshot is captured as given and never re-joined against the account.
type CreateBookingInput struct {
	BusID      string                   `json:"busId"`
	RouteID    string                   `json:"routeId"`
	Passenger  domain.PassengerSnapshot `json:"passenger"`
	SeatNumber string                   `json:"seatNumber"`
	TripDate   string                   `json:"tripDate"`
	TripTime   string                   `json:"tripTime"`
	Amount     float64                  `json:"amount"`
}

// Create validates seat availability and persists a confirmed booking, then
// recomputes the bus's availability snapshot.
func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, repository.WriteOutcome, error) {
	seat := strings.ToUpper(strings.TrimSpace(input.SeatNumber))
	switch {
	case strings.TrimSpace(input.BusID) == "":
		return nil, "", domain.ValidationError{Field: "busId", Msg: "required"}
	case seat == "":
		return nil, "", domain.ValidationError{Field: "seatNumber", Msg: "required"}
	case strings.TrimSpace(input.Passenger.Name) == "":
		return nil, "", domain.ValidationError{Field: "passenger.name", Msg: "required"}
	}

	lock := s.lockForBus(input.BusID)
	lock.Lock()
	defer lock.Unlock()

	bus, ok := s.buses.Get(ctx, input.BusID)
	if !ok {
		metrics.ObserveBooking("bus_not_found")
		return nil, "", domain.NotFoundError{Resource: "bus", ID: input.BusID}
	}

	confirmed := s.confirmedForBus(ctx, bus.ID)
	for _, b := range confirmed {
		if strings.EqualFold(b.SeatNumber, seat) {
			metrics.ObserveBooking("seat_taken")
			return nil, "", domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("seat %s already booked", seat)}
		}
	}
	if len(confirmed) >= bus.Capacity {
		metrics.ObserveBooking("capacity_exceeded")
		return nil, "", domain.ConflictError{Resource: "booking", Msg: fmt.Sprintf("bus %s is fully booked", bus.PlateNumber)}
	}

	amount := input.Amount
	if amount == 0 {
		amount = s.settings.Get(ctx).BookingPrice
	}

	now := domain.NowISO()
	booking := domain.Booking{
		ID:            domain.NewID("bkg"),
		BusID:         bus.ID,
		RouteID:       input.RouteID,
		Passenger:     input.Passenger,
		SeatNumber:    seat,
		TripDate:      input.TripDate,
		TripTime:      input.TripTime,
		Status:        domain.BookingConfirmed,
		PaymentStatus: domain.PaymentPending,
		Amount:        amount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	outcome, err := s.bookings.Save(ctx, booking)
	if err != nil {
		return nil, "", err
	}
	metrics.ObserveBooking("created")

	s.activities.Log(ctx, "booking_created",
		fmt.Sprintf("%s booked seat %s on bus %s", booking.Passenger.Name, seat, bus.PlateNumber),
		booking.Passenger.ID,
		map[string]string{"bookingId": booking.ID, "busId": bus.ID, "seat": seat},
	)
	s.refreshAvailability(ctx, bus)
	s.hub.TriggerUpdate(broadcast.TypeBookingCreated, booking, booking.Passenger.ID)
	return &booking, outcome, nil
}

// Cancel marks a booking cancelled, refunds its payment status and
// recomputes the affected bus's availability.
func (s *BookingService) Cancel(ctx context.Context, id string, actor string) (*domain.Booking, repository.WriteOutcome, error) {
	booking, ok := s.bookings.Get(ctx, id)
	if !ok {
		return nil, "", domain.NotFoundError{Resource: "booking", ID: id}
	}
	if booking.Status == domain.BookingCancelled {
		return nil, "", domain.ConflictError{Resource: "booking", Msg: "already cancelled"}
	}

	lock := s.lockForBus(booking.BusID)
	lock.Lock()
	defer lock.Unlock()

	booking.Status = domain.BookingCancelled
	booking.PaymentStatus = domain.PaymentRefunded
	booking.UpdatedAt = domain.NowISO()

	outcome, err := s.bookings.Save(ctx, booking)
	if err != nil {
		return nil, "", err
	}
	metrics.ObserveBooking("cancelled")

	s.activities.Log(ctx, "booking_cancelled",
		fmt.Sprintf("booking for seat %s cancelled", booking.SeatNumber),
		actor,
		map[string]string{"bookingId": booking.ID, "busId": booking.BusID},
	)
	if bus, ok := s.buses.Get(ctx, booking.BusID); ok {
		s.refreshAvailability(ctx, bus)
	}
	s.hub.TriggerUpdate(broadcast.TypeBookingCancelled, booking, actor)
	return &booking, outcome, nil
}

// GetAll returns every booking, newest first.
func (s *BookingService) GetAll(ctx context.Context) []domain.Booking {
	bookings := s.bookings.All(ctx)
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt > bookings[j].CreatedAt })
	return bookings
}

// GetByBus filters the full booking set by bus id.
func (s *BookingService) GetByBus(ctx context.Context, busID string) []domain.Booking {
	out := []domain.Booking{}
	for _, b := range s.GetAll(ctx) {
		if b.BusID == busID {
			out = append(out, b)
		}
	}
	return out
}

// GetByPassenger filters the full booking set by passenger id.
func (s *BookingService) GetByPassenger(ctx context.Context, passengerID string) []domain.Booking {
	out := []domain.Booking{}
	for _, b := range s.GetAll(ctx) {
		if b.Passenger.ID == passengerID {
			out = append(out, b)
		}
	}
	return out
}

// GetSeatAvailability computes the current snapshot for one bus.
func (s *BookingService) GetSeatAvailability(ctx context.Context, busID string) (*domain.SeatAvailability, error) {
	bus, ok := s.buses.Get(ctx, busID)
	if !ok {
		return nil, domain.NotFoundError{Resource: "bus", ID: busID}
	}
	snapshot := s.computeAvailability(ctx, bus)
	return &snapshot, nil
}

// BusSummary aggregates bookings for one bus.
func (s *BookingService) BusSummary(ctx context.Context, busID string) (*domain.BusBookingSummary, error) {
	bus, ok := s.buses.Get(ctx, busID)
	if !ok {
		return nil, domain.NotFoundError{Resource: "bus", ID: busID}
	}
	summary := s.summarize(bus, s.GetByBus(ctx, busID))
	return &summary, nil
}

// AllBusSummaries aggregates bookings per bus, most recent booking first.
func (s *BookingService) AllBusSummaries(ctx context.Context) []domain.BusBookingSummary {
	bookingsByBus := make(map[string][]domain.Booking)
	for _, b := range s.GetAll(ctx) {
		bookingsByBus[b.BusID] = append(bookingsByBus[b.BusID], b)
	}

	out := []domain.BusBookingSummary{}
	for _, bus := range s.buses.All(ctx) {
		out = append(out, s.summarize(bus, bookingsByBus[bus.ID]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastBookingAt > out[j].LastBookingAt })
	return out
}

// RefreshAllAvailability recomputes and persists the snapshot for every bus.
// The sync worker runs this after refreshing collections from the remote.
func (s *BookingService) RefreshAllAvailability(ctx context.Context) {
	for _, bus := range s.buses.All(ctx) {
		lock := s.lockForBus(bus.ID)
		lock.Lock()
		s.refreshAvailability(ctx, bus)
		lock.Unlock()
	}
}

func (s *BookingService) summarize(bus domain.Bus, bookings []domain.Booking) domain.BusBookingSummary {
	summary := domain.BusBookingSummary{BusID: bus.ID, PlateNumber: bus.PlateNumber}
	for _, b := range bookings {
		summary.Total++
		switch b.Status {
		case domain.BookingConfirmed:
			summary.Confirmed++
			summary.Revenue += b.Amount
		case domain.BookingCancelled:
			summary.Cancelled++
		}
		if b.CreatedAt > summary.LastBookingAt {
			summary.LastBookingAt = b.CreatedAt
		}
	}
	return summary
}

func (s *BookingService) confirmedForBus(ctx context.Context, busID string) []domain.Booking {
	out := []domain.Booking{}
	for _, b := range s.bookings.All(ctx) {
		if b.BusID == busID && b.Status == domain.BookingConfirmed {
			out = append(out, b)
		}
	}
	return out
}

func (s *BookingService) computeAvailability(ctx context.Context, bus domain.Bus) domain.SeatAvailability {
	confirmed := s.confirmedForBus(ctx, bus.ID)
	seats := make([]string, 0, len(confirmed))
	for _, b := range confirmed {
		seats = append(seats, b.SeatNumber)
	}
	sort.Strings(seats)

	available := bus.Capacity - len(confirmed)
	if available < 0 {
		available = 0
	}
	return domain.SeatAvailability{
		BusID:             bus.ID,
		TotalSeats:        bus.Capacity,
		BookedSeats:       len(confirmed),
		AvailableSeats:    available,
		BookedSeatNumbers: seats,
		UpdatedAt:         domain.NowISO(),
	}
}

// refreshAvailability recomputes, persists and broadcasts the snapshot for
// one bus. Callers must hold the bus lock.
func (s *BookingService) refreshAvailability(ctx context.Context, bus domain.Bus) {
	snapshot := s.computeAvailability(ctx, bus)
	if _, err := s.availability.Save(ctx, snapshot); err != nil {
		s.logger.Error("availability snapshot save failed",
			slog.String("bus_id", bus.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.hub.TriggerUpdate(broadcast.TypeAvailabilityUpdated, snapshot, "")
}

func (s *BookingService) lockForBus(busID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.busLocks[busID]
	if !ok {
		lock = &sync.Mutex{}
		s.busLocks[busID] = lock
	}
	return lock
}
