package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/yourorg/campusbus/internal/broadcast"
	"github.com/yourorg/campusbus/internal/domain"
	"github.com/yourorg/campusbus/internal/repository"
)

// BusService owns creation and mutation of buses.
type BusService struct {
	buses      *repository.Collection[domain.Bus]
	activities *ActivityService
	hub        *broadcast.Hub
	logger     *slog.Logger
}

// NewBusService creates the bus service.
func NewBusService(
	buses *repository.Collection[domain.Bus],
	activities *ActivityService,
	hub *broadcast.Hub,
	logger *slog.Logger,
) *BusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BusService{
		buses:      buses,
		activities: activities,
		hub:        hub,
		logger:     logger,
	}
}

// CreateBusInput carries the fields for a new bus.
type CreateBusInput struct {
	PlateNumber string           `json:"plateNumber"`
	Capacity    int              `json:"capacity"`
	Status      domain.BusStatus `json:"status"`
	DriverID    string           `json:"driverId"`
	RouteID     string           `json:"routeId"`
}

// UpdateBusInput carries a partial update; nil fields are left untouched.
type UpdateBusInput struct {
	PlateNumber *string           `json:"plateNumber"`
	Capacity    *int              `json:"capacity"`
	Status      *domain.BusStatus `json:"status"`
	DriverID    *string           `json:"driverId"`
	RouteID     *string           `json:"routeId"`
}

// Create validates and persists a new bus.
func (s *BusService) Create(ctx context.Context, input CreateBusInput, actor string) (*domain.Bus, repository.WriteOutcome, error) {
	if strings.TrimSpace(input.PlateNumber) == "" {
		return nil, "", domain.ValidationError{Field: "plateNumber", Msg: "required"}
	}
	if input.Capacity <= 0 {
		return nil, "", domain.ValidationError{Field: "capacity", Msg: "must be a positive integer"}
	}
	status := input.Status
	if status == "" {
		status = domain.BusAvailable
	}

	now := domain.NowISO()
	bus := domain.Bus{
		ID:          domain.NewID("bus"),
		PlateNumber: strings.TrimSpace(input.PlateNumber),
		Capacity:    input.Capacity,
		Status:      status,
		DriverID:    input.DriverID,
		RouteID:     input.RouteID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	outcome, err := s.buses.Save(ctx, bus)
	if err != nil {
		return nil, "", err
	}

	s.activities.Log(ctx, "bus_created", fmt.Sprintf("bus %s added", bus.PlateNumber), actor, map[string]string{"busId": bus.ID})
	s.hub.TriggerUpdate(broadcast.TypeBusCreated, bus, actor)
	return &bus, outcome, nil
}

// GetAll returns every bus, oldest first.
func (s *BusService) GetAll(ctx context.Context) []domain.Bus {
	buses := s.buses.All(ctx)
	sort.Slice(buses, func(i, j int) bool { return buses[i].CreatedAt < buses[j].CreatedAt })
	return buses
}

// Get returns one bus by id.
func (s *BusService) Get(ctx context.Context, id string) (*domain.Bus, error) {
	bus, ok := s.buses.Get(ctx, id)
	if !ok {
		return nil, domain.NotFoundError{Resource: "bus", ID: id}
	}
	return &bus, nil
}

// Update merges a partial update onto the stored snapshot.
func (s *BusService) Update(ctx context.Context, id string, input UpdateBusInput, actor string) (*domain.Bus, repository.WriteOutcome, error) {
	bus, ok := s.buses.Get(ctx, id)
	if !ok {
		return nil, "", domain.NotFoundError{Resource: "bus", ID: id}
	}

	if input.PlateNumber != nil {
		if strings.TrimSpace(*input.PlateNumber) == "" {
			return nil, "", domain.ValidationError{Field: "plateNumber", Msg: "required"}
		}
		bus.PlateNumber = strings.TrimSpace(*input.PlateNumber)
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return nil, "", domain.ValidationError{Field: "capacity", Msg: "must be a positive integer"}
		}
		bus.Capacity = *input.Capacity
	}
	if input.Status != nil {
		bus.Status = *input.Status
	}
	if input.DriverID != nil {
		bus.DriverID = *input.DriverID
	}
	if input.RouteID != nil {
		bus.RouteID = *input.RouteID
	}
	bus.UpdatedAt = domain.NowISO()

	outcome, err := s.buses.Save(ctx, bus)
	if err != nil {
		return nil, "", err
	}

	s.activities.Log(ctx, "bus_updated", fmt.Sprintf("bus %s updated", bus.PlateNumber), actor, map[string]string{"busId": bus.ID})
	s.hub.TriggerUpdate(broadcast.TypeBusUpdated, bus, actor)
	return &bus, outcome, nil
}

// Delete removes a bus. Bookings referencing it are soft references and are
// left untouched.
func (s *BusService) Delete(ctx context.Context, id string, actor string) error {
	bus, ok := s.buses.Get(ctx, id)
	if !ok {
		return domain.NotFoundError{Resource: "bus", ID: id}
	}

	s.buses.Delete(ctx, id)
	s.activities.Log(ctx, "bus_deleted", fmt.Sprintf("bus %s removed", bus.PlateNumber), actor, map[string]string{"busId": id})
	s.hub.TriggerUpdate(broadcast.TypeBusDeleted, bus, actor)
	return nil
}

// SeedDefaults inserts a small fixed fleet when the collection is empty.
// The guard is "collection is currently empty": if a default bus was
// manually deleted later, a reseed will re-add it alongside untouched data.
func (s *BusService) SeedDefaults(ctx context.Context) error {
	if len(s.buses.All(ctx)) > 0 {
		return nil
	}

	defaults := []CreateBusInput{
		{PlateNumber: "KN-101-BUS", Capacity: 40, Status: domain.BusAvailable},
		{PlateNumber: "KN-102-BUS", Capacity: 40, Status: domain.BusAvailable},
		{PlateNumber: "KN-103-BUS", Capacity: 30, Status: domain.BusMaintenance},
	}
	for _, input := range defaults {
		if _, _, err := s.Create(ctx, input, "system"); err != nil {
			return fmt.Errorf("failed to seed bus %s: %w", input.PlateNumber, err)
		}
	}
	s.logger.Info("default buses seeded", slog.Int("count", len(defaults)))
	return nil
}
