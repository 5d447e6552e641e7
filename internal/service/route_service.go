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

// RouteService owns creation and mutation of routes. Routes are never
// deleted; they are retired by setting status to inactive.
type RouteService struct {
	routes     *repository.Collection[domain.Route]
	activities *ActivityService
	hub        *broadcast.Hub
	logger     *slog.Logger
}

// NewRouteService creates the route service.
func NewRouteService(
	routes *repository.Collection[domain.Route],
	activities *ActivityService,
	hub *broadcast.Hub,
	logger *slog.Logger,
) *RouteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteService{
		routes:     routes,
		activities: activities,
		hub:        hub,
		logger:     logger,
	}
}

// CreateRouteInput carries the fields for a new route.
type CreateRouteInput struct {
	Name          string   `json:"name"`
	StartPoint    string   `json:"startPoint"`
	EndPoint      string   `json:"endPoint"`
	EstimatedTime string   `json:"estimatedTime"`
	Distance      string   `json:"distance"`
	Stops         []string `json:"stops"`
}

// UpdateRouteInput carries a partial update; nil fields are left untouched.
type UpdateRouteInput struct {
	Name          *string             `json:"name"`
	StartPoint    *string             `json:"startPoint"`
	EndPoint      *string             `json:"endPoint"`
	EstimatedTime *string             `json:"estimatedTime"`
	Distance      *string             `json:"distance"`
	Status        *domain.RouteStatus `json:"status"`
	Stops         *[]string           `json:"stops"`
}

// Create validates and persists a new route.
func (s *RouteService) Create(ctx context.Context, input CreateRouteInput, actor string) (*domain.Route, repository.WriteOutcome, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, "", domain.ValidationError{Field: "name", Msg: "required"}
	}
	if strings.TrimSpace(input.StartPoint) == "" || strings.TrimSpace(input.EndPoint) == "" {
		return nil, "", domain.ValidationError{Field: "startPoint/endPoint", Msg: "required"}
	}

	now := domain.NowISO()
	route := domain.Route{
		ID:            domain.NewID("route"),
		Name:          strings.TrimSpace(input.Name),
		StartPoint:    strings.TrimSpace(input.StartPoint),
		EndPoint:      strings.TrimSpace(input.EndPoint),
		EstimatedTime: input.EstimatedTime,
		Distance:      input.Distance,
		Status:        domain.RouteActive,
		Stops:         input.Stops,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	outcome, err := s.routes.Save(ctx, route)
	if err != nil {
		return nil, "", err
	}

	s.activities.Log(ctx, "route_created", fmt.Sprintf("route %s added", route.Name), actor, map[string]string{"routeId": route.ID})
	s.hub.TriggerUpdate(broadcast.TypeRouteCreated, route, actor)
	return &route, outcome, nil
}

// GetAll returns every route, oldest first.
func (s *RouteService) GetAll(ctx context.Context) []domain.Route {
	routes := s.routes.All(ctx)
	sort.Slice(routes, func(i, j int) bool { return routes[i].CreatedAt < routes[j].CreatedAt })
	return routes
}

// Update merges a partial update onto the stored snapshot.
func (s *RouteService) Update(ctx context.Context, id string, input UpdateRouteInput, actor string) (*domain.Route, repository.WriteOutcome, error) {
	route, ok := s.routes.Get(ctx, id)
	if !ok {
		return nil, "", domain.NotFoundError{Resource: "route", ID: id}
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, "", domain.ValidationError{Field: "name", Msg: "required"}
		}
		route.Name = strings.TrimSpace(*input.Name)
	}
	if input.StartPoint != nil {
		route.StartPoint = strings.TrimSpace(*input.StartPoint)
	}
	if input.EndPoint != nil {
		route.EndPoint = strings.TrimSpace(*input.EndPoint)
	}
	if input.EstimatedTime != nil {
		route.EstimatedTime = *input.EstimatedTime
	}
	if input.Distance != nil {
		route.Distance = *input.Distance
	}
	if input.Status != nil {
		route.Status = *input.Status
	}
	if input.Stops != nil {
		route.Stops = *input.Stops
	}
	route.UpdatedAt = domain.NowISO()

	outcome, err := s.routes.Save(ctx, route)
	if err != nil {
		return nil, "", err
	}

	s.activities.Log(ctx, "route_updated", fmt.Sprintf("route %s updated", route.Name), actor, map[string]string{"routeId": route.ID})
	s.hub.TriggerUpdate(broadcast.TypeRouteUpdated, route, actor)
	return &route, outcome, nil
}

// SeedDefaults inserts a small fixed route set when the collection is empty.
func (s *RouteService) SeedDefaults(ctx context.Context) error {
	if len(s.routes.All(ctx)) > 0 {
		return nil
	}

	defaults := []CreateRouteInput{
		{
			Name:          "Main Gate - Faculty Complex",
			StartPoint:    "Main Gate",
			EndPoint:      "Faculty Complex",
			EstimatedTime: "15 mins",
			Distance:      "4.2 km",
			Stops:         []string{"Main Gate", "Admin Block", "Library", "Faculty Complex"},
		},
		{
			Name:          "Hostel Loop",
			StartPoint:    "Male Hostel",
			EndPoint:      "Female Hostel",
			EstimatedTime: "20 mins",
			Distance:      "6.0 km",
			Stops:         []string{"Male Hostel", "Cafeteria", "Sports Complex", "Female Hostel"},
		},
	}
	for _, input := range defaults {
		if _, _, err := s.Create(ctx, input, "system"); err != nil {
			return fmt.Errorf("failed to seed route %s: %w", input.Name, err)
		}
	}
	s.logger.Info("default routes seeded", slog.Int("count", len(defaults)))
	return nil
}
