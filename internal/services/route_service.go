package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/database"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// RouteStore is the persistence the route catalog needs
type RouteStore interface {
	Create(ctx context.Context, route *models.Route) error
	GetByID(ctx context.Context, id string) (*models.Route, error)
	List(ctx context.Context, filter models.RouteFilter) ([]models.Route, error)
	Update(ctx context.Context, id string, req *models.UpdateRouteRequest) (*models.Route, error)
	Delete(ctx context.Context, id string) error
}

// RouteService manages the route catalog
type RouteService struct {
	routes RouteStore
	logger *logrus.Logger
}

// NewRouteService creates a new RouteService
func NewRouteService(routes RouteStore, logger *logrus.Logger) *RouteService {
	return &RouteService{routes: routes, logger: logger}
}

// CreateRoute validates and stores a route, deriving its name when omitted
func (s *RouteService) CreateRoute(ctx context.Context, req *models.CreateRouteRequest) (*models.Route, error) {
	source := strings.TrimSpace(req.Source)
	destination := strings.TrimSpace(req.Destination)
	duration := req.ResolvedDuration()

	switch {
	case source == "":
		return nil, newValidationError("source", "is required")
	case destination == "":
		return nil, newValidationError("destination", "is required")
	case req.Distance == nil:
		return nil, newValidationError("distance", "is required")
	case *req.Distance <= 0:
		return nil, newValidationError("distance", "must be greater than 0")
	case duration == nil:
		return nil, newValidationError("duration", "is required")
	case *duration <= 0:
		return nil, newValidationError("duration", "must be greater than 0")
	}

	name := strings.TrimSpace(req.RouteName)
	if name == "" {
		name = models.DeriveRouteName(source, destination)
	}

	route := &models.Route{
		RouteName:   name,
		Source:      source,
		Destination: destination,
		Distance:    *req.Distance,
		Duration:    *duration,
	}
	if err := s.routes.Create(ctx, route); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"route_id": route.ID, "route_name": route.RouteName}).Info("Route created")
	return route, nil
}

// GetRoute returns a single route
func (s *RouteService) GetRoute(ctx context.Context, id string) (*models.Route, error) {
	route, err := s.routes.GetByID(ctx, id)
	if err == sql.ErrNoRows {
		return nil, newNotFoundError("route", id)
	}
	return route, err
}

// ListRoutes returns routes matching the filter
func (s *RouteService) ListRoutes(ctx context.Context, filter models.RouteFilter) ([]models.Route, error) {
	filter.Source = strings.TrimSpace(filter.Source)
	filter.Destination = strings.TrimSpace(filter.Destination)
	return s.routes.List(ctx, filter)
}

// UpdateRoute applies a partial update
func (s *RouteService) UpdateRoute(ctx context.Context, id string, req *models.UpdateRouteRequest) (*models.Route, error) {
	if req.Source != nil && strings.TrimSpace(*req.Source) == "" {
		return nil, newValidationError("source", "cannot be empty")
	}
	if req.Destination != nil && strings.TrimSpace(*req.Destination) == "" {
		return nil, newValidationError("destination", "cannot be empty")
	}
	if req.Distance != nil && *req.Distance <= 0 {
		return nil, newValidationError("distance", "must be greater than 0")
	}
	if req.Duration != nil && *req.Duration <= 0 {
		return nil, newValidationError("duration", "must be greater than 0")
	}

	route, err := s.routes.Update(ctx, id, req)
	if err == sql.ErrNoRows {
		return nil, newNotFoundError("route", id)
	}
	return route, err
}

// DeleteRoute removes a route that no bus references
func (s *RouteService) DeleteRoute(ctx context.Context, id string) error {
	err := s.routes.Delete(ctx, id)
	switch {
	case err == sql.ErrNoRows:
		return newNotFoundError("route", id)
	case errors.Is(err, database.ErrReferenced):
		return &ConflictError{Resource: "route", Message: "route is still used by one or more buses"}
	case err != nil:
		return err
	}

	s.logger.WithField("route_id", id).Info("Route deleted")
	return nil
}
