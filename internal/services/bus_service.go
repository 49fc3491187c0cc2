package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/database"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// BusStore is the persistence the bus inventory needs
type BusStore interface {
	Create(ctx context.Context, bus *models.Bus) error
	GetByID(ctx context.Context, id string) (*models.Bus, error)
	List(ctx context.Context, filter models.BusFilter) ([]models.Bus, error)
	Update(ctx context.Context, id string, req *models.UpdateBusRequest) error
	Delete(ctx context.Context, id string) error
	DecrementSeats(ctx context.Context, busID string, count int) error
	IncrementSeats(ctx context.Context, busID string, count int) error
}

// BusCache is an optional read-through cache for bus details. A miss returns
// the generation the caller must pass to SetBus, so a write racing an
// invalidation is dropped.
type BusCache interface {
	GetBus(ctx context.Context, busID string) (*models.Bus, int64, error)
	SetBus(ctx context.Context, bus *models.Bus, generation int64) error
	InvalidateBus(ctx context.Context, busID string) error
}

type noopBusCache struct{}

func (noopBusCache) GetBus(context.Context, string) (*models.Bus, int64, error) { return nil, 0, nil }
func (noopBusCache) SetBus(context.Context, *models.Bus, int64) error           { return nil }
func (noopBusCache) InvalidateBus(context.Context, string) error                { return nil }

// BusService owns the bus inventory and its seat counters
type BusService struct {
	buses  BusStore
	routes RouteStore
	cache  BusCache
	logger *logrus.Logger
	now    func() time.Time
}

// NewBusService creates a new BusService. A nil cache disables caching.
func NewBusService(buses BusStore, routes RouteStore, cache BusCache, logger *logrus.Logger) *BusService {
	if cache == nil {
		cache = noopBusCache{}
	}
	return &BusService{buses: buses, routes: routes, cache: cache, logger: logger, now: time.Now}
}

// CreateBus validates a new bus and stores it with a full seat counter
func (s *BusService) CreateBus(ctx context.Context, req *models.CreateBusRequest) (*models.Bus, error) {
	req.Normalize()

	switch {
	case req.BusNumber == "":
		return nil, newValidationError("bus_number", "is required")
	case req.TotalSeats == nil:
		return nil, newValidationError("total_seats", "is required")
	case req.BusType == "":
		return nil, newValidationError("bus_type", "is required")
	case req.PricePerSeat == nil:
		return nil, newValidationError("price_per_seat", "is required")
	case req.RouteID == "":
		return nil, newValidationError("route_id", "is required")
	}

	if err := validateBusType(req.BusType); err != nil {
		return nil, err
	}
	if err := validateTotalSeats(*req.TotalSeats); err != nil {
		return nil, err
	}
	if *req.PricePerSeat < 0 {
		return nil, newValidationError("price_per_seat", "must not be negative")
	}
	if err := validateClock("departure_time", req.DepartureTime); err != nil {
		return nil, err
	}
	if err := validateClock("arrival_time", req.ArrivalTime); err != nil {
		return nil, err
	}

	departureDate := truncateToDate(s.now())
	if req.DepartureDate != "" {
		parsed, err := time.Parse(dateLayout, req.DepartureDate)
		if err != nil {
			return nil, newValidationError("departure_date", "must be formatted YYYY-MM-DD")
		}
		departureDate = parsed
	}

	route, err := s.routes.GetByID(ctx, req.RouteID)
	if err == sql.ErrNoRows {
		return nil, newNotFoundError("route", req.RouteID)
	}
	if err != nil {
		return nil, err
	}

	bus := &models.Bus{
		BusNumber:      req.BusNumber,
		BusName:        req.BusName,
		TotalSeats:     *req.TotalSeats,
		SeatsAvailable: *req.TotalSeats,
		BusType:        models.BusType(req.BusType),
		PricePerSeat:   *req.PricePerSeat,
		RouteID:        route.ID,
		DepartureTime:  req.DepartureTime,
		ArrivalTime:    req.ArrivalTime,
		DepartureDate:  departureDate,
		Amenities:      models.StringArray(req.Amenities),
		IsActive:       true,
	}
	if err := s.buses.Create(ctx, bus); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, &ConflictError{Resource: "bus", Message: "bus with this number already exists"}
		}
		return nil, err
	}
	bus.Route = route

	s.logger.WithFields(logrus.Fields{
		"bus_id":      bus.ID,
		"bus_number":  bus.BusNumber,
		"total_seats": bus.TotalSeats,
	}).Info("Bus created")
	return bus, nil
}

// UpdateBus applies a partial update. Changing total_seats resets the
// counter unless seats_available is supplied in the same request.
func (s *BusService) UpdateBus(ctx context.Context, id string, req *models.UpdateBusRequest) (*models.Bus, error) {
	req.Normalize()

	current, err := s.buses.GetByID(ctx, id)
	if err == sql.ErrNoRows {
		return nil, newNotFoundError("bus", id)
	}
	if err != nil {
		return nil, err
	}

	if req.BusNumber != nil && strings.TrimSpace(*req.BusNumber) == "" {
		return nil, newValidationError("bus_number", "cannot be empty")
	}
	if req.BusType != nil {
		if err := validateBusType(*req.BusType); err != nil {
			return nil, err
		}
	}
	if req.TotalSeats != nil {
		if err := validateTotalSeats(*req.TotalSeats); err != nil {
			return nil, err
		}
	}
	if req.PricePerSeat != nil && *req.PricePerSeat < 0 {
		return nil, newValidationError("price_per_seat", "must not be negative")
	}
	if req.DepartureTime != nil {
		if err := validateClock("departure_time", *req.DepartureTime); err != nil {
			return nil, err
		}
	}
	if req.ArrivalTime != nil {
		if err := validateClock("arrival_time", *req.ArrivalTime); err != nil {
			return nil, err
		}
	}
	if req.DepartureDate != nil {
		if _, err := time.Parse(dateLayout, *req.DepartureDate); err != nil {
			return nil, newValidationError("departure_date", "must be formatted YYYY-MM-DD")
		}
	}
	if req.RouteID != nil {
		if _, err := s.routes.GetByID(ctx, *req.RouteID); err == sql.ErrNoRows {
			return nil, newNotFoundError("route", *req.RouteID)
		} else if err != nil {
			return nil, err
		}
	}

	total, seats := resultingInventory(current, req)
	if seats < 0 || seats > total {
		return nil, newValidationError("seats_available", fmt.Sprintf("must be between 0 and %d", total))
	}

	if err := s.buses.Update(ctx, id, req); err != nil {
		switch {
		case err == sql.ErrNoRows:
			return nil, newNotFoundError("bus", id)
		case errors.Is(err, database.ErrDuplicate):
			return nil, &ConflictError{Resource: "bus", Message: "bus with this number already exists"}
		case errors.Is(err, database.ErrInvalidInventory):
			return nil, newValidationError("seats_available", "must be between 0 and total_seats")
		}
		return nil, err
	}
	s.invalidate(ctx, id)

	updated, err := s.buses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"bus_id":          id,
		"total_seats":     updated.TotalSeats,
		"seats_available": updated.SeatsAvailable,
	}).Info("Bus updated")
	return updated, nil
}

// resultingInventory computes the counter pair an update would leave behind
func resultingInventory(current *models.Bus, req *models.UpdateBusRequest) (total, seats int) {
	total, seats = current.TotalSeats, current.SeatsAvailable
	if req.TotalSeats != nil {
		total = *req.TotalSeats
		seats = total
	}
	if req.SeatsAvailable != nil {
		seats = *req.SeatsAvailable
	}
	return total, seats
}

// DeleteBus removes a bus. Buses with bookings must be deactivated instead.
func (s *BusService) DeleteBus(ctx context.Context, id string) error {
	err := s.buses.Delete(ctx, id)
	switch {
	case err == sql.ErrNoRows:
		return newNotFoundError("bus", id)
	case errors.Is(err, database.ErrReferenced):
		return &ConflictError{Resource: "bus", Message: "bus has bookings; deactivate it instead of deleting"}
	case err != nil:
		return err
	}
	s.invalidate(ctx, id)

	s.logger.WithField("bus_id", id).Info("Bus deleted")
	return nil
}

// GetBus returns a bus with its route, reading through the cache
func (s *BusService) GetBus(ctx context.Context, id string) (*models.Bus, error) {
	cached, generation, cacheErr := s.cache.GetBus(ctx, id)
	if cacheErr != nil {
		s.logger.WithError(cacheErr).WithField("bus_id", id).Warn("Bus cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	bus, err := s.buses.GetByID(ctx, id)
	if err == sql.ErrNoRows {
		return nil, newNotFoundError("bus", id)
	}
	if err != nil {
		return nil, err
	}

	// without a generation the write cannot be guarded
	if cacheErr != nil {
		return bus, nil
	}
	if err := s.cache.SetBus(ctx, bus, generation); err != nil {
		s.logger.WithError(err).WithField("bus_id", id).Warn("Bus cache write failed")
	}
	return bus, nil
}

// ListBuses searches buses. Only active buses are returned unless the
// filter asks for inactive ones too.
func (s *BusService) ListBuses(ctx context.Context, filter models.BusFilter) ([]models.Bus, error) {
	filter.Source = strings.TrimSpace(filter.Source)
	filter.Destination = strings.TrimSpace(filter.Destination)
	if filter.Date != "" {
		if _, err := time.Parse(dateLayout, filter.Date); err != nil {
			return nil, newValidationError("date", "must be formatted YYYY-MM-DD")
		}
	}
	if filter.BusType != "" {
		if err := validateBusType(filter.BusType); err != nil {
			return nil, err
		}
	}
	return s.buses.List(ctx, filter)
}

// DecrementSeats takes count seats from busID
func (s *BusService) DecrementSeats(ctx context.Context, busID string, count int) error {
	if count <= 0 {
		return newValidationError("count", "must be at least 1")
	}
	err := s.buses.DecrementSeats(ctx, busID, count)
	switch {
	case errors.Is(err, database.ErrInsufficientSeats):
		return &CapacityError{Requested: count, Available: s.availableSeats(ctx, busID)}
	case errors.Is(err, database.ErrBusInactive):
		return newValidationError("bus_id", "bus is not accepting bookings")
	case err == sql.ErrNoRows:
		return newNotFoundError("bus", busID)
	case err != nil:
		return err
	}
	s.invalidate(ctx, busID)
	return nil
}

// IncrementSeats returns count seats to busID, never past total_seats
func (s *BusService) IncrementSeats(ctx context.Context, busID string, count int) error {
	if count <= 0 {
		return newValidationError("count", "must be at least 1")
	}
	if err := s.buses.IncrementSeats(ctx, busID, count); err != nil {
		if err == sql.ErrNoRows {
			return newNotFoundError("bus", busID)
		}
		return err
	}
	s.invalidate(ctx, busID)
	return nil
}

// availableSeats is a best-effort read used for error details
func (s *BusService) availableSeats(ctx context.Context, busID string) int {
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		return 0
	}
	return bus.SeatsAvailable
}

func (s *BusService) invalidate(ctx context.Context, busID string) {
	if err := s.cache.InvalidateBus(ctx, busID); err != nil {
		s.logger.WithError(err).WithField("bus_id", busID).Warn("Bus cache invalidation failed")
	}
}

func validateBusType(raw string) error {
	if !models.BusType(raw).IsValid() {
		return newValidationError("bus_type", "must be AC, Non-AC, Sleeper, Semi-Sleeper, or Luxury")
	}
	return nil
}

func validateTotalSeats(n int) error {
	if n < models.MinBusSeats || n > models.MaxBusSeats {
		return newValidationError("total_seats", fmt.Sprintf("must be between %d and %d", models.MinBusSeats, models.MaxBusSeats))
	}
	return nil
}

func validateClock(field, value string) error {
	if _, err := time.Parse(timeLayout, value); err != nil {
		return newValidationError(field, "must be formatted HH:MM")
	}
	return nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
