package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/database"
	"github.com/smarttransit/bus-booking-backend/internal/events"
	"github.com/smarttransit/bus-booking-backend/internal/models"
	"github.com/smarttransit/bus-booking-backend/pkg/validator"
)

// maxBookingIDAttempts bounds retries when a generated booking id collides
const maxBookingIDAttempts = 3

// BookingStore is the booking ledger. Create and cancel must update the bus
// seat counter in the same transaction as the booking row.
type BookingStore interface {
	CreateWithSeatReservation(ctx context.Context, nb *models.NewBooking) (*models.Booking, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	ListAll(ctx context.Context) ([]models.Booking, error)
	CancelWithSeatRelease(ctx context.Context, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error)
}

// BusReader loads a bus with its route expanded
type BusReader interface {
	GetByID(ctx context.Context, id string) (*models.Bus, error)
}

// BookingIDGenerator produces unique external booking ids
type BookingIDGenerator interface {
	NewBookingID() (string, error)
}

// UserProvisioner creates the directory row for a verified identity
type UserProvisioner interface {
	EnsureExists(ctx context.Context, userID string) error
}

type noopUserProvisioner struct{}

func (noopUserProvisioner) EnsureExists(context.Context, string) error { return nil }

// EventPublisher receives committed lifecycle changes
type EventPublisher interface {
	Publish(ctx context.Context, event events.BookingEvent) error
}

// BookingService coordinates booking status transitions with bus seat counters
type BookingService struct {
	bookings BookingStore
	buses    BusReader
	ids      BookingIDGenerator
	users    UserProvisioner
	cache    BusCache
	events   EventPublisher
	seats    *validator.SeatValidator
	logger   *logrus.Logger
}

// BookingOption configures optional collaborators
type BookingOption func(*BookingService)

// WithBusCache invalidates cached bus details after seat changes
func WithBusCache(cache BusCache) BookingOption {
	return func(s *BookingService) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithUserProvisioner creates missing directory rows for booking owners
func WithUserProvisioner(p UserProvisioner) BookingOption {
	return func(s *BookingService) {
		if p != nil {
			s.users = p
		}
	}
}

// WithEventPublisher publishes lifecycle events after each commit
func WithEventPublisher(p EventPublisher) BookingOption {
	return func(s *BookingService) {
		if p != nil {
			s.events = p
		}
	}
}

// NewBookingService creates a new BookingService
func NewBookingService(bookings BookingStore, buses BusReader, ids BookingIDGenerator, logger *logrus.Logger, opts ...BookingOption) *BookingService {
	s := &BookingService{
		bookings: bookings,
		buses:    buses,
		ids:      ids,
		users:    noopUserProvisioner{},
		cache:    noopBusCache{},
		events:   events.NoopPublisher{},
		seats:    validator.NewSeatValidator(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking reserves seats on a bus for userID.
// The seat decrement and the booking insert commit together or not at all.
func (s *BookingService) CreateBooking(ctx context.Context, userID string, req *models.CreateBookingRequest) (*models.Booking, error) {
	// 1. Presence
	switch {
	case req.BusID == "":
		return nil, newValidationError("bus_id", "is required")
	case req.Passengers == 0:
		return nil, newValidationError("passengers", "is required")
	case req.Passengers < 0:
		return nil, newValidationError("passengers", "must be at least 1")
	case len(req.SeatNumbers) == 0:
		return nil, newValidationError("seat_numbers", "is required")
	}

	seatNumbers, err := s.seats.Validate(req.SeatNumbers)
	if err != nil {
		return nil, newValidationError("seat_numbers", err.Error())
	}

	// 2. Bus lookup
	bus, err := s.buses.GetByID(ctx, req.BusID)
	if err == sql.ErrNoRows {
		return nil, newNotFoundError("bus", req.BusID)
	}
	if err != nil {
		return nil, err
	}
	if !bus.IsActive {
		return nil, newValidationError("bus_id", "bus is not accepting bookings")
	}

	// 3. Capacity
	if len(seatNumbers) != req.Passengers || !bus.HasCapacityFor(req.Passengers) {
		return nil, &CapacityError{Requested: req.Passengers, Available: bus.SeatsAvailable}
	}

	// 4. Owner
	if err := s.users.EnsureExists(ctx, userID); err != nil {
		if errors.Is(err, database.ErrInvalidID) {
			return nil, newValidationError("user_id", "is not a valid user id")
		}
		return nil, err
	}

	// 5. Price snapshot
	nb := &models.NewBooking{
		UserID:      userID,
		BusID:       bus.ID,
		RouteID:     bus.RouteID,
		Passengers:  req.Passengers,
		SeatNumbers: seatNumbers,
		TotalPrice:  float64(req.Passengers) * bus.PricePerSeat,
		TravelDate:  bus.DepartureDate,
	}

	// 6 + 7. Insert and decrement atomically
	booking, err := s.reserve(ctx, nb)
	switch {
	case errors.Is(err, database.ErrInsufficientSeats):
		return nil, &CapacityError{Requested: req.Passengers, Available: s.availableSeats(ctx, bus.ID)}
	case errors.Is(err, database.ErrBusInactive):
		return nil, newValidationError("bus_id", "bus is not accepting bookings")
	case errors.Is(err, sql.ErrNoRows):
		return nil, newNotFoundError("bus", req.BusID)
	case errors.Is(err, database.ErrReferenced):
		return nil, newNotFoundError("user", userID)
	case errors.Is(err, database.ErrInvalidID):
		return nil, newValidationError("user_id", "is not a valid user id")
	case err != nil:
		return nil, err
	}

	booking.Route = bus.Route
	booking.Bus = bus
	if fresh, err := s.buses.GetByID(ctx, bus.ID); err == nil {
		booking.Bus = fresh
	}

	s.afterCommit(ctx, events.TypeBookingCreated, booking)
	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.BookingID,
		"user_id":     userID,
		"bus_id":      bus.ID,
		"passengers":  booking.Passengers,
		"total_price": booking.TotalPrice,
	}).Info("Booking created")
	return booking, nil
}

// reserve retries on the rare booking id collision
func (s *BookingService) reserve(ctx context.Context, nb *models.NewBooking) (*models.Booking, error) {
	var lastErr error
	for attempt := 0; attempt < maxBookingIDAttempts; attempt++ {
		id, err := s.ids.NewBookingID()
		if err != nil {
			return nil, err
		}
		nb.BookingID = id

		booking, err := s.bookings.CreateWithSeatReservation(ctx, nb)
		if !errors.Is(err, database.ErrDuplicate) {
			return booking, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// CancelBooking cancels a booking on behalf of its owner or an admin and
// releases its seats. Cancelling twice is a StateError.
func (s *BookingService) CancelBooking(ctx context.Context, requesterID string, role models.UserRole, bookingID string) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.IsOwnedBy(requesterID) && role != models.RoleAdmin {
		return nil, &AuthorizationError{Action: "cancel this booking"}
	}

	if booking.Status == models.BookingStatusCancelled {
		return nil, &StateError{From: booking.Status, To: models.BookingStatusCancelled, Message: "booking is already cancelled"}
	}
	if !booking.Status.CanTransitionTo(models.BookingStatusCancelled) {
		return nil, &StateError{From: booking.Status, To: models.BookingStatusCancelled}
	}

	cancelled, err := s.bookings.CancelWithSeatRelease(ctx, booking.ID)
	if errors.Is(err, database.ErrBookingAlreadyCancelled) {
		return nil, s.lostCancelRace(ctx, booking)
	}
	if err != nil {
		return nil, err
	}
	cancelled.Bus, cancelled.Route = booking.Bus, booking.Route

	s.afterCommit(ctx, events.TypeBookingCancelled, cancelled)
	s.logger.WithFields(logrus.Fields{
		"booking_id":   cancelled.BookingID,
		"requested_by": requesterID,
		"role":         role,
		"seats_freed":  cancelled.Passengers,
	}).Info("Booking cancelled")
	return cancelled, nil
}

// lostCancelRace reports the status that won against a concurrent cancel
func (s *BookingService) lostCancelRace(ctx context.Context, booking *models.Booking) error {
	current, err := s.bookings.GetByID(ctx, booking.ID)
	if err != nil {
		return &StateError{From: booking.Status, To: models.BookingStatusCancelled, Message: "booking status changed, reload and retry"}
	}
	if current.Status == models.BookingStatusCancelled {
		return &StateError{From: current.Status, To: models.BookingStatusCancelled, Message: "booking is already cancelled"}
	}
	return &StateError{From: current.Status, To: models.BookingStatusCancelled}
}

// ConfirmBooking moves a pending booking to Confirmed. Confirming an
// already confirmed booking returns it unchanged.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusConfirmed {
		return booking, nil
	}
	return s.transition(ctx, booking, models.BookingStatusConfirmed, events.TypeBookingConfirmed)
}

// CompleteBooking marks a confirmed booking as travelled
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, booking, models.BookingStatusCompleted, events.TypeBookingCompleted)
}

// UpdateBookingStatus is the admin entry point. It accepts the lowercase
// vocabulary and routes each value through the same transitions users hit,
// so an admin cancellation releases seats exactly like a user one.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, adminID, bookingID, status string) (*models.Booking, error) {
	target, err := models.ParseAdminBookingStatus(status)
	if err != nil {
		return nil, newValidationError("status", err.Error())
	}

	switch target {
	case models.BookingStatusConfirmed:
		return s.ConfirmBooking(ctx, bookingID)
	case models.BookingStatusCancelled:
		return s.CancelBooking(ctx, adminID, models.RoleAdmin, bookingID)
	default:
		return s.CompleteBooking(ctx, bookingID)
	}
}

// GetBooking returns a booking visible to its owner or an admin
func (s *BookingService) GetBooking(ctx context.Context, requesterID string, role models.UserRole, bookingID string) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(requesterID) && role != models.RoleAdmin {
		return nil, &AuthorizationError{Action: "view this booking"}
	}
	return booking, nil
}

// ListUserBookings returns userID's bookings, newest first
func (s *BookingService) ListUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// ListAllBookings returns every booking, newest first
func (s *BookingService) ListAllBookings(ctx context.Context) ([]models.Booking, error) {
	return s.bookings.ListAll(ctx)
}

func (s *BookingService) loadBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err == sql.ErrNoRows {
		return nil, newNotFoundError("booking", bookingID)
	}
	return booking, err
}

// transition applies a seat-neutral status change guarded on the current status
func (s *BookingService) transition(ctx context.Context, booking *models.Booking, to models.BookingStatus, eventType string) (*models.Booking, error) {
	if !booking.Status.CanTransitionTo(to) {
		return nil, &StateError{From: booking.Status, To: to}
	}

	updated, err := s.bookings.UpdateStatus(ctx, booking.ID, []models.BookingStatus{booking.Status}, to)
	if errors.Is(err, database.ErrStatusChanged) {
		return nil, &StateError{From: booking.Status, To: to, Message: "booking status changed, reload and retry"}
	}
	if err != nil {
		return nil, err
	}
	updated.Bus, updated.Route = booking.Bus, booking.Route

	s.afterCommit(ctx, eventType, updated)
	s.logger.WithFields(logrus.Fields{
		"booking_id": updated.BookingID,
		"from":       booking.Status,
		"to":         to,
	}).Info("Booking status changed")
	return updated, nil
}

// afterCommit runs best-effort side effects. Failures are logged and never
// surface to the caller because the ledger write already committed.
func (s *BookingService) afterCommit(ctx context.Context, eventType string, booking *models.Booking) {
	if eventType == events.TypeBookingCreated || eventType == events.TypeBookingCancelled {
		if err := s.cache.InvalidateBus(ctx, booking.BusID); err != nil {
			s.logger.WithError(err).WithField("bus_id", booking.BusID).Warn("Bus cache invalidation failed")
		}
	}
	if err := s.events.Publish(ctx, events.NewBookingEvent(eventType, booking)); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.BookingID,
			"event":      eventType,
		}).Warn("Failed to publish booking event")
	}
}

func (s *BookingService) availableSeats(ctx context.Context, busID string) int {
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		return 0
	}
	return bus.SeatsAvailable
}
