package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// ErrStatusChanged is returned when a guarded status update lost a race
var ErrStatusChanged = errors.New("booking status changed concurrently")

const bookingColumns = `id, booking_id, user_id, bus_id, route_id, passengers, seat_numbers,
	total_price, status, payment_status, booking_date, travel_date, updated_at`

const bookingDetailSelect = `
	SELECT
		bk.id, bk.booking_id, bk.user_id, bk.bus_id, bk.route_id, bk.passengers, bk.seat_numbers,
		bk.total_price, bk.status, bk.payment_status, bk.booking_date, bk.travel_date, bk.updated_at,
		b.id, b.bus_number, b.bus_name, b.total_seats, b.seats_available, b.bus_type,
		b.price_per_seat, b.route_id, b.departure_time, b.arrival_time, b.departure_date,
		b.amenities, b.is_active, b.created_at, b.updated_at,
		r.id, r.route_name, r.source, r.destination, r.distance, r.duration,
		r.created_at, r.updated_at
	FROM bookings bk
	JOIN buses b ON b.id = bk.bus_id
	JOIN routes r ON r.id = bk.route_id
`

// BookingRepository is the booking ledger. Every write that changes seat
// ownership runs in the same transaction as the matching bus counter update.
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBookingDetail(row rowScanner) (*models.Booking, error) {
	bk := &models.Booking{Bus: &models.Bus{}, Route: &models.Route{}}
	err := row.Scan(
		&bk.ID, &bk.BookingID, &bk.UserID, &bk.BusID, &bk.RouteID, &bk.Passengers, &bk.SeatNumbers,
		&bk.TotalPrice, &bk.Status, &bk.PaymentStatus, &bk.BookingDate, &bk.TravelDate, &bk.UpdatedAt,
		&bk.Bus.ID, &bk.Bus.BusNumber, &bk.Bus.BusName, &bk.Bus.TotalSeats, &bk.Bus.SeatsAvailable, &bk.Bus.BusType,
		&bk.Bus.PricePerSeat, &bk.Bus.RouteID, &bk.Bus.DepartureTime, &bk.Bus.ArrivalTime, &bk.Bus.DepartureDate,
		&bk.Bus.Amenities, &bk.Bus.IsActive, &bk.Bus.CreatedAt, &bk.Bus.UpdatedAt,
		&bk.Route.ID, &bk.Route.RouteName, &bk.Route.Source, &bk.Route.Destination,
		&bk.Route.Distance, &bk.Route.Duration, &bk.Route.CreatedAt, &bk.Route.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bk, nil
}

// CreateWithSeatReservation decrements the bus counter and inserts the booking
// in one transaction. ErrInsufficientSeats means nothing was written.
func (r *BookingRepository) CreateWithSeatReservation(ctx context.Context, nb *models.NewBooking) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Reserve seats
	if err := decrementSeats(ctx, tx, nb.BusID, nb.Passengers); err != nil {
		return nil, err
	}

	// 2. Insert booking
	query := `
		INSERT INTO bookings (
			id, booking_id, user_id, bus_id, route_id, passengers, seat_numbers,
			total_price, status, payment_status, travel_date
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING ` + bookingColumns

	booking := &models.Booking{}
	err = tx.QueryRowxContext(ctx, query,
		uuid.NewString(), nb.BookingID, nb.UserID, nb.BusID, nb.RouteID, nb.Passengers,
		pq.Array(nb.SeatNumbers), nb.TotalPrice,
		models.BookingStatusPending, models.PaymentStatusUnpaid, nb.TravelDate,
	).StructScan(booking)
	if err != nil {
		return nil, fmt.Errorf("failed to insert booking: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	return booking, nil
}

// GetByID retrieves a booking by its row id or its external booking_id
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return scanBookingDetail(r.db.QueryRowxContext(ctx,
		bookingDetailSelect+` WHERE bk.id::text = $1 OR bk.booking_id = $1`, id))
}

// ListByUser returns a user's bookings, newest first
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return r.list(ctx, bookingDetailSelect+` WHERE bk.user_id = $1 ORDER BY bk.booking_date DESC`, userID)
}

// ListAll returns every booking, newest first
func (r *BookingRepository) ListAll(ctx context.Context) ([]models.Booking, error) {
	return r.list(ctx, bookingDetailSelect+` ORDER BY bk.booking_date DESC`)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		bk, err := scanBookingDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *bk)
	}
	return bookings, rows.Err()
}

// CancelWithSeatRelease marks a booking Cancelled/Refunded and returns its
// seats to the bus in one transaction. The status guard makes a second
// cancel fail with ErrBookingAlreadyCancelled instead of releasing twice.
func (r *BookingRepository) CancelWithSeatRelease(ctx context.Context, id string) (*models.Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Flip status
	booking := &models.Booking{}
	err = tx.QueryRowxContext(ctx, `
		UPDATE bookings
		SET status = $2,
		    payment_status = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status NOT IN ($2, $4)
		RETURNING `+bookingColumns,
		id, models.BookingStatusCancelled, models.PaymentStatusRefunded, models.BookingStatusCompleted,
	).StructScan(booking)
	if err == sql.ErrNoRows {
		return nil, ErrBookingAlreadyCancelled
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	// 2. Release seats
	if err := incrementSeats(ctx, tx, booking.BusID, booking.Passengers); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return booking, nil
}

// UpdateStatus moves a booking to status only if it is currently in one of from
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	booking := &models.Booking{}
	err := r.db.GetContext(ctx, booking, `
		UPDATE bookings
		SET status = $2,
		    updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING `+bookingColumns,
		id, to, pq.Array(allowed),
	)
	if err == sql.ErrNoRows {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return booking, nil
}
