package models

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "Unpaid"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusRefunded PaymentStatus = "Refunded"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCompleted BookingStatus = "Completed"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// bookingTransitions is the single state machine shared by the passenger and admin paths.
// Confirmed -> Confirmed is allowed so repeated confirmation is a no-op.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// IsValid reports whether s is a known booking status
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is allowed
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// HoldsSeats reports whether a booking in this status still occupies inventory
func (s BookingStatus) HoldsSeats() bool {
	return s != BookingStatusCancelled
}

// ParseAdminBookingStatus maps the lowercase admin vocabulary
// (confirmed, cancelled, completed) onto the canonical statuses.
func ParseAdminBookingStatus(raw string) (BookingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "confirmed":
		return BookingStatusConfirmed, nil
	case "cancelled":
		return BookingStatusCancelled, nil
	case "completed":
		return BookingStatusCompleted, nil
	}
	return "", fmt.Errorf("invalid booking status: %q (must be confirmed, cancelled, or completed)", raw)
}

// Booking is a reservation of seats on a single bus
type Booking struct {
	ID            string        `json:"id" db:"id"`
	BookingID     string        `json:"booking_id" db:"booking_id"`
	UserID        string        `json:"user_id" db:"user_id"`
	BusID         string        `json:"bus_id" db:"bus_id"`
	RouteID       string        `json:"route_id" db:"route_id"`
	Passengers    int           `json:"passengers" db:"passengers"`
	SeatNumbers   StringArray   `json:"seat_numbers" db:"seat_numbers"`
	TotalPrice    float64       `json:"total_price" db:"total_price"`
	Status        BookingStatus `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	BookingDate   time.Time     `json:"booking_date" db:"booking_date"`
	TravelDate    time.Time     `json:"travel_date" db:"travel_date"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`

	Bus   *Bus   `json:"bus,omitempty" db:"-"`
	Route *Route `json:"route,omitempty" db:"-"`
}

// IsOwnedBy reports whether userID placed the booking
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.UserID == userID
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	BusID       string   `json:"bus_id"`
	Passengers  int      `json:"passengers"`
	SeatNumbers []string `json:"seat_numbers"`
}

// UpdateBookingStatusRequest is the admin status change payload
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// NewBooking carries everything the ledger needs to insert a reservation
type NewBooking struct {
	BookingID   string
	UserID      string
	BusID       string
	RouteID     string
	Passengers  int
	SeatNumbers []string
	TotalPrice  float64
	TravelDate  time.Time
}
