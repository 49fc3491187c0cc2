package models

import (
	"strings"
	"time"
)

// BusType represents the category of bus
type BusType string

const (
	BusTypeAC          BusType = "AC"
	BusTypeNonAC       BusType = "Non-AC"
	BusTypeSleeper     BusType = "Sleeper"
	BusTypeSemiSleeper BusType = "Semi-Sleeper"
	BusTypeLuxury      BusType = "Luxury"
)

// Seat capacity bounds for a single bus
const (
	MinBusSeats = 1
	MaxBusSeats = 100
)

// Schedule defaults applied when a bus is created without them
const (
	DefaultDepartureTime = "08:00"
	DefaultArrivalTime   = "14:00"
)

// IsValid reports whether t is one of the known bus types
func (t BusType) IsValid() bool {
	switch t {
	case BusTypeAC, BusTypeNonAC, BusTypeSleeper, BusTypeSemiSleeper, BusTypeLuxury:
		return true
	}
	return false
}

// Bus is a scheduled departure with its own seat inventory
type Bus struct {
	ID             string      `json:"id" db:"id"`
	BusNumber      string      `json:"bus_number" db:"bus_number"`
	BusName        string      `json:"bus_name" db:"bus_name"`
	TotalSeats     int         `json:"total_seats" db:"total_seats"`
	SeatsAvailable int         `json:"seats_available" db:"seats_available"`
	BusType        BusType     `json:"bus_type" db:"bus_type"`
	PricePerSeat   float64     `json:"price_per_seat" db:"price_per_seat"`
	RouteID        string      `json:"route_id" db:"route_id"`
	DepartureTime  string      `json:"departure_time" db:"departure_time"`
	ArrivalTime    string      `json:"arrival_time" db:"arrival_time"`
	DepartureDate  time.Time   `json:"departure_date" db:"departure_date"`
	Amenities      StringArray `json:"amenities" db:"amenities"`
	IsActive       bool        `json:"is_active" db:"is_active"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`

	Route *Route `json:"route,omitempty" db:"-"`
}

// HasCapacityFor reports whether n more seats can be sold
func (b *Bus) HasCapacityFor(n int) bool {
	return n > 0 && n <= b.SeatsAvailable
}

// CreateBusRequest represents the request to create a new bus.
// Alias fields are accepted for compatibility with older clients.
type CreateBusRequest struct {
	BusNumber     string   `json:"bus_number"`
	BusName       string   `json:"bus_name"`
	TotalSeats    *int     `json:"total_seats"`
	Capacity      *int     `json:"capacity"`
	BusType       string   `json:"bus_type"`
	PricePerSeat  *float64 `json:"price_per_seat"`
	Price         *float64 `json:"price"`
	RouteID       string   `json:"route_id"`
	Route         string   `json:"route"`
	DepartureTime string   `json:"departure_time"`
	ArrivalTime   string   `json:"arrival_time"`
	DepartureDate string   `json:"departure_date"` // Format: YYYY-MM-DD
	Amenities     []string `json:"amenities"`
}

// Normalize folds alias fields into their canonical counterparts
func (r *CreateBusRequest) Normalize() {
	r.BusNumber = strings.TrimSpace(r.BusNumber)
	r.BusName = strings.TrimSpace(r.BusName)
	if r.BusNumber == "" {
		r.BusNumber = r.BusName
	}
	if r.BusName == "" {
		r.BusName = r.BusNumber
	}
	if r.TotalSeats == nil {
		r.TotalSeats = r.Capacity
	}
	if r.PricePerSeat == nil {
		r.PricePerSeat = r.Price
	}
	if r.RouteID == "" {
		r.RouteID = strings.TrimSpace(r.Route)
	}
	if r.DepartureTime == "" {
		r.DepartureTime = DefaultDepartureTime
	}
	if r.ArrivalTime == "" {
		r.ArrivalTime = DefaultArrivalTime
	}
	if r.Amenities == nil {
		r.Amenities = []string{}
	}
}

// UpdateBusRequest represents a partial bus update
type UpdateBusRequest struct {
	BusNumber      *string   `json:"bus_number,omitempty"`
	BusName        *string   `json:"bus_name,omitempty"`
	TotalSeats     *int      `json:"total_seats,omitempty"`
	Capacity       *int      `json:"capacity,omitempty"`
	SeatsAvailable *int      `json:"seats_available,omitempty"`
	BusType        *string   `json:"bus_type,omitempty"`
	PricePerSeat   *float64  `json:"price_per_seat,omitempty"`
	Price          *float64  `json:"price,omitempty"`
	RouteID        *string   `json:"route_id,omitempty"`
	DepartureTime  *string   `json:"departure_time,omitempty"`
	ArrivalTime    *string   `json:"arrival_time,omitempty"`
	DepartureDate  *string   `json:"departure_date,omitempty"` // Format: YYYY-MM-DD
	Amenities      *[]string `json:"amenities,omitempty"`
	IsActive       *bool     `json:"is_active,omitempty"`
}

// Normalize folds alias fields into their canonical counterparts
func (r *UpdateBusRequest) Normalize() {
	if r.TotalSeats == nil {
		r.TotalSeats = r.Capacity
	}
	if r.PricePerSeat == nil {
		r.PricePerSeat = r.Price
	}
}

// IsEmpty reports whether the update carries no fields
func (r *UpdateBusRequest) IsEmpty() bool {
	return r.BusNumber == nil && r.BusName == nil && r.TotalSeats == nil &&
		r.SeatsAvailable == nil && r.BusType == nil && r.PricePerSeat == nil &&
		r.RouteID == nil && r.DepartureTime == nil && r.ArrivalTime == nil &&
		r.DepartureDate == nil && r.Amenities == nil && r.IsActive == nil
}

// BusFilter narrows bus listings
type BusFilter struct {
	Source          string `form:"source"`
	Destination     string `form:"destination"`
	Date            string `form:"date"` // Format: YYYY-MM-DD
	BusType         string `form:"bus_type"`
	IncludeInactive bool   `form:"-"`
}
