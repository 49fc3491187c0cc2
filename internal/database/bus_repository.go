package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

const busWithRouteSelect = `
	SELECT
		b.id, b.bus_number, b.bus_name, b.total_seats, b.seats_available, b.bus_type,
		b.price_per_seat, b.route_id, b.departure_time, b.arrival_time, b.departure_date,
		b.amenities, b.is_active, b.created_at, b.updated_at,
		r.id, r.route_name, r.source, r.destination, r.distance, r.duration,
		r.created_at, r.updated_at
	FROM buses b
	JOIN routes r ON r.id = b.route_id
`

// execer is satisfied by both the pool and an open transaction
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// BusRepository handles database operations for buses
type BusRepository struct {
	db DB
}

// NewBusRepository creates a new BusRepository
func NewBusRepository(db DB) *BusRepository {
	return &BusRepository{db: db}
}

func scanBusWithRoute(row rowScanner) (*models.Bus, error) {
	bus := &models.Bus{Route: &models.Route{}}
	err := row.Scan(
		&bus.ID, &bus.BusNumber, &bus.BusName, &bus.TotalSeats, &bus.SeatsAvailable, &bus.BusType,
		&bus.PricePerSeat, &bus.RouteID, &bus.DepartureTime, &bus.ArrivalTime, &bus.DepartureDate,
		&bus.Amenities, &bus.IsActive, &bus.CreatedAt, &bus.UpdatedAt,
		&bus.Route.ID, &bus.Route.RouteName, &bus.Route.Source, &bus.Route.Destination,
		&bus.Route.Distance, &bus.Route.Duration, &bus.Route.CreatedAt, &bus.Route.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return bus, nil
}

// Create inserts a bus. A taken bus_number yields ErrDuplicate.
func (r *BusRepository) Create(ctx context.Context, bus *models.Bus) error {
	if bus.ID == "" {
		bus.ID = uuid.NewString()
	}

	query := `
		INSERT INTO buses (
			id, bus_number, bus_name, total_seats, seats_available, bus_type,
			price_per_seat, route_id, departure_time, arrival_time, departure_date,
			amenities, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		bus.ID, bus.BusNumber, bus.BusName, bus.TotalSeats, bus.SeatsAvailable, bus.BusType,
		bus.PricePerSeat, bus.RouteID, bus.DepartureTime, bus.ArrivalTime, bus.DepartureDate,
		bus.Amenities, bus.IsActive,
	).Scan(&bus.CreatedAt, &bus.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bus: %w", translateError(err))
	}
	return nil
}

// GetByID retrieves a bus with its route expanded
func (r *BusRepository) GetByID(ctx context.Context, id string) (*models.Bus, error) {
	bus, err := scanBusWithRoute(r.db.QueryRowxContext(ctx, busWithRouteSelect+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, lookupError(err)
	}
	return bus, nil
}

// List returns buses matching the filter, earliest departure first
func (r *BusRepository) List(ctx context.Context, filter models.BusFilter) ([]models.Bus, error) {
	conditions := []string{}
	args := []interface{}{}

	if !filter.IncludeInactive {
		conditions = append(conditions, "b.is_active = TRUE")
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("r.source ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if filter.Destination != "" {
		args = append(args, filter.Destination)
		conditions = append(conditions, fmt.Sprintf("r.destination ILIKE '%%' || $%d || '%%'", len(args)))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("b.departure_date = $%d::date", len(args)))
	}
	if filter.BusType != "" {
		args = append(args, filter.BusType)
		conditions = append(conditions, fmt.Sprintf("b.bus_type = $%d", len(args)))
	}

	query := busWithRouteSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY b.departure_date ASC, b.departure_time ASC"

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}
	defer rows.Close()

	buses := []models.Bus{}
	for rows.Next() {
		bus, err := scanBusWithRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bus: %w", err)
		}
		buses = append(buses, *bus)
	}
	return buses, rows.Err()
}

// Update applies a partial update. The request must already be normalized;
// a total_seats change without an explicit seats_available resets the counter.
func (r *BusRepository) Update(ctx context.Context, id string, req *models.UpdateBusRequest) error {
	updates := []string{}
	args := []interface{}{}
	argCount := 1

	set := func(column string, value interface{}) {
		updates = append(updates, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, value)
		argCount++
	}

	if req.BusNumber != nil {
		set("bus_number", strings.TrimSpace(*req.BusNumber))
	}
	if req.BusName != nil {
		set("bus_name", *req.BusName)
	}
	if req.TotalSeats != nil {
		set("total_seats", *req.TotalSeats)
		if req.SeatsAvailable == nil {
			set("seats_available", *req.TotalSeats)
		}
	}
	if req.SeatsAvailable != nil {
		set("seats_available", *req.SeatsAvailable)
	}
	if req.BusType != nil {
		set("bus_type", *req.BusType)
	}
	if req.PricePerSeat != nil {
		set("price_per_seat", *req.PricePerSeat)
	}
	if req.RouteID != nil {
		set("route_id", *req.RouteID)
	}
	if req.DepartureTime != nil {
		set("departure_time", *req.DepartureTime)
	}
	if req.ArrivalTime != nil {
		set("arrival_time", *req.ArrivalTime)
	}
	if req.DepartureDate != nil {
		set("departure_date", *req.DepartureDate)
	}
	if req.Amenities != nil {
		set("amenities", models.StringArray(*req.Amenities))
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}

	if len(updates) == 0 {
		return nil
	}

	updates = append(updates, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE buses SET %s WHERE id = $%d", strings.Join(updates, ", "), argCount)

	result, err := r.db.ExecContext(ctx, query, args...)
	if isInvalidID(err) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update bus: %w", translateError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a bus. Buses with bookings are kept and yield ErrReferenced.
func (r *BusRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM buses WHERE id = $1`, id)
	if isInvalidID(err) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to delete bus: %w", translateError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DecrementSeats takes count seats from a bus outside of a booking
func (r *BusRepository) DecrementSeats(ctx context.Context, busID string, count int) error {
	return decrementSeats(ctx, r.db, busID, count)
}

// IncrementSeats returns count seats to a bus outside of a booking
func (r *BusRepository) IncrementSeats(ctx context.Context, busID string, count int) error {
	return incrementSeats(ctx, r.db, busID, count)
}

// decrementSeats is a single conditional statement: the row only changes
// when the bus is active and enough seats remain, so concurrent callers
// cannot oversell.
func decrementSeats(ctx context.Context, ex execer, busID string, count int) error {
	if count <= 0 {
		return fmt.Errorf("seat count must be positive, got %d", count)
	}

	result, err := ex.ExecContext(ctx, `
		UPDATE buses
		SET seats_available = seats_available - $1,
		    updated_at = NOW()
		WHERE id = $2 AND is_active = TRUE AND seats_available >= $1`,
		count, busID)
	if isInvalidID(err) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to decrement seats: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return decrementMissReason(ctx, ex, busID)
	}
	return nil
}

// decrementMissReason explains a decrement that matched no row
func decrementMissReason(ctx context.Context, ex execer, busID string) error {
	var isActive bool
	err := ex.QueryRowxContext(ctx, `SELECT is_active FROM buses WHERE id = $1`, busID).Scan(&isActive)
	switch {
	case err == sql.ErrNoRows:
		return err
	case err != nil:
		return fmt.Errorf("failed to read bus after decrement: %w", err)
	case !isActive:
		return ErrBusInactive
	}
	return ErrInsufficientSeats
}

// incrementSeats is the inverse of decrementSeats. The counter is clamped at
// total_seats so a release after an administrative capacity reset cannot
// break the seat range.
func incrementSeats(ctx context.Context, ex execer, busID string, count int) error {
	if count <= 0 {
		return fmt.Errorf("seat count must be positive, got %d", count)
	}

	result, err := ex.ExecContext(ctx, `
		UPDATE buses
		SET seats_available = LEAST(seats_available + $1, total_seats),
		    updated_at = NOW()
		WHERE id = $2`,
		count, busID)
	if isInvalidID(err) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to increment seats: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
