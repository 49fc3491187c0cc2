package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

const routeColumns = `id, route_name, source, destination, distance, duration, created_at, updated_at`

// RouteRepository handles database operations for routes
type RouteRepository struct {
	db DB
}

// NewRouteRepository creates a new RouteRepository
func NewRouteRepository(db DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// Create inserts a route and fills its generated fields
func (r *RouteRepository) Create(ctx context.Context, route *models.Route) error {
	if route.ID == "" {
		route.ID = uuid.NewString()
	}

	query := `
		INSERT INTO routes (id, route_name, source, destination, distance, duration)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		route.ID, route.RouteName, route.Source, route.Destination, route.Distance, route.Duration,
	).Scan(&route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", translateError(err))
	}
	return nil
}

// GetByID retrieves a route by ID
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`

	route := &models.Route{}
	if err := r.db.GetContext(ctx, route, query, id); err != nil {
		return nil, lookupError(err)
	}
	return route, nil
}

// List returns routes matching the filter, oldest first.
// Source and destination match case-insensitively on substrings.
func (r *RouteRepository) List(ctx context.Context, filter models.RouteFilter) ([]models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE 1=1`
	args := []interface{}{}

	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND source ILIKE '%%' || $%d || '%%'", len(args))
	}
	if filter.Destination != "" {
		args = append(args, filter.Destination)
		query += fmt.Sprintf(" AND destination ILIKE '%%' || $%d || '%%'", len(args))
	}
	query += " ORDER BY created_at ASC"

	routes := []models.Route{}
	if err := r.db.SelectContext(ctx, &routes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// Update applies a partial update and returns the stored row
func (r *RouteRepository) Update(ctx context.Context, id string, req *models.UpdateRouteRequest) (*models.Route, error) {
	updates := []string{}
	args := []interface{}{}
	argCount := 1

	if req.RouteName != nil {
		updates = append(updates, fmt.Sprintf("route_name = $%d", argCount))
		args = append(args, *req.RouteName)
		argCount++
	}
	if req.Source != nil {
		updates = append(updates, fmt.Sprintf("source = $%d", argCount))
		args = append(args, *req.Source)
		argCount++
	}
	if req.Destination != nil {
		updates = append(updates, fmt.Sprintf("destination = $%d", argCount))
		args = append(args, *req.Destination)
		argCount++
	}
	if req.Distance != nil {
		updates = append(updates, fmt.Sprintf("distance = $%d", argCount))
		args = append(args, *req.Distance)
		argCount++
	}
	if req.Duration != nil {
		updates = append(updates, fmt.Sprintf("duration = $%d", argCount))
		args = append(args, *req.Duration)
		argCount++
	}

	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	updates = append(updates, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE routes SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(updates, ", "), argCount, routeColumns,
	)

	route := &models.Route{}
	if err := r.db.GetContext(ctx, route, query, args...); err != nil {
		if err == sql.ErrNoRows || isInvalidID(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to update route: %w", translateError(err))
	}
	return route, nil
}

// Delete removes a route. Routes still referenced by a bus are kept.
func (r *RouteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if isInvalidID(err) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", translateError(err))
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
