package database

import (
	"context"
	"fmt"
	"time"

	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// ReportRepository runs read-only aggregate queries
type ReportRepository struct {
	db DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// DashboardStats counts users, fleet, and bookings in one round trip.
// Revenue excludes cancelled bookings.
func (r *ReportRepository) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'user')  AS total_users,
			(SELECT COUNT(*) FROM users WHERE role = 'admin') AS total_admins,
			(SELECT COUNT(*) FROM buses)                      AS total_buses,
			(SELECT COUNT(*) FROM routes)                     AS total_routes,
			(SELECT COUNT(*) FROM bookings)                   AS total_bookings,
			(SELECT COALESCE(SUM(total_price), 0) FROM bookings WHERE status <> 'Cancelled') AS total_revenue
	`

	stats := &models.DashboardStats{}
	if err := r.db.GetContext(ctx, stats, query); err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return stats, nil
}

// Revenue sums completed bookings whose booking_date falls in [start, end)
func (r *ReportRepository) Revenue(ctx context.Context, start, end *time.Time) (*models.RevenueReport, error) {
	query := `
		SELECT
			COALESCE(SUM(total_price), 0) AS total_revenue,
			COUNT(*)                      AS total_bookings,
			COALESCE(AVG(total_price), 0) AS average_amount
		FROM bookings
		WHERE status = 'Completed'
	`
	args := []interface{}{}
	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND booking_date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND booking_date < $%d", len(args))
	}

	report := &models.RevenueReport{StartDate: start, EndDate: end}
	if err := r.db.GetContext(ctx, report, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load revenue report: %w", err)
	}
	return report, nil
}

// UserStatistics counts users overall, this calendar month, and per role
func (r *ReportRepository) UserStatistics(ctx context.Context, now time.Time) (*models.UserStatistics, error) {
	stats := &models.UserStatistics{}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	if err := r.db.GetContext(ctx, &stats.TotalUsers, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := r.db.GetContext(ctx, &stats.NewUsersThisMonth,
		`SELECT COUNT(*) FROM users WHERE created_at >= $1`, monthStart); err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}

	stats.ByRole = []models.CategoryCount{}
	if err := r.db.SelectContext(ctx, &stats.ByRole,
		`SELECT role AS key, COUNT(*) AS count FROM users GROUP BY role ORDER BY role`); err != nil {
		return nil, fmt.Errorf("failed to group users by role: %w", err)
	}
	return stats, nil
}

// BusStatistics counts the fleet by activity and by type
func (r *ReportRepository) BusStatistics(ctx context.Context) (*models.BusStatistics, error) {
	stats := &models.BusStatistics{}

	row := r.db.QueryRowxContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active)
		FROM buses`)
	if err := row.Scan(&stats.TotalBuses, &stats.ActiveBuses, &stats.InactiveBuses); err != nil {
		return nil, fmt.Errorf("failed to count buses: %w", err)
	}

	stats.ByType = []models.CategoryCount{}
	if err := r.db.SelectContext(ctx, &stats.ByType,
		`SELECT bus_type AS key, COUNT(*) AS count FROM buses GROUP BY bus_type ORDER BY bus_type`); err != nil {
		return nil, fmt.Errorf("failed to group buses by type: %w", err)
	}
	return stats, nil
}

// InventoryDrift lists buses whose seats_available disagrees with
// total_seats minus the passengers of their non-cancelled bookings
func (r *ReportRepository) InventoryDrift(ctx context.Context) ([]models.InventoryDrift, error) {
	query := `
		SELECT
			b.id AS bus_id,
			b.bus_number,
			b.total_seats,
			b.seats_available,
			COALESCE(SUM(bk.passengers), 0) AS seats_booked,
			b.total_seats - COALESCE(SUM(bk.passengers), 0) AS expected_seats
		FROM buses b
		LEFT JOIN bookings bk ON bk.bus_id = b.id AND bk.status <> 'Cancelled'
		GROUP BY b.id, b.bus_number, b.total_seats, b.seats_available
		HAVING b.total_seats - COALESCE(SUM(bk.passengers), 0) <> b.seats_available
		ORDER BY b.bus_number
	`

	drift := []models.InventoryDrift{}
	if err := r.db.SelectContext(ctx, &drift, query); err != nil {
		return nil, fmt.Errorf("failed to compute inventory drift: %w", err)
	}
	return drift, nil
}
