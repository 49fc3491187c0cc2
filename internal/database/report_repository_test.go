package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepository_DashboardStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(`status <> 'Cancelled'\) AS total_revenue`).
		WillReturnRows(sqlmock.NewRows([]string{
			"total_users", "total_admins", "total_buses", "total_routes", "total_bookings", "total_revenue",
		}).AddRow(120, 3, 14, 6, 410, 328000.0))

	stats, err := repo.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalUsers)
	assert.Equal(t, 328000.0, stats.TotalRevenue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_Revenue(t *testing.T) {
	ctx := context.Background()
	revenueColumns := []string{"total_revenue", "total_bookings", "average_amount"}

	t.Run("Half-open window", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewReportRepository(db)
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`WHERE status = 'Completed' AND booking_date >= \$1 AND booking_date < \$2`).
			WithArgs(start, end).
			WillReturnRows(sqlmock.NewRows(revenueColumns).AddRow(4800.0, 3, 1600.0))

		report, err := repo.Revenue(ctx, &start, &end)
		require.NoError(t, err)
		assert.Equal(t, 4800.0, report.TotalRevenue)
		assert.Equal(t, 3, report.TotalBookings)
		assert.Equal(t, &start, report.StartDate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unbounded", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewReportRepository(db)

		mock.ExpectQuery(`WHERE status = 'Completed'$`).
			WillReturnRows(sqlmock.NewRows(revenueColumns).AddRow(0.0, 0, 0.0))

		report, err := repo.Revenue(ctx, nil, nil)
		require.NoError(t, err)
		assert.Zero(t, report.TotalBookings)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportRepository_UserStatistics(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)
	now := time.Date(2025, 3, 17, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(50))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE created_at >= \$1`).
		WithArgs(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`GROUP BY role`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("admin", 2).AddRow("user", 48))

	stats, err := repo.UserStatistics(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.TotalUsers)
	assert.Equal(t, 7, stats.NewUsersThisMonth)
	require.Len(t, stats.ByRole, 2)
	assert.Equal(t, "user", stats.ByRole[1].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_BusStatistics(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE is_active\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "active", "inactive"}).AddRow(10, 8, 2))
	mock.ExpectQuery(`GROUP BY bus_type`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "count"}).AddRow("AC", 6).AddRow("Non-AC", 4))

	stats, err := repo.BusStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, stats.ActiveBuses)
	assert.Equal(t, 2, stats.InactiveBuses)
	assert.Len(t, stats.ByType, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_InventoryDrift(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(`HAVING b.total_seats - COALESCE\(SUM\(bk.passengers\), 0\) <> b.seats_available`).
		WillReturnRows(sqlmock.NewRows([]string{
			"bus_id", "bus_number", "total_seats", "seats_available", "seats_booked", "expected_seats",
		}).AddRow("bus-1", "NB-1234", 40, 35, 3, 37))

	drift, err := repo.InventoryDrift(context.Background())
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, 37, drift[0].ExpectedSeats)
	assert.Equal(t, 35, drift[0].SeatsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
