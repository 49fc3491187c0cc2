package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/smarttransit/bus-booking-backend/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuditTest(t *testing.T) (*AuditService, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}
	return NewAuditService(db), mock
}

func TestAuditLog(t *testing.T) {
	t.Run("stores device info and details", func(t *testing.T) {
		svc, mock := setupAuditTest(t)

		mock.ExpectExec("INSERT INTO audit_logs").
			WithArgs(
				"0b9c2f8e-1111-4c3e-9d7a-3f1b2c4d5e6f",
				AuditBookingCancelled,
				"booking",
				"BUS-20250101120000-ABC123",
				"203.0.113.7",
				"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
				sqlmock.AnyArg(),
				[]byte(`{"seats_freed":3}`),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := svc.Log(context.Background(), AuditEvent{
			UserID:     "0b9c2f8e-1111-4c3e-9d7a-3f1b2c4d5e6f",
			Action:     AuditBookingCancelled,
			EntityType: "booking",
			EntityID:   "BUS-20250101120000-ABC123",
			IPAddress:  "203.0.113.7",
			UserAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
			Details:    map[string]interface{}{"seats_freed": 3},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("anonymous actor stores NULL", func(t *testing.T) {
		svc, mock := setupAuditTest(t)

		mock.ExpectExec("INSERT INTO audit_logs").
			WithArgs(nil, AuditRouteCreated, "route", "route-1", "", "", sqlmock.AnyArg(), []byte(`{}`)).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := svc.Log(context.Background(), AuditEvent{Action: AuditRouteCreated, EntityType: "route", EntityID: "route-1"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetRecentEvents(t *testing.T) {
	svc, mock := setupAuditTest(t)
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"action", "entity_type", "entity_id", "ip_address", "device_info", "details", "created_at"}).
		AddRow(AuditBusUpdated, "bus", "bus-1", "10.0.0.1", []byte(`{"os":"Linux"}`), []byte(`{}`), created)
	mock.ExpectQuery("FROM audit_logs").WithArgs("admin-1", 20).WillReturnRows(rows)

	entries, err := svc.GetRecentEvents(context.Background(), "admin-1", 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, AuditBusUpdated, entries[0].Action)
	assert.JSONEq(t, `{"os":"Linux"}`, string(entries[0].DeviceInfo))
	assert.NoError(t, mock.ExpectationsWereMet())
}
