package services

import (
	"context"
	"errors"
	"testing"

	"github.com/smarttransit/bus-booking-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoute(t *testing.T) {
	svc := NewRouteService(memRoutes{newMemDB()}, quietLogger())

	t.Run("derives name and accepts estimated_time", func(t *testing.T) {
		route, err := svc.CreateRoute(context.Background(), &models.CreateRouteRequest{
			Source:        " Colombo ",
			Destination:   "Galle",
			Distance:      floatPtr(126),
			EstimatedTime: intPtr(150),
		})
		require.NoError(t, err)
		assert.Equal(t, "Colombo - Galle", route.RouteName)
		assert.Equal(t, "Colombo", route.Source)
		assert.Equal(t, 150, route.Duration)
		assert.NotEmpty(t, route.ID)
	})

	t.Run("keeps explicit name", func(t *testing.T) {
		route, err := svc.CreateRoute(context.Background(), &models.CreateRouteRequest{
			RouteName:   "Southern Expressway",
			Source:      "Colombo",
			Destination: "Matara",
			Distance:    floatPtr(160),
			Duration:    intPtr(120),
		})
		require.NoError(t, err)
		assert.Equal(t, "Southern Expressway", route.RouteName)
	})

	tests := []struct {
		name  string
		req   models.CreateRouteRequest
		field string
	}{
		{"missing source", models.CreateRouteRequest{Destination: "B", Distance: floatPtr(1), Duration: intPtr(1)}, "source"},
		{"missing destination", models.CreateRouteRequest{Source: "A", Distance: floatPtr(1), Duration: intPtr(1)}, "destination"},
		{"missing distance", models.CreateRouteRequest{Source: "A", Destination: "B", Duration: intPtr(1)}, "distance"},
		{"zero distance", models.CreateRouteRequest{Source: "A", Destination: "B", Distance: floatPtr(0), Duration: intPtr(1)}, "distance"},
		{"missing duration", models.CreateRouteRequest{Source: "A", Destination: "B", Distance: floatPtr(1)}, "duration"},
		{"negative duration", models.CreateRouteRequest{Source: "A", Destination: "B", Distance: floatPtr(1), Duration: intPtr(-5)}, "duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRoute(context.Background(), &tt.req)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestRouteLifecycle(t *testing.T) {
	db := newMemDB()
	svc := NewRouteService(memRoutes{db}, quietLogger())
	used, _ := db.seed(10, 100)

	free, err := svc.CreateRoute(context.Background(), &models.CreateRouteRequest{
		Source: "Kandy", Destination: "Jaffna", Distance: floatPtr(310), Duration: intPtr(420),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateRoute(context.Background(), free.ID, &models.UpdateRouteRequest{Duration: intPtr(400)})
	require.NoError(t, err)
	assert.Equal(t, 400, updated.Duration)

	_, err = svc.UpdateRoute(context.Background(), free.ID, &models.UpdateRouteRequest{Distance: floatPtr(-1)})
	assert.True(t, IsValidationError(err))

	_, err = svc.UpdateRoute(context.Background(), "nope", &models.UpdateRouteRequest{Duration: intPtr(1)})
	assert.True(t, IsNotFoundError(err))

	assert.True(t, IsConflictError(svc.DeleteRoute(context.Background(), used.ID)))
	require.NoError(t, svc.DeleteRoute(context.Background(), free.ID))

	_, err = svc.GetRoute(context.Background(), free.ID)
	assert.True(t, IsNotFoundError(err))
	assert.True(t, IsNotFoundError(svc.DeleteRoute(context.Background(), free.ID)))
}
