package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// DriftSource reports buses whose seat counters disagree with their bookings
type DriftSource interface {
	InventoryDrift(ctx context.Context) ([]models.InventoryDrift, error)
}

// ReconciliationService audits seat counters against the booking ledger.
// It only reports; counters are never rewritten automatically.
type ReconciliationService struct {
	source DriftSource
	logger *logrus.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(source DriftSource, logger *logrus.Logger) *ReconciliationService {
	return &ReconciliationService{source: source, logger: logger}
}

// Run computes drift once and logs one warning per drifting bus
func (s *ReconciliationService) Run(ctx context.Context) ([]models.InventoryDrift, error) {
	started := time.Now()

	drift, err := s.source.InventoryDrift(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Inventory reconciliation failed")
		return nil, err
	}

	for _, d := range drift {
		s.logger.WithFields(logrus.Fields{
			"bus_id":          d.BusID,
			"bus_number":      d.BusNumber,
			"seats_available": d.SeatsAvailable,
			"expected_seats":  d.ExpectedSeats,
		}).Warn("Seat counter drift detected")
	}

	s.logger.WithFields(logrus.Fields{
		"drifting_buses": len(drift),
		"duration":       time.Since(started).String(),
	}).Info("Inventory reconciliation finished")
	return drift, nil
}
