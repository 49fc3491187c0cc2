package services

import (
	"context"
	"time"

	"github.com/smarttransit/bus-booking-backend/internal/models"
)

// ReportStore runs the read-only aggregate queries
type ReportStore interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	Revenue(ctx context.Context, start, end *time.Time) (*models.RevenueReport, error)
	UserStatistics(ctx context.Context, now time.Time) (*models.UserStatistics, error)
	BusStatistics(ctx context.Context) (*models.BusStatistics, error)
	InventoryDrift(ctx context.Context) ([]models.InventoryDrift, error)
}

// ReportService produces admin reports
type ReportService struct {
	reports ReportStore
	now     func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(reports ReportStore) *ReportService {
	return &ReportService{reports: reports, now: time.Now}
}

// DashboardStats returns headline counts for the admin dashboard
func (s *ReportService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return s.reports.DashboardStats(ctx)
}

// RevenueReport sums completed bookings whose booking date falls in
// [startDate, endDate]. Either bound may be empty.
func (s *ReportService) RevenueReport(ctx context.Context, startDate, endDate string) (*models.RevenueReport, error) {
	start, err := parseOptionalDate("start_date", startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("end_date", endDate)
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, newValidationError("end_date", "must not be before start_date")
	}

	var endExclusive *time.Time
	if end != nil {
		next := end.AddDate(0, 0, 1)
		endExclusive = &next
	}

	report, err := s.reports.Revenue(ctx, start, endExclusive)
	if err != nil {
		return nil, err
	}
	report.StartDate, report.EndDate = start, end
	return report, nil
}

// UserStatistics summarises the user directory
func (s *ReportService) UserStatistics(ctx context.Context) (*models.UserStatistics, error) {
	return s.reports.UserStatistics(ctx, s.now())
}

// BusStatistics summarises the fleet
func (s *ReportService) BusStatistics(ctx context.Context) (*models.BusStatistics, error) {
	return s.reports.BusStatistics(ctx)
}

// InventoryDrift lists buses whose counters disagree with their bookings
func (s *ReportService) InventoryDrift(ctx context.Context) ([]models.InventoryDrift, error) {
	return s.reports.InventoryDrift(ctx)
}

func parseOptionalDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, newValidationError(field, "must be formatted YYYY-MM-DD")
	}
	return &t, nil
}
