package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// reconciliationTimeout bounds a single scheduled reconciliation run
const reconciliationTimeout = 2 * time.Minute

// CronService manages scheduled background jobs
type CronService struct {
	cron           *cron.Cron
	reconciliation *ReconciliationService
	schedule       string
	logger         *logrus.Logger
}

// NewCronService creates a new CronService.
// schedule uses the six-field format: second minute hour day month weekday.
func NewCronService(reconciliation *ReconciliationService, schedule string, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:           cron.New(cron.WithSeconds()),
		reconciliation: reconciliation,
		schedule:       schedule,
		logger:         logger,
	}
}

// Start registers jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.reconcileInventoryJob); err != nil {
		return fmt.Errorf("failed to schedule inventory reconciliation: %w", err)
	}
	s.logger.WithField("schedule", s.schedule).Info("Scheduled inventory reconciliation")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) reconcileInventoryJob() {
	ctx, cancel := context.WithTimeout(context.Background(), reconciliationTimeout)
	defer cancel()

	// errors are logged by the reconciliation service
	_, _ = s.reconciliation.Run(ctx)
}

// RunReconciliationNow runs the reconciliation job immediately
func (s *CronService) RunReconciliationNow() {
	s.logger.Info("Running inventory reconciliation on demand")
	s.reconcileInventoryJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
