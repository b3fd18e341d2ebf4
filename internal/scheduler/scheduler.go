package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"warehub-backend/internal/config"
	"warehub-backend/internal/jobs"
	"warehub-backend/internal/logger"
)

// Runner is the part of the job runner the scheduler drives.
type Runner interface {
	Run(name string) error
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs Runner
}

// NewScheduler creates a scheduler and registers every job from cfg.
// A malformed cron spec is returned rather than skipped.
func NewScheduler(runner Runner, cfg config.SchedulerConfig) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: runner,
	}

	if err := s.registerJobs(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs(cfg config.SchedulerConfig) error {
	specs := []struct {
		name string
		spec string
	}{
		// Monthly
		{jobs.JobGenerateMonthlyInvoices, cfg.GenerateMonthlyInvoices},
		// Daily
		{jobs.JobEscalatePendingClaims, cfg.EscalatePendingClaims},
		{jobs.JobSendInvoiceReminders, cfg.SendInvoiceReminders},
		// Intra-day
		{jobs.JobAutoAssignPendingTasks, cfg.AutoAssignPendingTasks},
		{jobs.JobBalanceWorkload, cfg.BalanceWorkload},
	}

	for _, j := range specs {
		name := j.name
		if _, err := s.cron.AddFunc(j.spec, func() { _ = s.jobs.Run(name) }); err != nil {
			logger.Error("Failed to register job", "job", name, "spec", j.spec, "error", err)
			return fmt.Errorf("failed to register %s: %w", name, err)
		}
	}

	logger.Info("All cron jobs registered successfully", "count", len(specs))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
