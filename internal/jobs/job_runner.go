package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"warehub-backend/internal/config"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
	"warehub-backend/internal/service"
)

const defaultJobTimeout = 10 * time.Minute

// Job names accepted by Run and the cronjob CLI.
const (
	JobGenerateMonthlyInvoices = "generate-monthly-invoices"
	JobSendInvoiceReminders    = "send-invoice-reminders"
	JobEscalatePendingClaims   = "escalate-pending-claims"
	JobAutoAssignPendingTasks  = "auto-assign-pending-tasks"
	JobBalanceWorkload         = "balance-workload"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	tasks    repository.TaskRepository
	config   *config.Config
	now      func() time.Time
	timeout  time.Duration
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Invoice service.InvoiceService
	Claim   service.ClaimService
	Task    service.TaskService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, tasks repository.TaskRepository, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		tasks:    tasks,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
		timeout:  defaultJobTimeout,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// Names lists every registered job.
func (jr *JobRunner) Names() []string {
	names := make([]string, 0, len(jr.registry()))
	for name := range jr.registry() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes one job by name.
func (jr *JobRunner) Run(name string) error {
	job, ok := jr.registry()[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return job()
}

// RunAll executes every job once, continuing past failures.
func (jr *JobRunner) RunAll() map[string]error {
	results := make(map[string]error)
	for _, name := range jr.Names() {
		results[name] = jr.Run(name)
	}
	return results
}

func (jr *JobRunner) registry() map[string]func() error {
	return map[string]func() error{
		JobGenerateMonthlyInvoices: jr.GenerateMonthlyInvoices,
		JobSendInvoiceReminders:    jr.SendInvoiceReminders,
		JobEscalatePendingClaims:   jr.EscalatePendingClaims,
		JobAutoAssignPendingTasks:  jr.AutoAssignPendingTasks,
		JobBalanceWorkload:         jr.BalanceWorkload,
	}
}

// runWithRecovery wraps job execution with panic recovery and a deadline
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()
	ctx = logger.WithAttrs(ctx, "job", jobName)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Job panicked", "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
	}()

	start := time.Now()
	logger.InfoContext(ctx, "Starting job")
	if err = jobFunc(ctx); err != nil {
		logger.ErrorContext(ctx, "Job failed", "duration", time.Since(start), "error", err)
		return err
	}
	logger.InfoContext(ctx, "Job completed", "duration", time.Since(start))
	return nil
}
