package jobs

import (
	"context"
	"errors"
	"fmt"

	"warehub-backend/internal/logger"
)

// GenerateMonthlyInvoices issues this month's storage invoice for every active pallet booking.
// Per-booking failures are reported together after the whole batch has run.
func (jr *JobRunner) GenerateMonthlyInvoices() error {
	return jr.runWithRecovery(JobGenerateMonthlyInvoices, func(ctx context.Context) error {
		asOf := jr.now()
		res, err := jr.services.Invoice.GenerateMonthlyInvoicesForActiveBookings(ctx, asOf)
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "Monthly invoices generated",
			"month", asOf.Format("2006-01"),
			"generated", len(res.Generated),
			"skipped", len(res.Skipped),
			"failed", len(res.Errors))

		if len(res.Errors) == 0 {
			return nil
		}
		errs := make([]error, 0, len(res.Errors))
		for _, e := range res.Errors {
			errs = append(errs, fmt.Errorf("booking %d: %s", e.ID, e.Error))
		}
		return errors.Join(errs...)
	})
}

// SendInvoiceReminders notifies customers about pending invoices past their due date.
func (jr *JobRunner) SendInvoiceReminders() error {
	return jr.runWithRecovery(JobSendInvoiceReminders, func(ctx context.Context) error {
		sent, err := jr.services.Invoice.SendOverdueReminders(ctx, jr.now())
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Invoice reminders sent", "count", sent)
		return nil
	})
}
