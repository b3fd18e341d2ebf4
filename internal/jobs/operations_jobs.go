package jobs

import (
	"context"
	"errors"
	"fmt"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
)

// EscalatePendingClaims alerts admins about claims waiting longer than the configured days.
func (jr *JobRunner) EscalatePendingClaims() error {
	return jr.runWithRecovery(JobEscalatePendingClaims, func(ctx context.Context) error {
		res, err := jr.services.Claim.EscalatePendingClaims(ctx, jr.config.Claims.EscalationDays)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Pending claims checked", "escalated", res.Count)
		return nil
	})
}

// AutoAssignPendingTasks assigns pending tasks in every warehouse that has some.
func (jr *JobRunner) AutoAssignPendingTasks() error {
	return jr.runWithRecovery(JobAutoAssignPendingTasks, func(ctx context.Context) error {
		ids, err := jr.tasks.ListWarehouseIDsWithPending(ctx)
		if err != nil {
			return err
		}
		return jr.perWarehouse(ctx, "auto-assign", ids, jr.services.Task.AutoAssignPendingTasks)
	})
}

// BalanceWorkload rebalances assigned tasks in every warehouse.
func (jr *JobRunner) BalanceWorkload() error {
	return jr.runWithRecovery(JobBalanceWorkload, func(ctx context.Context) error {
		ids, err := jr.tasks.ListWarehouseIDs(ctx)
		if err != nil {
			return err
		}
		return jr.perWarehouse(ctx, "balance", ids, jr.services.Task.BalanceWorkload)
	})
}

// perWarehouse runs fn for each warehouse; one warehouse failing does not stop the others.
func (jr *JobRunner) perWarehouse(ctx context.Context, op string, ids []int32, fn func(context.Context, int32) (*domain.TaskBatchResult, error)) error {
	var errs []error
	processed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := fn(ctx, id)
		if err != nil {
			logger.ErrorContext(ctx, "Warehouse task run failed", "op", op, "warehouse_id", id, "error", err)
			errs = append(errs, fmt.Errorf("warehouse %d: %w", id, err))
			continue
		}
		processed += res.Processed
		for _, itemErr := range res.Errors {
			logger.WarnContext(ctx, "Task not processed", "op", op, "warehouse_id", id, "task_id", itemErr.ID, "error", itemErr.Error)
		}
	}
	logger.InfoContext(ctx, "Warehouse task run finished", "op", op, "warehouses", len(ids), "processed", processed)
	return errors.Join(errs...)
}
