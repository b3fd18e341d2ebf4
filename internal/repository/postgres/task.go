package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, warehouse_id, booking_id, task_type, title, COALESCE(description, ''), priority, status, assigned_to, due_at, created_at, updated_at`

func scanTask(s rowScanner) (*domain.Task, error) {
	t := &domain.Task{}
	err := s.Scan(&t.ID, &t.WarehouseID, &t.BookingID, &t.Type, &t.Title, &t.Description, &t.Priority, &t.Status, &t.AssignedTo, &t.DueAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *taskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (warehouse_id, booking_id, task_type, title, description, priority, status, assigned_to, due_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	return r.db.QueryRowContext(ctx, query, t.WarehouseID, t.BookingID, t.Type, t.Title, t.Description, t.Priority, t.Status, t.AssignedTo, t.DueAt, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
}

func (r *taskRepository) GetByID(ctx context.Context, id int32) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "task", id)
	}
	return t, nil
}

func (r *taskRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListPending orders urgent work first, then oldest first.
func (r *taskRepository) ListPending(ctx context.Context, warehouseID int32) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE warehouse_id = $1 AND status = 'pending'
	          ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, created_at`
	return r.list(ctx, query, warehouseID)
}

func (r *taskRepository) ListActiveByWorker(ctx context.Context, workerID int32) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE assigned_to = $1 AND status IN ('assigned', 'in-progress') ORDER BY created_at`
	return r.list(ctx, query, workerID)
}

func (r *taskRepository) Assign(ctx context.Context, id int32, from domain.TaskStatus, workerID int32) error {
	query := `UPDATE tasks SET assigned_to = $3, status = 'assigned', updated_at = $4 WHERE id = $1 AND status = $2`
	logger.DatabaseCall("UPDATE", "tasks", "taskID", id, "workerID", workerID)
	res, err := r.db.ExecContext(ctx, query, id, from, workerID, time.Now())
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return err
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return fmt.Errorf("%w: task %d is no longer %s", domain.ErrConflict, id, from)
	}
	return nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id int32, from, to domain.TaskStatus) error {
	query := `UPDATE tasks SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, time.Now())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: task %d is no longer %s", domain.ErrConflict, id, from)
	}
	return nil
}

func (r *taskRepository) ListWarehouseIDsWithPending(ctx context.Context) ([]int32, error) {
	return r.listIDs(ctx, `SELECT DISTINCT warehouse_id FROM tasks WHERE status = 'pending' ORDER BY warehouse_id`)
}

func (r *taskRepository) ListWarehouseIDs(ctx context.Context) ([]int32, error) {
	return r.listIDs(ctx, `SELECT DISTINCT warehouse_id FROM workers ORDER BY warehouse_id`)
}

func (r *taskRepository) listIDs(ctx context.Context, query string) ([]int32, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *taskRepository) ListWorkers(ctx context.Context, warehouseID int32) ([]domain.Worker, error) {
	query := `SELECT user_id, warehouse_id, name, skills, on_shift FROM workers WHERE warehouse_id = $1 ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []domain.Worker
	for rows.Next() {
		var w domain.Worker
		if err := rows.Scan(&w.UserID, &w.WarehouseID, &w.Name, pq.Array(&w.Skills), &w.OnShift); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

func (r *taskRepository) CountActiveByWorker(ctx context.Context, warehouseID int32) (map[int32]int, error) {
	query := `SELECT assigned_to, count(*) FROM tasks
	          WHERE warehouse_id = $1 AND assigned_to IS NOT NULL AND status IN ('assigned', 'in-progress')
	          GROUP BY assigned_to`
	rows, err := r.db.QueryContext(ctx, query, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int32]int)
	for rows.Next() {
		var workerID int32
		var count int
		if err := rows.Scan(&workerID, &count); err != nil {
			return nil, err
		}
		counts[workerID] = count
	}
	return counts, rows.Err()
}
