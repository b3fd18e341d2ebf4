package domain

import "time"

type TaskType string

const (
	TaskTypeReceiving      TaskType = "receiving"
	TaskTypePutaway        TaskType = "putaway"
	TaskTypePicking        TaskType = "picking"
	TaskTypePacking        TaskType = "packing"
	TaskTypeShipping       TaskType = "shipping"
	TaskTypeInventoryCount TaskType = "inventory_count"
	TaskTypeMaintenance    TaskType = "maintenance"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

type Task struct {
	ID          int32        `json:"id"`
	WarehouseID int32        `json:"warehouse_id"`
	BookingID   *int32       `json:"booking_id,omitempty"`
	Type        TaskType     `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	AssignedTo  *int32       `json:"assigned_to,omitempty"`
	DueAt       *time.Time   `json:"due_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Worker struct {
	UserID      int32    `json:"user_id"`
	WarehouseID int32    `json:"warehouse_id"`
	Name        string   `json:"name"`
	Skills      []string `json:"skills"`
	OnShift     bool     `json:"on_shift"`
}

func (w Worker) HasSkill(t TaskType) bool {
	for _, s := range w.Skills {
		if s == string(t) {
			return true
		}
	}
	return false
}

// WorkerLoad pairs a worker with its count of assigned and in-progress tasks.
type WorkerLoad struct {
	Worker      Worker `json:"worker"`
	ActiveTasks int    `json:"active_tasks"`
}

type TaskBatchResult struct {
	Processed int              `json:"processed"`
	Errors    []BatchItemError `json:"errors"`
}

type CreateTaskRequest struct {
	WarehouseID int32        `json:"warehouse_id" validate:"required"`
	BookingID   *int32       `json:"booking_id,omitempty"`
	Type        TaskType     `json:"type" validate:"required,oneof=receiving putaway picking packing shipping inventory_count maintenance"`
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description" validate:"max=2000"`
	Priority    TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueAt       *time.Time   `json:"due_at,omitempty"`
}
