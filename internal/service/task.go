package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

const defaultMaxActiveTasks = 5

type taskService struct {
	taskRepo  repository.TaskRepository
	notifier  Notifier
	maxActive int
}

func NewTaskService(taskRepo repository.TaskRepository, notifier Notifier, maxActive int) TaskService {
	if maxActive <= 0 {
		maxActive = defaultMaxActiveTasks
	}
	return &taskService{taskRepo: taskRepo, notifier: notifier, maxActive: maxActive}
}

// WorkloadScore penalises busy workers: +5 from three active tasks, +10 from five.
func WorkloadScore(activeTasks int) int {
	switch {
	case activeTasks >= 5:
		return activeTasks + 10
	case activeTasks >= 3:
		return activeTasks + 5
	default:
		return activeTasks
	}
}

// pickWorker returns the on-shift worker under maxActive with the lowest workload score.
// Ties go to a worker with the matching skill, then to the lowest user id.
func pickWorker(workers []domain.Worker, loads map[int32]int, taskType domain.TaskType, maxActive int) *domain.Worker {
	var best *domain.Worker
	bestScore, bestSkill := 0, false
	for i := range workers {
		w := &workers[i]
		if !w.OnShift || loads[w.UserID] >= maxActive {
			continue
		}
		score, skill := WorkloadScore(loads[w.UserID]), w.HasSkill(taskType)
		if best == nil ||
			score < bestScore ||
			(score == bestScore && skill && !bestSkill) ||
			(score == bestScore && skill == bestSkill && w.UserID < best.UserID) {
			best, bestScore, bestSkill = w, score, skill
		}
	}
	return best
}

func (s *taskService) roster(ctx context.Context, warehouseID int32) ([]domain.Worker, map[int32]int, error) {
	workers, err := s.taskRepo.ListWorkers(ctx, warehouseID)
	if err != nil {
		return nil, nil, err
	}
	loads, err := s.taskRepo.CountActiveByWorker(ctx, warehouseID)
	if err != nil {
		return nil, nil, err
	}
	if loads == nil {
		loads = map[int32]int{}
	}
	return workers, loads, nil
}

func (s *taskService) SelectBestWorker(ctx context.Context, warehouseID int32, taskType domain.TaskType) (*domain.Worker, error) {
	workers, loads, err := s.roster(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	best := pickWorker(workers, loads, taskType, s.maxActive)
	if best == nil {
		return nil, domain.NotFoundError("available worker in warehouse", warehouseID)
	}
	return best, nil
}

func (s *taskService) CreateAndAssignTask(ctx context.Context, req domain.CreateTaskRequest) (*domain.Task, error) {
	logger.EnterMethod("taskService.CreateAndAssignTask", "warehouseID", req.WarehouseID, "type", req.Type)

	if err := validateStruct(req); err != nil {
		logger.ExitMethodWithError("taskService.CreateAndAssignTask", err)
		return nil, err
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	task := &domain.Task{
		WarehouseID: req.WarehouseID,
		BookingID:   req.BookingID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		Status:      domain.TaskStatusPending,
		DueAt:       req.DueAt,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		logger.ExitMethodWithError("taskService.CreateAndAssignTask", err)
		return nil, err
	}

	worker, err := s.SelectBestWorker(ctx, req.WarehouseID, req.Type)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Info("No worker available, task left pending", "taskID", task.ID, "warehouseID", req.WarehouseID)
		logger.ExitMethod("taskService.CreateAndAssignTask", "taskID", task.ID, "status", task.Status)
		return task, nil
	}
	if err != nil {
		logger.ExitMethodWithError("taskService.CreateAndAssignTask", err)
		return nil, err
	}

	if err := s.assign(ctx, task, worker.UserID); err != nil {
		logger.ExitMethodWithError("taskService.CreateAndAssignTask", err)
		return nil, err
	}
	logger.ExitMethod("taskService.CreateAndAssignTask", "taskID", task.ID, "workerID", worker.UserID)
	return task, nil
}

// assign moves task to workerID guarded on its current status and notifies the worker.
func (s *taskService) assign(ctx context.Context, task *domain.Task, workerID int32) error {
	if err := s.taskRepo.Assign(ctx, task.ID, task.Status, workerID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.StateError("task %d changed concurrently: %v", task.ID, err)
		}
		return err
	}
	task.Status = domain.TaskStatusAssigned
	task.AssignedTo = &workerID

	notifyBestEffort(ctx, s.notifier, domain.NotificationRequest{
		UserID:   workerID,
		Type:     "task_assigned",
		Channels: []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelPush},
		Title:    "New task: " + task.Title,
		Message:  fmt.Sprintf("You have been assigned a %s task (%s priority).", task.Type, task.Priority),
		TemplateData: map[string]string{
			"task_id":      strconv.Itoa(int(task.ID)),
			"warehouse_id": strconv.Itoa(int(task.WarehouseID)),
		},
	})
	return nil
}

func (s *taskService) ReassignTask(ctx context.Context, taskID, workerID int32) (*domain.Task, error) {
	logger.EnterMethod("taskService.ReassignTask", "taskID", taskID, "workerID", workerID)

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		logger.ExitMethodWithError("taskService.ReassignTask", err)
		return nil, err
	}
	if task.Status != domain.TaskStatusPending && task.Status != domain.TaskStatusAssigned {
		err = domain.StateError("task %d is %s and cannot be reassigned", taskID, task.Status)
		logger.ExitMethodWithError("taskService.ReassignTask", err)
		return nil, err
	}
	if task.AssignedTo != nil && *task.AssignedTo == workerID {
		logger.ExitMethod("taskService.ReassignTask", "taskID", taskID, "unchanged", true)
		return task, nil
	}

	workers, loads, err := s.roster(ctx, task.WarehouseID)
	if err != nil {
		logger.ExitMethodWithError("taskService.ReassignTask", err)
		return nil, err
	}
	var target *domain.Worker
	for i := range workers {
		if workers[i].UserID == workerID {
			target = &workers[i]
			break
		}
	}
	switch {
	case target == nil:
		err = domain.ValidationError("worker %d does not work in warehouse %d", workerID, task.WarehouseID)
	case !target.OnShift:
		err = domain.StateError("worker %d is not on shift", workerID)
	case loads[workerID] >= s.maxActive:
		err = domain.StateError("worker %d already has %d active tasks", workerID, loads[workerID])
	}
	if err != nil {
		logger.ExitMethodWithError("taskService.ReassignTask", err)
		return nil, err
	}

	if err := s.assign(ctx, task, workerID); err != nil {
		logger.ExitMethodWithError("taskService.ReassignTask", err)
		return nil, err
	}
	logger.ExitMethod("taskService.ReassignTask", "taskID", taskID, "workerID", workerID)
	return task, nil
}

func (s *taskService) StartTask(ctx context.Context, workerID, taskID int32) (*domain.Task, error) {
	return s.advance(ctx, workerID, taskID, domain.TaskStatusAssigned, domain.TaskStatusInProgress)
}

func (s *taskService) CompleteTask(ctx context.Context, workerID, taskID int32) (*domain.Task, error) {
	return s.advance(ctx, workerID, taskID, domain.TaskStatusInProgress, domain.TaskStatusCompleted)
}

func (s *taskService) advance(ctx context.Context, workerID, taskID int32, from, to domain.TaskStatus) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.AssignedTo == nil || *task.AssignedTo != workerID {
		return nil, domain.UnauthorizedError("task %d is not assigned to worker %d", taskID, workerID)
	}
	if task.Status != from {
		return nil, domain.StateError("task %d is %s, expected %s", taskID, task.Status, from)
	}
	if err := s.taskRepo.UpdateStatus(ctx, taskID, from, to); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.StateError("task %d changed concurrently: %v", taskID, err)
		}
		return nil, err
	}
	task.Status = to
	return task, nil
}

// AutoAssignPendingTasks hands pending tasks, most urgent first, to the best available
// worker until nobody has room left.
func (s *taskService) AutoAssignPendingTasks(ctx context.Context, warehouseID int32) (*domain.TaskBatchResult, error) {
	logger.EnterMethod("taskService.AutoAssignPendingTasks", "warehouseID", warehouseID)

	tasks, err := s.taskRepo.ListPending(ctx, warehouseID)
	if err != nil {
		logger.ExitMethodWithError("taskService.AutoAssignPendingTasks", err)
		return nil, err
	}
	result := &domain.TaskBatchResult{Errors: []domain.BatchItemError{}}
	if len(tasks) == 0 {
		logger.ExitMethod("taskService.AutoAssignPendingTasks", "processed", 0)
		return result, nil
	}

	workers, loads, err := s.roster(ctx, warehouseID)
	if err != nil {
		logger.ExitMethodWithError("taskService.AutoAssignPendingTasks", err)
		return nil, err
	}

	for i := range tasks {
		task := &tasks[i]
		worker := pickWorker(workers, loads, task.Type, s.maxActive)
		if worker == nil {
			logger.Info("All workers at capacity, leaving remaining tasks pending", "warehouseID", warehouseID, "remaining", len(tasks)-i)
			break
		}
		if err := s.assign(ctx, task, worker.UserID); err != nil {
			result.Errors = append(result.Errors, domain.BatchItemError{ID: task.ID, Error: err.Error()})
			continue
		}
		loads[worker.UserID]++
		result.Processed++
	}

	logger.ExitMethod("taskService.AutoAssignPendingTasks", "processed", result.Processed, "errors", len(result.Errors))
	return result, nil
}

// BalanceWorkload moves assigned, not yet started, tasks one at a time from workers more
// than one task above the mean to workers more than one below it. A target stops receiving
// once it reaches the mean.
func (s *taskService) BalanceWorkload(ctx context.Context, warehouseID int32) (*domain.TaskBatchResult, error) {
	logger.EnterMethod("taskService.BalanceWorkload", "warehouseID", warehouseID)

	workers, loads, err := s.roster(ctx, warehouseID)
	if err != nil {
		logger.ExitMethodWithError("taskService.BalanceWorkload", err)
		return nil, err
	}
	result := &domain.TaskBatchResult{Errors: []domain.BatchItemError{}}

	var onShift []domain.Worker
	total := 0
	for _, w := range workers {
		if w.OnShift {
			onShift = append(onShift, w)
			total += loads[w.UserID]
		}
	}
	if len(onShift) < 2 {
		logger.ExitMethod("taskService.BalanceWorkload", "processed", 0)
		return result, nil
	}
	mean := float64(total) / float64(len(onShift))

	var targets []int32
	for _, w := range onShift {
		if float64(loads[w.UserID]) < mean-1 {
			targets = append(targets, w.UserID)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		if loads[targets[i]] != loads[targets[j]] {
			return loads[targets[i]] < loads[targets[j]]
		}
		return targets[i] < targets[j]
	})

	movable := map[int32][]domain.Task{}
	exhausted := map[int32]bool{}
	nextSource := func() (int32, bool) {
		var src int32
		found := false
		for _, w := range onShift {
			id := w.UserID
			if exhausted[id] || float64(loads[id]) <= mean+1 {
				continue
			}
			if !found || loads[id] > loads[src] || (loads[id] == loads[src] && id < src) {
				src, found = id, true
			}
		}
		return src, found
	}

	for _, dst := range targets {
		for float64(loads[dst]) < math.Floor(mean) && loads[dst] < s.maxActive {
			src, ok := nextSource()
			if !ok {
				break
			}
			if _, loaded := movable[src]; !loaded {
				active, err := s.taskRepo.ListActiveByWorker(ctx, src)
				if err != nil {
					result.Errors = append(result.Errors, domain.BatchItemError{ID: src, Error: err.Error()})
					exhausted[src] = true
					continue
				}
				queue := []domain.Task{}
				for _, t := range active {
					if t.Status == domain.TaskStatusAssigned {
						queue = append(queue, t)
					}
				}
				movable[src] = queue
			}
			if len(movable[src]) == 0 {
				exhausted[src] = true
				continue
			}
			task := movable[src][0]
			movable[src] = movable[src][1:]

			if err := s.assign(ctx, &task, dst); err != nil {
				result.Errors = append(result.Errors, domain.BatchItemError{ID: task.ID, Error: err.Error()})
				continue
			}
			loads[src]--
			loads[dst]++
			result.Processed++
			logger.Info("Task rebalanced", "taskID", task.ID, "from", src, "to", dst)
		}
	}

	logger.ExitMethod("taskService.BalanceWorkload", "processed", result.Processed, "errors", len(result.Errors))
	return result, nil
}

func (s *taskService) GetWorkerLoads(ctx context.Context, warehouseID int32) ([]domain.WorkerLoad, error) {
	workers, loads, err := s.roster(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.WorkerLoad, 0, len(workers))
	for _, w := range workers {
		out = append(out, domain.WorkerLoad{Worker: w, ActiveTasks: loads[w.UserID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ActiveTasks != out[j].ActiveTasks {
			return out[i].ActiveTasks < out[j].ActiveTasks
		}
		return out[i].Worker.UserID < out[j].Worker.UserID
	})
	return out, nil
}
