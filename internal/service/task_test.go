package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"warehub-backend/internal/domain"
)

func worker(id int32, onShift bool, skills ...string) domain.Worker {
	return domain.Worker{UserID: id, WarehouseID: 1, OnShift: onShift, Skills: skills}
}

func TestWorkloadScore(t *testing.T) {
	tests := []struct {
		active int
		want   int
	}{
		{0, 0},
		{2, 2},
		{3, 8},
		{4, 9},
		{5, 15},
		{7, 17},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WorkloadScore(tt.active), "active=%d", tt.active)
	}
}

func TestPickWorker(t *testing.T) {
	tests := []struct {
		name    string
		workers []domain.Worker
		loads   map[int32]int
		want    int32
	}{
		{
			name:    "Lowest score wins over skill",
			workers: []domain.Worker{worker(1, true), worker(2, true, "picking")},
			loads:   map[int32]int{1: 0, 2: 1},
			want:    1,
		},
		{
			name:    "Skill breaks a tie",
			workers: []domain.Worker{worker(1, true), worker(2, true, "picking")},
			loads:   map[int32]int{1: 1, 2: 1},
			want:    2,
		},
		{
			name:    "Lowest id breaks a full tie",
			workers: []domain.Worker{worker(9, true), worker(4, true), worker(6, true)},
			loads:   map[int32]int{},
			want:    4,
		},
		{
			name:    "Off shift and full workers are skipped",
			workers: []domain.Worker{worker(1, false), worker(2, true, "picking"), worker(3, true)},
			loads:   map[int32]int{1: 0, 2: 5, 3: 4},
			want:    3,
		},
		{
			name:    "Nobody available",
			workers: []domain.Worker{worker(1, false), worker(2, true)},
			loads:   map[int32]int{2: 5},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickWorker(tt.workers, tt.loads, domain.TaskTypePicking, 5)
			if tt.want == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.UserID)
		})
	}
}

func TestTaskService_CreateAndAssignTask(t *testing.T) {
	ctx := context.Background()
	req := domain.CreateTaskRequest{WarehouseID: 1, Type: domain.TaskTypeReceiving, Title: "Receive booking 5"}

	t.Run("Assigns the best worker", func(t *testing.T) {
		repo := new(MockTaskRepo)
		notifier := &recordingNotifier{}
		svc := NewTaskService(repo, notifier, 0)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Task")).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Task).ID = 70
		}).Return(nil)
		repo.On("ListWorkers", mock.Anything, int32(1)).Return([]domain.Worker{worker(1, true), worker(2, true, "receiving")}, nil)
		repo.On("CountActiveByWorker", mock.Anything, int32(1)).Return(map[int32]int{1: 2, 2: 2}, nil)
		repo.On("Assign", mock.Anything, int32(70), domain.TaskStatusPending, int32(2)).Return(nil)

		task, err := svc.CreateAndAssignTask(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusAssigned, task.Status)
		assert.Equal(t, int32(2), *task.AssignedTo)
		assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
		require.Len(t, notifier.sent, 1)
		assert.Equal(t, int32(2), notifier.sent[0].UserID)
		assert.Contains(t, notifier.sent[0].Channels, domain.NotificationChannelPush)
	})

	t.Run("Stays pending without workers", func(t *testing.T) {
		repo := new(MockTaskRepo)
		svc := NewTaskService(repo, nil, 0)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		repo.On("ListWorkers", mock.Anything, int32(1)).Return([]domain.Worker{worker(1, false)}, nil)
		repo.On("CountActiveByWorker", mock.Anything, int32(1)).Return(nil, nil)

		task, err := svc.CreateAndAssignTask(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Nil(t, task.AssignedTo)
		repo.AssertNotCalled(t, "Assign", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid type", func(t *testing.T) {
		repo := new(MockTaskRepo)
		svc := NewTaskService(repo, nil, 0)
		bad := req
		bad.Type = domain.TaskType("juggling")

		_, err := svc.CreateAndAssignTask(ctx, bad)
		assert.ErrorIs(t, err, domain.ErrValidation)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestTaskService_AutoAssignPendingTasks(t *testing.T) {
	repo := new(MockTaskRepo)
	svc := NewTaskService(repo, nil, 2)
	ctx := context.Background()

	repo.On("ListPending", mock.Anything, int32(1)).Return([]domain.Task{
		{ID: 100, WarehouseID: 1, Type: domain.TaskTypePicking, Status: domain.TaskStatusPending, Priority: domain.TaskPriorityUrgent},
		{ID: 101, WarehouseID: 1, Type: domain.TaskTypePicking, Status: domain.TaskStatusPending, Priority: domain.TaskPriorityHigh},
		{ID: 102, WarehouseID: 1, Type: domain.TaskTypePacking, Status: domain.TaskStatusPending, Priority: domain.TaskPriorityLow},
	}, nil)
	repo.On("ListWorkers", mock.Anything, int32(1)).Return([]domain.Worker{worker(1, true, "picking"), worker(2, true)}, nil)
	repo.On("CountActiveByWorker", mock.Anything, int32(1)).Return(map[int32]int{1: 1, 2: 1}, nil)
	repo.On("Assign", mock.Anything, int32(100), domain.TaskStatusPending, int32(1)).Return(nil)
	repo.On("Assign", mock.Anything, int32(101), domain.TaskStatusPending, int32(2)).Return(nil)

	res, err := svc.AutoAssignPendingTasks(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Empty(t, res.Errors)
	repo.AssertNotCalled(t, "Assign", mock.Anything, int32(102), mock.Anything, mock.Anything)
}

func TestTaskService_BalanceWorkload(t *testing.T) {
	repo := new(MockTaskRepo)
	svc := NewTaskService(repo, nil, 0)
	ctx := context.Background()

	repo.On("ListWorkers", mock.Anything, int32(1)).Return([]domain.Worker{worker(1, true), worker(2, true), worker(3, true)}, nil)
	repo.On("CountActiveByWorker", mock.Anything, int32(1)).Return(map[int32]int{1: 6, 2: 6, 3: 0}, nil)
	repo.On("ListActiveByWorker", mock.Anything, int32(1)).Return([]domain.Task{
		{ID: 12, Status: domain.TaskStatusInProgress},
		{ID: 11, Status: domain.TaskStatusAssigned},
	}, nil)
	repo.On("ListActiveByWorker", mock.Anything, int32(2)).Return([]domain.Task{
		{ID: 21, Status: domain.TaskStatusAssigned},
	}, nil)
	repo.On("Assign", mock.Anything, int32(11), domain.TaskStatusAssigned, int32(3)).Return(nil)
	repo.On("Assign", mock.Anything, int32(21), domain.TaskStatusAssigned, int32(3)).Return(nil)

	res, err := svc.BalanceWorkload(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "Assign", mock.Anything, int32(12), mock.Anything, mock.Anything)
}

func TestTaskService_BalanceWorkloadAlreadyEven(t *testing.T) {
	repo := new(MockTaskRepo)
	svc := NewTaskService(repo, nil, 0)

	repo.On("ListWorkers", mock.Anything, int32(1)).Return([]domain.Worker{worker(1, true), worker(2, true)}, nil)
	repo.On("CountActiveByWorker", mock.Anything, int32(1)).Return(map[int32]int{1: 3, 2: 2}, nil)

	res, err := svc.BalanceWorkload(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
	repo.AssertNotCalled(t, "ListActiveByWorker", mock.Anything, mock.Anything)
}

func TestTaskService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("Only the assignee starts", func(t *testing.T) {
		repo := new(MockTaskRepo)
		svc := NewTaskService(repo, nil, 0)
		repo.On("GetByID", mock.Anything, int32(70)).Return(&domain.Task{ID: 70, Status: domain.TaskStatusAssigned, AssignedTo: i32(2)}, nil)

		_, err := svc.StartTask(ctx, 3, 70)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Start then complete", func(t *testing.T) {
		repo := new(MockTaskRepo)
		svc := NewTaskService(repo, nil, 0)
		repo.On("GetByID", mock.Anything, int32(70)).Return(&domain.Task{ID: 70, Status: domain.TaskStatusAssigned, AssignedTo: i32(2)}, nil).Once()
		repo.On("UpdateStatus", mock.Anything, int32(70), domain.TaskStatusAssigned, domain.TaskStatusInProgress).Return(nil)

		task, err := svc.StartTask(ctx, 2, 70)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusInProgress, task.Status)

		repo.On("GetByID", mock.Anything, int32(70)).Return(&domain.Task{ID: 70, Status: domain.TaskStatusInProgress, AssignedTo: i32(2)}, nil).Once()
		repo.On("UpdateStatus", mock.Anything, int32(70), domain.TaskStatusInProgress, domain.TaskStatusCompleted).Return(nil)

		task, err = svc.CompleteTask(ctx, 2, 70)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	})

	t.Run("Complete before start", func(t *testing.T) {
		repo := new(MockTaskRepo)
		svc := NewTaskService(repo, nil, 0)
		repo.On("GetByID", mock.Anything, int32(70)).Return(&domain.Task{ID: 70, Status: domain.TaskStatusAssigned, AssignedTo: i32(2)}, nil)

		_, err := svc.CompleteTask(ctx, 2, 70)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("Concurrent change", func(t *testing.T) {
		repo := new(MockTaskRepo)
		svc := NewTaskService(repo, nil, 0)
		repo.On("GetByID", mock.Anything, int32(70)).Return(&domain.Task{ID: 70, Status: domain.TaskStatusAssigned, AssignedTo: i32(2)}, nil)
		repo.On("UpdateStatus", mock.Anything, int32(70), mock.Anything, mock.Anything).Return(fmt.Errorf("task 70: %w", domain.ErrConflict))

		_, err := svc.StartTask(ctx, 2, 70)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestTaskService_ReassignTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Worker at capacity", func(t *testing.T) {
		repo := new(MockTaskRepo)
		svc := NewTaskService(repo, nil, 0)
		repo.On("GetByID", mock.Anything, int32(70)).Return(&domain.Task{ID: 70, WarehouseID: 1, Status: domain.TaskStatusAssigned, AssignedTo: i32(2)}, nil)
		repo.On("ListWorkers", mock.Anything, int32(1)).Return([]domain.Worker{worker(2, true), worker(3, true)}, nil)
		repo.On("CountActiveByWorker", mock.Anything, int32(1)).Return(map[int32]int{3: 5}, nil)

		_, err := svc.ReassignTask(ctx, 70, 3)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("Worker from another warehouse", func(t *testing.T) {
		repo := new(MockTaskRepo)
		svc := NewTaskService(repo, nil, 0)
		repo.On("GetByID", mock.Anything, int32(70)).Return(&domain.Task{ID: 70, WarehouseID: 1, Status: domain.TaskStatusPending}, nil)
		repo.On("ListWorkers", mock.Anything, int32(1)).Return([]domain.Worker{worker(2, true)}, nil)
		repo.On("CountActiveByWorker", mock.Anything, int32(1)).Return(map[int32]int{}, nil)

		_, err := svc.ReassignTask(ctx, 70, 9)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Moves to the new worker", func(t *testing.T) {
		repo := new(MockTaskRepo)
		svc := NewTaskService(repo, nil, 0)
		repo.On("GetByID", mock.Anything, int32(70)).Return(&domain.Task{ID: 70, WarehouseID: 1, Status: domain.TaskStatusAssigned, AssignedTo: i32(2)}, nil)
		repo.On("ListWorkers", mock.Anything, int32(1)).Return([]domain.Worker{worker(2, true), worker(3, true)}, nil)
		repo.On("CountActiveByWorker", mock.Anything, int32(1)).Return(map[int32]int{2: 1}, nil)
		repo.On("Assign", mock.Anything, int32(70), domain.TaskStatusAssigned, int32(3)).Return(nil)

		task, err := svc.ReassignTask(ctx, 70, 3)
		require.NoError(t, err)
		assert.Equal(t, int32(3), *task.AssignedTo)
	})
}
