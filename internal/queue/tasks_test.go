package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"warehub-backend/internal/domain"
)

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, req domain.NotificationRequest) error {
	return m.Called(ctx, req).Error(0)
}

func sampleRequest() domain.NotificationRequest {
	return domain.NotificationRequest{
		UserID:   7,
		Type:     "booking_confirmed",
		Channels: []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail},
		Title:    "Booking confirmed",
		Message:  "Your booking #12 is confirmed",
	}
}

func TestPublisher_Send(t *testing.T) {
	ctx := context.Background()
	req := sampleRequest()

	t.Run("Enqueues task with payload", func(t *testing.T) {
		enq := new(MockEnqueuer)
		enq.On("EnqueueContext", ctx, mock.MatchedBy(func(task *asynq.Task) bool {
			var got domain.NotificationRequest
			if err := json.Unmarshal(task.Payload(), &got); err != nil {
				return false
			}
			return task.Type() == TaskTypeSendNotification && got.UserID == 7 && len(got.Channels) == 2
		}), mock.Anything).Return(&asynq.TaskInfo{ID: "t1"}, nil)

		err := NewPublisher(enq, "").Send(ctx, req)
		assert.NoError(t, err)
		enq.AssertExpectations(t)
	})

	t.Run("Enqueue failure is returned", func(t *testing.T) {
		enq := new(MockEnqueuer)
		enq.On("EnqueueContext", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

		err := NewPublisher(enq, "custom").Send(ctx, req)
		assert.ErrorContains(t, err, "redis down")
	})
}

func TestSendNotificationHandler(t *testing.T) {
	ctx := context.Background()
	req := sampleRequest()

	t.Run("Delivers", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Send", ctx, req).Return(nil)

		task, err := NewSendNotificationTask(req)
		require.NoError(t, err)
		assert.NoError(t, NewSendNotificationHandler(d)(ctx, task))
		d.AssertExpectations(t)
	})

	t.Run("Delivery failure is retried", func(t *testing.T) {
		d := new(MockDispatcher)
		d.On("Send", ctx, req).Return(errors.New("smtp timeout"))

		task, err := NewSendNotificationTask(req)
		require.NoError(t, err)
		err = NewSendNotificationHandler(d)(ctx, task)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("Malformed payload skips retry", func(t *testing.T) {
		d := new(MockDispatcher)
		task := asynq.NewTask(TaskTypeSendNotification, []byte("{"))
		err := NewSendNotificationHandler(d)(ctx, task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
		d.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}
