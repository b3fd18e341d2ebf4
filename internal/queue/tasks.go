package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
)

const (
	// QueueNotifications is the queue notification tasks are enqueued on.
	QueueNotifications = "notifications"
	// TaskTypeSendNotification delivers one notification request to its channels.
	TaskTypeSendNotification = "notification:send"
)

// Dispatcher delivers a notification synchronously.
type Dispatcher interface {
	Send(ctx context.Context, req domain.NotificationRequest) error
}

// Enqueuer is the part of *asynq.Client the publisher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewSendNotificationTask constructs an Asynq task.
func NewSendNotificationTask(req domain.NotificationRequest) (*asynq.Task, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendNotification, data), nil
}

// Publisher hands notifications to the worker instead of delivering them inline.
type Publisher struct {
	client   Enqueuer
	queue    string
	maxRetry int
}

func NewPublisher(client Enqueuer, queue string) *Publisher {
	if queue == "" {
		queue = QueueNotifications
	}
	return &Publisher{client: client, queue: queue, maxRetry: 5}
}

func (p *Publisher) Send(ctx context.Context, req domain.NotificationRequest) error {
	task, err := NewSendNotificationTask(req)
	if err != nil {
		return fmt.Errorf("failed to build notification task: %w", err)
	}

	logger.ExternalServiceCall("asynq", "Enqueue", "type", TaskTypeSendNotification, "user_id", req.UserID)
	_, err = p.client.EnqueueContext(ctx, task,
		asynq.Queue(p.queue),
		asynq.MaxRetry(p.maxRetry),
		asynq.TaskID(uuid.New().String()),
	)
	logger.ExternalServiceResult("asynq", "Enqueue", err)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// NewSendNotificationHandler processes TaskTypeSendNotification tasks with d.
func NewSendNotificationHandler(d Dispatcher) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var req domain.NotificationRequest
		if err := json.Unmarshal(t.Payload(), &req); err != nil {
			logger.Error("Dropping malformed notification task", "error", err)
			return asynq.SkipRetry
		}
		if err := d.Send(ctx, req); err != nil {
			logger.Warn("Notification delivery failed", "user_id", req.UserID, "type", req.Type, "error", err)
			return err
		}
		return nil
	}
}
