package queue

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"

	"warehub-backend/internal/logger"
)

// Worker wraps the Asynq server that drains the notification queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Queue       string
	Dispatcher  Dispatcher
}

func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Dispatcher == nil {
		return nil, errors.New("worker: dispatcher is required")
	}
	if cfg.Queue == "" {
		cfg.Queue = QueueNotifications
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			cfg.Queue: 1,
		},
		Logger: asynqLogger{},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSendNotification, NewSendNotificationHandler(cfg.Dispatcher))
	return &Worker{server: srv, mux: mux}, nil
}

// Run starts processing tasks until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.Debug("asynq", "msg", args) }
func (asynqLogger) Info(args ...interface{})  { logger.Info("asynq", "msg", args) }
func (asynqLogger) Warn(args ...interface{})  { logger.Warn("asynq", "msg", args) }
func (asynqLogger) Error(args ...interface{}) { logger.Error("asynq", "msg", args) }
func (asynqLogger) Fatal(args ...interface{}) { logger.Error("asynq fatal", "msg", args) }
