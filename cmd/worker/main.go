package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"warehub-backend/internal/app"
	"warehub-backend/internal/config"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/queue"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Optional dotenv file loaded before the config")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Redis.Addr == "" {
		log.Fatalf("redis.addr is required for the notification worker")
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting WareHub notification worker...", "queue", cfg.Queue.Name, "concurrency", cfg.Queue.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()

	worker, err := queue.NewWorker(queue.WorkerConfig{
		RedisOpts:   container.RedisOpt(),
		Concurrency: cfg.Queue.Concurrency,
		Queue:       cfg.Queue.Name,
		Dispatcher:  container.Dispatcher,
	})
	if err != nil {
		log.Fatalf("Failed to create worker: %v", err)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped. Goodbye!")
}
