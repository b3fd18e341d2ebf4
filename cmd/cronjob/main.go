package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"warehub-backend/internal/app"
	"warehub-backend/internal/config"
	"warehub-backend/internal/jobs"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/scheduler"
	"warehub-backend/internal/security"
)

var (
	configPath string
	envFile    string
)

func main() {
	root := &cobra.Command{
		Use:           "warehub-cron",
		Short:         "Scheduled jobs for the WareHub backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.dev.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "Optional dotenv file loaded before the config")

	root.AddCommand(serveCmd(), runCmd(), listCmd(), devTokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the cron scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Info("Starting WareHub Cronjob Runner...", "log_level", cfg.Log.Level)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			container, err := app.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			cronScheduler, err := scheduler.NewScheduler(container.JobRunner(), cfg.Scheduler)
			if err != nil {
				return err
			}
			cronScheduler.Start()
			logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

			<-ctx.Done()
			logger.Info("Shutting down cronjob scheduler...")
			cronScheduler.Stop()
			logger.Info("Cronjob scheduler stopped. Goodbye!")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <job|all>",
		Short: "Run one job, or every job, once and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			container, err := app.Build(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			runner := container.JobRunner()
			if args[0] != "all" {
				logger.Info("Running job once", "job", args[0])
				return runner.Run(args[0])
			}

			var failed []error
			for name, err := range runner.RunAll() {
				if err != nil {
					failed = append(failed, fmt.Errorf("%s: %w", name, err))
				}
			}
			return errors.Join(failed...)
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available jobs",
		Run: func(cmd *cobra.Command, args []string) {
			runner := jobs.NewJobRunner(&jobs.Services{}, nil, &config.Config{})
			for _, name := range runner.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

// devTokenCmd issues a bearer token for local testing against the API.
func devTokenCmd() *cobra.Command {
	var (
		userID int32
		email  string
		roles  string
	)
	cmd := &cobra.Command{
		Use:   "dev-token",
		Short: "Print a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Server.IsDevelopment {
				return errors.New("dev tokens are only issued when server.is_development is set")
			}
			tm := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.DevTokenExpiry)*time.Minute)
			token, err := tm.GenerateAccessToken(userID, email, strings.Split(roles, ","))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int32Var(&userID, "user", 1, "User id to embed")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&roles, "roles", security.RoleCustomer, "Comma separated roles")
	return cmd
}
