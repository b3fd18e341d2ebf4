package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	httpapi "warehub-backend/internal/api/http"
	"warehub-backend/internal/cache"
	"warehub-backend/internal/config"
	"warehub-backend/internal/domain"
	"warehub-backend/internal/gateway"
	"warehub-backend/internal/jobs"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/queue"
	"warehub-backend/internal/repository/postgres"
	"warehub-backend/internal/service"
)

// Container owns every long-lived dependency the binaries share.
type Container struct {
	Config *config.Config
	DB     *sql.DB
	Store  *postgres.Store
	Redis  *redis.Client
	Cache  *cache.SettingsCache

	// Dispatcher delivers notifications inline; the queue worker uses it directly.
	Dispatcher service.Notifier
	// Notifier is what services notify through: the dispatcher or the queue publisher.
	Notifier service.Notifier

	Settings     service.SettingsResolver
	Membership   service.MembershipService
	Pricing      service.PricingService
	Capacity     service.CapacityService
	Booking      service.BookingService
	Invoice      service.InvoiceService
	Payment      service.PaymentService
	Task         service.TaskService
	Claim        service.ClaimService
	Notification service.NotificationService

	closers []func() error
}

// Build connects to storage and wires the service graph.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)
	if err := db.PingContext(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")
	c.Store = postgres.NewStore(db)

	if cfg.Redis.Addr != "" {
		c.Redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		c.closers = append(c.closers, c.Redis.Close)
		c.Cache = cache.NewSettingsCache(c.Redis, cfg.Pricing.CacheTTL)
		if err := c.Cache.Ping(ctx); err != nil {
			logger.Warn("Redis unavailable, settings will resolve from the store", "addr", cfg.Redis.Addr, "error", err)
		}
	}

	if err := c.buildNotifier(ctx); err != nil {
		c.Close()
		return nil, err
	}

	gw, err := gateway.New(gateway.Config{Type: cfg.Gateway.Type, Timeout: cfg.Gateway.Timeout})
	if err != nil {
		c.Close()
		return nil, err
	}

	c.buildServices(gw)
	return c, nil
}

func (c *Container) buildNotifier(ctx context.Context) error {
	cfg := c.Config

	var email service.EmailSender
	switch cfg.Email.Provider {
	case "smtp":
		email = service.NewSMTPEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.Email.From)
	case "sendgrid":
		email = service.NewSendGridEmailSender(cfg.SendGrid.APIKey, cfg.Email.From, cfg.Email.FromName)
	default:
		email = service.NewLogEmailSender()
	}
	logger.Info("Email provider configured", "provider", cfg.Email.Provider)

	var push service.PushSender
	if cfg.Firebase.Enabled {
		p, err := service.NewFCMPushSender(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return err
		}
		push = p
		logger.Info("Push notifications enabled", "project", cfg.Firebase.ProjectID)
	}

	c.Dispatcher = service.NewDispatcher(c.Store.NotificationRepository, c.Store.UserRepository, email, push)

	switch cfg.Notifications.Mode {
	case "queue":
		client := asynq.NewClient(c.RedisOpt())
		c.closers = append(c.closers, client.Close)
		c.Notifier = service.WithNotifyTimeout(queue.NewPublisher(client, cfg.Queue.Name), cfg.Notifications.Timeout)
		logger.Info("Notifications are queued", "queue", cfg.Queue.Name)
	default:
		c.Notifier = service.WithNotifyTimeout(c.Dispatcher, cfg.Notifications.Timeout)
	}
	return nil
}

func (c *Container) buildServices(gw gateway.PaymentGateway) {
	cfg := c.Config
	store := c.Store

	static := service.StaticSettings{
		PalletRule: *cfg.Pricing.StaticRule(0, domain.BookingTypePallet),
		AreaRule:   *cfg.Pricing.StaticRule(0, domain.BookingTypeAreaRental),
		Tiers:      cfg.Membership.Tiers,
	}
	var settingsCache service.SettingsCache
	if c.Cache.Enabled() {
		settingsCache = c.Cache
	}
	c.Settings = service.NewSettingsResolver(store.SettingsRepository, settingsCache, static)

	c.Membership = service.NewMembershipService(c.Settings, cfg.Membership.Tiers, store.PaymentRepository, store.UserRepository)
	c.Pricing = service.NewPricingService(c.Settings, c.Membership, store.BookingRepository, service.PricingDefaults{
		AreaMinimumSqFt: cfg.Pricing.DefaultAreaMinimum,
		PalletMonths:    cfg.Pricing.DefaultPalletMonths,
		AreaMonths:      cfg.Pricing.DefaultAreaMonths,
	})
	c.Capacity = service.NewCapacityService(store.WarehouseRepository)
	c.Booking = service.NewBookingService(store.BookingRepository, c.Capacity, c.Pricing, service.NewTeamAuthorizer(store.UserRepository), c.Notifier)
	c.Invoice = service.NewInvoiceService(
		store.InvoiceRepository,
		store.BookingRepository,
		store.ServiceOrderRepository,
		c.Settings,
		c.Pricing,
		c.Membership,
		c.Notifier,
		service.InvoiceOptions{
			TaxRatePercent:   cfg.Billing.TaxRatePercent,
			DueDays:          cfg.Billing.DueDays,
			Currency:         cfg.Billing.Currency,
			BatchConcurrency: cfg.Billing.BatchConcurrency,
		},
	)
	c.Payment = service.NewPaymentService(
		store.PaymentRepository,
		store.InvoiceRepository,
		store.BookingRepository,
		store.CreditRepository,
		store.UserRepository,
		gw,
		c.Booking,
		c.Membership,
		c.Notifier,
	)
	c.Task = service.NewTaskService(store.TaskRepository, c.Notifier, cfg.Tasks.MaxActivePerWorker)
	c.Claim = service.NewClaimService(store.ClaimRepository, store.BookingRepository, store.CreditRepository, store.UserRepository, c.Notifier, cfg.Claims.EscalationDays)
	c.Notification = service.NewNotificationService(store.NotificationRepository)
}

// RedisOpt returns the asynq connection options for the configured Redis.
func (c *Container) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Config.Redis.Addr, Password: c.Config.Redis.Password, DB: c.Config.Redis.DB}
}

// Ready checks the database and, when configured, Redis.
func (c *Container) Ready(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Cache.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// APIServices exposes the services the HTTP router needs.
func (c *Container) APIServices() httpapi.Services {
	return httpapi.Services{
		Capacity:     c.Capacity,
		Pricing:      c.Pricing,
		Membership:   c.Membership,
		Settings:     c.Settings,
		Booking:      c.Booking,
		Invoice:      c.Invoice,
		Payment:      c.Payment,
		Task:         c.Task,
		Claim:        c.Claim,
		Notification: c.Notification,
		Ping:         c.Ready,
	}
}

// JobRunner builds the runner for scheduled jobs.
func (c *Container) JobRunner() *jobs.JobRunner {
	return jobs.NewJobRunner(&jobs.Services{Invoice: c.Invoice, Claim: c.Claim, Task: c.Task}, c.Store.TaskRepository, c.Config)
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
