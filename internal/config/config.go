package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"warehub-backend/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig       `yaml:"server" envconfig:"SERVER"`
	Database      DatabaseConfig     `yaml:"database" envconfig:"DB"`
	Redis         RedisConfig        `yaml:"redis" envconfig:"REDIS"`
	SMTP          SMTPConfig         `yaml:"smtp" envconfig:"SMTP"`
	Email         EmailConfig        `yaml:"email" envconfig:"EMAIL"`
	SendGrid      SendGridConfig     `yaml:"sendgrid" envconfig:"SENDGRID"`
	Firebase      FirebaseConfig     `yaml:"firebase" envconfig:"FIREBASE"`
	JWT           JWTConfig          `yaml:"jwt" envconfig:"JWT"`
	Log           LogConfig          `yaml:"log" envconfig:"LOG"`
	Billing       BillingConfig      `yaml:"billing" envconfig:"BILLING"`
	Pricing       PricingConfig      `yaml:"pricing" envconfig:"PRICING"`
	Membership    MembershipConfig   `yaml:"membership" ignored:"true"`
	Tasks         TaskConfig         `yaml:"tasks" envconfig:"TASKS"`
	Claims        ClaimsConfig       `yaml:"claims" envconfig:"CLAIMS"`
	Notifications NotificationConfig `yaml:"notifications" envconfig:"NOTIFICATIONS"`
	Gateway       GatewayConfig      `yaml:"gateway" envconfig:"GATEWAY"`
	Queue         QueueConfig        `yaml:"queue" envconfig:"QUEUE"`
	Scheduler     SchedulerConfig    `yaml:"scheduler" envconfig:"SCHEDULER"`
}

// ServerConfig contains HTTP and gRPC health server settings
type ServerConfig struct {
	Host               string        `yaml:"host" envconfig:"HOST"`
	Port               int           `yaml:"port" envconfig:"PORT"`
	GRPCPort           int           `yaml:"grpc_port" envconfig:"GRPC_PORT"`
	ReadTimeout        time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout       time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute" envconfig:"RATE_LIMIT_PER_MINUTE"`
	IsDevelopment      bool          `yaml:"is_development" envconfig:"IS_DEVELOPMENT"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	User     string `yaml:"user" envconfig:"USER"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	Database string `yaml:"database" envconfig:"NAME"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"SSL_MODE"`
}

// RedisConfig backs the settings cache and the notification queue
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"ADDR"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	DB       int    `yaml:"db" envconfig:"DB"`
}

// SMTPConfig contains email service settings
type SMTPConfig struct {
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	User     string `yaml:"user" envconfig:"USER"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	From     string `yaml:"from" envconfig:"FROM"`
}

// EmailConfig selects the email provider: "smtp", "sendgrid" or "log"
type EmailConfig struct {
	Provider string `yaml:"provider" envconfig:"PROVIDER"`
	From     string `yaml:"from" envconfig:"FROM"`
	FromName string `yaml:"from_name" envconfig:"FROM_NAME"`
}

type SendGridConfig struct {
	APIKey string `yaml:"api_key" envconfig:"API_KEY"`
}

// FirebaseConfig enables push delivery through FCM
type FirebaseConfig struct {
	Enabled         bool   `yaml:"enabled" envconfig:"ENABLED"`
	ProjectID       string `yaml:"project_id" envconfig:"PROJECT_ID"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// JWTConfig contains bearer token settings
type JWTConfig struct {
	Secret         string `yaml:"secret" envconfig:"SECRET"`
	Issuer         string `yaml:"issuer" envconfig:"ISSUER"`
	DevTokenExpiry int    `yaml:"dev_token_expiry_minutes" envconfig:"DEV_TOKEN_EXPIRY_MINUTES"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" envconfig:"FORMAT"` // "json" or "text"
}

// BillingConfig contains invoice settings
type BillingConfig struct {
	TaxRatePercent   decimal.Decimal `yaml:"tax_rate_percent" envconfig:"TAX_RATE_PERCENT"`
	DueDays          int             `yaml:"due_days" envconfig:"DUE_DAYS"`
	Currency         string          `yaml:"currency" envconfig:"CURRENCY"`
	BatchConcurrency int             `yaml:"batch_concurrency" envconfig:"BATCH_CONCURRENCY"`
}

// StaticRate is the compiled-in fallback rate for one booking type
type StaticRate struct {
	BasePrice       decimal.Decimal         `yaml:"base_price"`
	Unit            domain.PriceUnit        `yaml:"unit"`
	MinQuantity     *int32                  `yaml:"min_quantity"`
	MaxQuantity     *int32                  `yaml:"max_quantity"`
	VolumeDiscounts []domain.VolumeDiscount `yaml:"volume_discounts"`
}

// PricingConfig contains the static pricing fallback and resolver settings
type PricingConfig struct {
	Pallet              StaticRate    `yaml:"pallet" ignored:"true"`
	Area                StaticRate    `yaml:"area" ignored:"true"`
	DefaultAreaMinimum  int32         `yaml:"default_area_minimum_sq_ft" envconfig:"DEFAULT_AREA_MINIMUM_SQ_FT"`
	DefaultPalletMonths int32         `yaml:"default_pallet_months" envconfig:"DEFAULT_PALLET_MONTHS"`
	DefaultAreaMonths   int32         `yaml:"default_area_months" envconfig:"DEFAULT_AREA_MONTHS"`
	CacheTTL            time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
}

// MembershipConfig is the static tier table used when the store has none
type MembershipConfig struct {
	Tiers []domain.MembershipTierSetting `yaml:"tiers"`
}

type TaskConfig struct {
	MaxActivePerWorker int `yaml:"max_active_per_worker" envconfig:"MAX_ACTIVE_PER_WORKER"`
}

type ClaimsConfig struct {
	EscalationDays int `yaml:"escalation_days" envconfig:"ESCALATION_DAYS"`
}

// NotificationConfig selects "direct" delivery or the "queue" worker
type NotificationConfig struct {
	Mode    string        `yaml:"mode" envconfig:"MODE"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// GatewayConfig selects the payment gateway adapter
type GatewayConfig struct {
	Type    string        `yaml:"type" envconfig:"TYPE"` // "mock"
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// QueueConfig contains asynq worker settings
type QueueConfig struct {
	Concurrency int    `yaml:"concurrency" envconfig:"CONCURRENCY"`
	Name        string `yaml:"name" envconfig:"NAME"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	GenerateMonthlyInvoices string `yaml:"generate_monthly_invoices" envconfig:"GENERATE_MONTHLY_INVOICES"`
	EscalatePendingClaims   string `yaml:"escalate_pending_claims" envconfig:"ESCALATE_PENDING_CLAIMS"`
	AutoAssignPendingTasks  string `yaml:"auto_assign_pending_tasks" envconfig:"AUTO_ASSIGN_PENDING_TASKS"`
	BalanceWorkload         string `yaml:"balance_workload" envconfig:"BALANCE_WORKLOAD"`
	SendInvoiceReminders    string `yaml:"send_invoice_reminders" envconfig:"SEND_INVOICE_REMINDERS"`
}

// Load reads configuration from a YAML file, then applies environment overrides.
// An empty path loads from the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Unset variables leave the YAML values in place
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 9090
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = 120
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "warehub"
	}
	if c.JWT.DevTokenExpiry == 0 {
		c.JWT.DevTokenExpiry = 60
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Email validation
	switch c.Email.Provider {
	case "":
		c.Email.Provider = "log"
	case "smtp":
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP host is required")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return fmt.Errorf("invalid SMTP port: %d", c.SMTP.Port)
		}
	case "sendgrid":
		if c.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid api key is required")
		}
	case "log":
	default:
		return fmt.Errorf("unknown email provider: %s", c.Email.Provider)
	}
	if c.Email.From == "" {
		c.Email.From = c.SMTP.From
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "WareHub"
	}

	if c.Firebase.Enabled && c.Firebase.CredentialsFile == "" {
		return fmt.Errorf("firebase credentials file is required when push is enabled")
	}

	c.Billing.setDefaults()
	c.Pricing.setDefaults()
	c.Membership.setDefaults()

	if c.Tasks.MaxActivePerWorker == 0 {
		c.Tasks.MaxActivePerWorker = 5
	}
	if c.Claims.EscalationDays == 0 {
		c.Claims.EscalationDays = 7
	}

	switch c.Notifications.Mode {
	case "":
		c.Notifications.Mode = "direct"
	case "direct":
	case "queue":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required for queued notifications")
		}
	default:
		return fmt.Errorf("unknown notification mode: %s", c.Notifications.Mode)
	}
	if c.Notifications.Timeout == 0 {
		c.Notifications.Timeout = 5 * time.Second
	}

	if c.Gateway.Type == "" {
		c.Gateway.Type = "mock"
	}
	if c.Gateway.Type != "mock" {
		return fmt.Errorf("unsupported payment gateway: %s", c.Gateway.Type)
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 10 * time.Second
	}

	if c.Queue.Concurrency == 0 {
		c.Queue.Concurrency = 10
	}
	if c.Queue.Name == "" {
		c.Queue.Name = "notifications"
	}

	// Scheduler defaults
	if c.Scheduler.GenerateMonthlyInvoices == "" {
		c.Scheduler.GenerateMonthlyInvoices = "0 0 1 1 * *" // 1st of month at 1 AM UTC
	}
	if c.Scheduler.EscalatePendingClaims == "" {
		c.Scheduler.EscalatePendingClaims = "0 0 6 * * *" // 6 AM UTC
	}
	if c.Scheduler.AutoAssignPendingTasks == "" {
		c.Scheduler.AutoAssignPendingTasks = "0 */15 * * * *" // Every 15 minutes
	}
	if c.Scheduler.BalanceWorkload == "" {
		c.Scheduler.BalanceWorkload = "0 5 * * * *" // Hourly
	}
	if c.Scheduler.SendInvoiceReminders == "" {
		c.Scheduler.SendInvoiceReminders = "0 0 9 * * *" // Daily at 9 AM UTC
	}

	return nil
}

func (b *BillingConfig) setDefaults() {
	if b.TaxRatePercent.IsZero() {
		b.TaxRatePercent = decimal.NewFromInt(8)
	}
	if b.DueDays == 0 {
		b.DueDays = 30
	}
	if b.Currency == "" {
		b.Currency = "USD"
	}
	if b.BatchConcurrency == 0 {
		b.BatchConcurrency = 4
	}
}

func (p *PricingConfig) setDefaults() {
	if p.Pallet.BasePrice.IsZero() {
		p.Pallet.BasePrice = decimal.RequireFromString("17.50")
		p.Pallet.Unit = domain.PriceUnitMonth
		if p.Pallet.VolumeDiscounts == nil {
			p.Pallet.VolumeDiscounts = []domain.VolumeDiscount{
				{MinQuantity: 100, DiscountPercent: decimal.NewFromInt(5)},
				{MinQuantity: 500, DiscountPercent: decimal.NewFromInt(10)},
			}
		}
	}
	if p.Pallet.Unit == "" {
		p.Pallet.Unit = domain.PriceUnitMonth
	}
	if p.Area.BasePrice.IsZero() {
		p.Area.BasePrice = decimal.RequireFromString("9.00")
	}
	if p.Area.Unit == "" {
		p.Area.Unit = domain.PriceUnitYear
	}
	if p.DefaultAreaMinimum == 0 {
		p.DefaultAreaMinimum = 40000
	}
	if p.DefaultPalletMonths == 0 {
		p.DefaultPalletMonths = 1
	}
	if p.DefaultAreaMonths == 0 {
		p.DefaultAreaMonths = 12
	}
	if p.CacheTTL == 0 {
		p.CacheTTL = 5 * time.Minute
	}
}

func (m *MembershipConfig) setDefaults() {
	if len(m.Tiers) > 0 {
		return
	}
	m.Tiers = []domain.MembershipTierSetting{
		{Tier: domain.MembershipTierBronze, MinSpend: decimal.Zero, DiscountPercent: decimal.Zero},
		{Tier: domain.MembershipTierSilver, MinSpend: decimal.NewFromInt(10000), DiscountPercent: decimal.NewFromInt(5)},
		{Tier: domain.MembershipTierGold, MinSpend: decimal.NewFromInt(50000), DiscountPercent: decimal.NewFromInt(10)},
		{Tier: domain.MembershipTierPlatinum, MinSpend: decimal.NewFromInt(100000), DiscountPercent: decimal.NewFromInt(15)},
	}
}

// StaticRule returns the fallback pricing rule for a booking type
func (p PricingConfig) StaticRule(warehouseID int32, bookingType domain.BookingType) *domain.PricingRule {
	rate := p.Pallet
	if bookingType == domain.BookingTypeAreaRental {
		rate = p.Area
	}
	rule := &domain.PricingRule{
		WarehouseID:     warehouseID,
		BookingType:     bookingType,
		BasePrice:       rate.BasePrice,
		Unit:            rate.Unit,
		MinQuantity:     rate.MinQuantity,
		MaxQuantity:     rate.MaxQuantity,
		VolumeDiscounts: rate.VolumeDiscounts,
	}
	if bookingType == domain.BookingTypeAreaRental {
		// Area rentals never get volume discounts
		rule.VolumeDiscounts = nil
		if rule.MinQuantity == nil {
			min := p.DefaultAreaMinimum
			rule.MinQuantity = &min
		}
	}
	return rule
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the health server address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
