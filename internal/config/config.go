package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	MTN       MTNConfig       `mapstructure:",squash"`
	Airtel    AirtelConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"DATABASE_URL"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	PenaltyCronSpec string `mapstructure:"PENALTY_CRON_SPEC"`
	Timezone        string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	ServiceChargeRate    string `mapstructure:"SERVICE_CHARGE_RATE"`
	PenaltyRate          string `mapstructure:"PENALTY_RATE"`
	PenaltyCapRate       string `mapstructure:"PENALTY_CAP_RATE"`
	MaxPrincipal         string `mapstructure:"MAX_PRINCIPAL"`
	OverpaymentTolerance string `mapstructure:"OVERPAYMENT_TOLERANCE"`
	LoanDurationHours    int    `mapstructure:"LOAN_DURATION_HOURS"`
	SuspendAfterHours    int    `mapstructure:"SUSPEND_AFTER_HOURS_OVERDUE"`
	SystemActorID        int64  `mapstructure:"SYSTEM_ACTOR_ID"`
	LoanCacheTTL         string `mapstructure:"LOAN_CACHE_TTL"`
}

type MTNConfig struct {
	BaseURL         string `mapstructure:"MTN_MOMO_BASE_URL"`
	SubscriptionKey string `mapstructure:"MTN_MOMO_SUBSCRIPTION_KEY"`
	APIUser         string `mapstructure:"MTN_MOMO_API_USER"`
	APIKey          string `mapstructure:"MTN_MOMO_API_KEY"`
}

type AirtelConfig struct {
	BaseURL      string `mapstructure:"AIRTEL_BASE_URL"`
	ClientID     string `mapstructure:"AIRTEL_CLIENT_ID"`
	ClientSecret string `mapstructure:"AIRTEL_CLIENT_SECRET"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 20)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PENALTY_CRON_SPEC", "0 0 * * * *")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Africa/Kampala")
	viper.SetDefault("SERVICE_CHARGE_RATE", "0.10")
	viper.SetDefault("PENALTY_RATE", "0.05")
	viper.SetDefault("PENALTY_CAP_RATE", "0.50")
	viper.SetDefault("MAX_PRINCIPAL", "50000000")
	viper.SetDefault("OVERPAYMENT_TOLERANCE", "0.01")
	viper.SetDefault("LOAN_DURATION_HOURS", 24)
	viper.SetDefault("SUSPEND_AFTER_HOURS_OVERDUE", 72)
	viper.SetDefault("SYSTEM_ACTOR_ID", 1)
	viper.SetDefault("LOAN_CACHE_TTL", "60s")
	viper.SetDefault("MTN_MOMO_BASE_URL", "https://sandbox.momodeveloper.mtn.com")
	viper.SetDefault("AIRTEL_BASE_URL", "https://openapi.airtel.africa")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	for key, value := range map[string]string{
		"SERVICE_CHARGE_RATE":   c.Business.ServiceChargeRate,
		"PENALTY_RATE":          c.Business.PenaltyRate,
		"PENALTY_CAP_RATE":      c.Business.PenaltyCapRate,
		"MAX_PRINCIPAL":         c.Business.MaxPrincipal,
		"OVERPAYMENT_TOLERANCE": c.Business.OverpaymentTolerance,
	} {
		if _, err := decimal.NewFromString(value); err != nil {
			return fmt.Errorf("%s must be a valid decimal: %w", key, err)
		}
	}

	if c.Business.LoanDurationHours <= 0 {
		return fmt.Errorf("LOAN_DURATION_HOURS must be greater than 0")
	}

	if c.Business.SuspendAfterHours <= 0 {
		return fmt.Errorf("SUSPEND_AFTER_HOURS_OVERDUE must be greater than 0")
	}

	if c.Business.SystemActorID <= 0 {
		return fmt.Errorf("SYSTEM_ACTOR_ID must be greater than 0")
	}

	if _, err := time.ParseDuration(c.Business.LoanCacheTTL); err != nil {
		return fmt.Errorf("LOAN_CACHE_TTL must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetServiceChargeRate returns the service charge rate as decimal
func (c *Config) GetServiceChargeRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.ServiceChargeRate)
	return rate
}

// GetPenaltyRate returns the per-period penalty rate as decimal
func (c *Config) GetPenaltyRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.PenaltyRate)
	return rate
}

// GetPenaltyCapRate returns the penalty cap rate as decimal
func (c *Config) GetPenaltyCapRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.PenaltyCapRate)
	return rate
}

// GetMaxPrincipal returns the principal ceiling as decimal
func (c *Config) GetMaxPrincipal() decimal.Decimal {
	ceiling, _ := decimal.NewFromString(c.Business.MaxPrincipal)
	return ceiling
}

// GetOverpaymentTolerance returns the overpayment tolerance as decimal
func (c *Config) GetOverpaymentTolerance() decimal.Decimal {
	tolerance, _ := decimal.NewFromString(c.Business.OverpaymentTolerance)
	return tolerance
}

// GetLoanDuration returns how long after issuance a loan falls due
func (c *Config) GetLoanDuration() time.Duration {
	return time.Duration(c.Business.LoanDurationHours) * time.Hour
}

// GetSuspendCutoff returns how long a loan may stay overdue before the
// rider is suspended
func (c *Config) GetSuspendCutoff() time.Duration {
	return time.Duration(c.Business.SuspendAfterHours) * time.Hour
}

// GetLoanCacheTTL returns the loan read-cache TTL as duration
func (c *Config) GetLoanCacheTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.LoanCacheTTL)
	return ttl
}
