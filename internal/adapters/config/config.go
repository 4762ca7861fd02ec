package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config represents application configuration
type Config struct {
	Digest     DigestConfig
	News       NewsConfig
	AI         AIConfig
	Email      EmailConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
	Telegram   TelegramConfig
	Logging    LoggingConfig
}

// DigestConfig represents digest job parameters
type DigestConfig struct {
	CronSchedule     string        `envconfig:"CRON_SCHEDULE" default:"0 8 * * *" validate:"required"`
	SendDelay        time.Duration `envconfig:"SEND_DELAY" default:"600ms" validate:"gte=0"`
	SendRatePerSec   float64       `envconfig:"SEND_RATE_PER_SEC" default:"0" validate:"gte=0"`
	MinScore         int           `envconfig:"MIN_SCORE" default:"2" validate:"min=1,max=10"`
	MaxEvents        int           `envconfig:"MAX_EVENTS" default:"5" validate:"min=1,max=50"`
	DefaultTimezone  string        `envconfig:"DEFAULT_TIMEZONE" default:"America/Chicago" validate:"required"`
	AppURL           string        `envconfig:"APP_URL" default:"http://localhost:3000" validate:"required,url"`
	CronSecret       string        `envconfig:"CRON_SECRET"`
	HTTPPort         int           `envconfig:"HTTP_PORT" default:"8080" validate:"min=1,max=65535"`
	RunTimeout       time.Duration `envconfig:"RUN_TIMEOUT" default:"30m"`
	LogRetentionDays int           `envconfig:"DELIVERY_LOG_RETENTION_DAYS" default:"90" validate:"min=1"`
}

// NewsConfig represents news source configuration
type NewsConfig struct {
	APIKey   string        `envconfig:"NEWS_API_KEY"`
	APIURL   string        `envconfig:"NEWS_API_URL" default:"https://newsapi.org/v2/everything"`
	RSSFeeds []string      `envconfig:"RSS_FEEDS"`
	Timeout  time.Duration `envconfig:"NEWS_TIMEOUT" default:"15s"`
	CacheTTL time.Duration `envconfig:"NEWS_CACHE_TTL" default:"30m"`
}

// AIConfig represents narrative delegate configuration
type AIConfig struct {
	Provider string `envconfig:"NARRATIVE_PROVIDER" default:"auto" validate:"oneof=auto openai claude gemini deepseek heuristic"`

	OpenAI   AIProviderConfig `ignored:"true"`
	Claude   AIProviderConfig `ignored:"true"`
	Gemini   AIProviderConfig `ignored:"true"`
	DeepSeek AIProviderConfig `ignored:"true"`
}

// AIProviderConfig represents single AI provider configuration
type AIProviderConfig struct {
	APIKey      string        `envconfig:"API_KEY"`
	BaseURL     string        `envconfig:"BASE_URL"`
	Model       string        `envconfig:"MODEL"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MaxTokens   int           `envconfig:"MAX_TOKENS" default:"2000"`
	Temperature float64       `envconfig:"TEMPERATURE" default:"0.3"`
}

// Enabled reports whether the provider has credentials
func (c AIProviderConfig) Enabled() bool {
	return c.APIKey != ""
}

// EmailConfig represents email delivery configuration
type EmailConfig struct {
	From           string        `envconfig:"EMAIL_FROM" default:"Portfolio Coffee Mate <noreply@example.com>"`
	ResendAPIKey   string        `envconfig:"RESEND_API_KEY"`
	SendGridAPIKey string        `envconfig:"SENDGRID_API_KEY"`
	SMTPHost       string        `envconfig:"SMTP_HOST"`
	SMTPPort       int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser       string        `envconfig:"SMTP_USER"`
	SMTPPassword   string        `envconfig:"SMTP_PASSWORD"`
	Timeout        time.Duration `envconfig:"EMAIL_TIMEOUT" default:"15s"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	URL           string `envconfig:"DATABASE_URL"`
	Host          string `envconfig:"DB_HOST" default:"localhost"`
	Port          int    `envconfig:"DB_PORT" default:"5432"`
	Name          string `envconfig:"DB_NAME" default:"digest"`
	User          string `envconfig:"DB_USER" default:"postgres"`
	Password      string `envconfig:"DB_PASSWORD"`
	SSLMode       string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`
}

// RedisConfig represents optional Redis configuration
type RedisConfig struct {
	Host     string        `envconfig:"REDIS_HOST"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL  time.Duration `envconfig:"REDIS_LOCK_TTL" default:"30m"`
}

// Enabled reports whether Redis is configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClickHouseConfig represents optional ClickHouse configuration
type ClickHouseConfig struct {
	Host          string        `envconfig:"CLICKHOUSE_HOST"`
	Port          int           `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database      string        `envconfig:"CLICKHOUSE_DATABASE" default:"digest"`
	User          string        `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password      string        `envconfig:"CLICKHOUSE_PASSWORD"`
	BatchSize     int           `envconfig:"CLICKHOUSE_BATCH_SIZE" default:"100"`
	FlushInterval time.Duration `envconfig:"CLICKHOUSE_FLUSH_INTERVAL" default:"10s"`
}

// Enabled reports whether ClickHouse is configured
func (c ClickHouseConfig) Enabled() bool {
	return c.Host != ""
}

// GetDSN returns ClickHouse connection string
func (c ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

// TelegramConfig represents optional operator notifications
type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// Enabled reports whether ops notifications are configured
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	File   string `envconfig:"LOG_FILE"`
	Format string `envconfig:"LOG_FORMAT" default:"console" validate:"oneof=console json"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	sections := []struct {
		prefix string
		target interface{}
	}{
		{"", &cfg.Digest},
		{"", &cfg.News},
		{"", &cfg.AI},
		{"OPENAI", &cfg.AI.OpenAI},
		{"ANTHROPIC", &cfg.AI.Claude},
		{"GEMINI", &cfg.AI.Gemini},
		{"DEEPSEEK", &cfg.AI.DeepSeek},
		{"", &cfg.Email},
		{"", &cfg.Database},
		{"", &cfg.Redis},
		{"", &cfg.ClickHouse},
		{"", &cfg.Telegram},
		{"", &cfg.Logging},
	}

	// Process environment variables
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.target); err != nil {
			return nil, fmt.Errorf("failed to process config: %w", err)
		}
	}

	cfg.applyModelDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyModelDefaults() {
	if c.AI.OpenAI.Model == "" {
		c.AI.OpenAI.Model = "gpt-4o-mini"
	}
	if c.AI.Claude.Model == "" {
		c.AI.Claude.Model = "claude-haiku-4-5-20251001"
	}
	if c.AI.Gemini.Model == "" {
		c.AI.Gemini.Model = "gemini-2.0-flash"
	}
	if c.AI.DeepSeek.Model == "" {
		c.AI.DeepSeek.Model = "deepseek-chat"
	}
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	v := validator.New()
	for _, section := range []interface{}{c.Digest, c.AI, c.Logging} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	if _, err := time.LoadLocation(c.Digest.DefaultTimezone); err != nil {
		return fmt.Errorf("default timezone %q is invalid: %w", c.Digest.DefaultTimezone, err)
	}

	if _, err := cron.ParseStandard(c.Digest.CronSchedule); err != nil {
		return fmt.Errorf("cron schedule %q is invalid: %w", c.Digest.CronSchedule, err)
	}

	if c.Email.SMTPHost != "" && c.Email.SMTPPort <= 0 {
		return fmt.Errorf("smtp port must be positive")
	}

	switch c.AI.Provider {
	case "openai":
		if !c.AI.OpenAI.Enabled() {
			return fmt.Errorf("narrative provider openai requires OPENAI_API_KEY")
		}
	case "claude":
		if !c.AI.Claude.Enabled() {
			return fmt.Errorf("narrative provider claude requires ANTHROPIC_API_KEY")
		}
	case "gemini":
		if !c.AI.Gemini.Enabled() {
			return fmt.Errorf("narrative provider gemini requires GEMINI_API_KEY")
		}
	case "deepseek":
		if !c.AI.DeepSeek.Enabled() {
			return fmt.Errorf("narrative provider deepseek requires DEEPSEEK_API_KEY")
		}
	}

	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram chat_id is required when bot token is set")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// MigrationURL returns a postgres:// URL for golang-migrate
func (c *DatabaseConfig) MigrationURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// Location returns the default subscriber timezone
func (c *DigestConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetEnabledAIProviders returns list of configured AI provider names in preference order
func (c *AIConfig) GetEnabledAIProviders() []string {
	var providers []string
	if c.OpenAI.Enabled() {
		providers = append(providers, "openai")
	}
	if c.Claude.Enabled() {
		providers = append(providers, "claude")
	}
	if c.Gemini.Enabled() {
		providers = append(providers, "gemini")
	}
	if c.DeepSeek.Enabled() {
		providers = append(providers, "deepseek")
	}
	return providers
}

// GetEnabledSenders returns the configured email providers in selection order
func (c *EmailConfig) GetEnabledSenders() []string {
	var senders []string
	if c.ResendAPIKey != "" {
		senders = append(senders, "resend")
	}
	if c.SendGridAPIKey != "" {
		senders = append(senders, "sendgrid")
	}
	if c.SMTPHost != "" {
		senders = append(senders, "smtp")
	}
	return append(senders, "console")
}

// String summarizes which optional integrations are on
func (c *Config) String() string {
	var on []string
	if c.Redis.Enabled() {
		on = append(on, "redis")
	}
	if c.ClickHouse.Enabled() {
		on = append(on, "clickhouse")
	}
	if c.Telegram.Enabled() {
		on = append(on, "telegram")
	}
	if len(on) == 0 {
		return "integrations: none"
	}
	return "integrations: " + strings.Join(on, ",")
}
