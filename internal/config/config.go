// Package config provides application configuration management.
// It loads settings from environment variables (optionally from a .env
// file) and validates them before the application starts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/garyellow/storebot/internal/catalog"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Data directory for the SQLite database

	// Metrics Authentication
	MetricsUsername string // Username for /metrics Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics Basic Auth (empty = no auth)

	// Observability
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64
	BetterStackToken  string

	Bot       BotConfig
	WhatsApp  WhatsAppConfig
	Line      LineConfig
	Simulator SimulatorConfig
	R2        R2Config
}

// BotConfig holds conversation engine configuration
type BotConfig struct {
	DefaultLanguage string        // Language for new conversations and unauthorized replies ("en" or "he")
	VATPercent      float64       // VAT added when the entered price excludes VAT (default: 18)
	WebhookTimeout  time.Duration // Timeout for one inbound event

	// Per-identity token bucket
	UserRateBurst  float64 // Maximum burst tokens per identity (default: 20)
	UserRateRefill float64 // Tokens refilled per second (default: 1)
}

// WhatsAppConfig holds WhatsApp Cloud API credentials. Empty Token disables the channel.
type WhatsAppConfig struct {
	Token         string
	PhoneNumberID string
	VerifyToken   string
	AppSecret     string // Optional: enables X-Hub-Signature-256 verification
	APIBase       string
}

// LineConfig holds LINE Messaging API credentials. Empty ChannelToken disables the channel.
type LineConfig struct {
	ChannelToken  string
	ChannelSecret string
}

// SimulatorConfig holds browser simulator settings. Empty JWTSecret disables the simulator.
type SimulatorConfig struct {
	JWTSecret string
}

// R2Config holds Cloudflare R2 settings used by the media archive and snapshots.
type R2Config struct {
	AccountID        string
	AccessKeyID      string
	SecretAccessKey  string
	BucketName       string
	PublicBaseURL    string
	SnapshotPrefix   string
	SnapshotInterval time.Duration // 0 disables snapshots
}

// Mode selects which settings are required.
type Mode int

const (
	// ServerMode requires at least one inbound channel.
	ServerMode Mode = iota
	// AdminMode is for cmd/admin, which only touches the database and R2.
	AdminMode
)

// Load reads configuration for the server.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables.
// It attempts to load .env file first, then reads from env vars
func LoadForMode(mode Mode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),

		DataDir: getEnv(EnvDataDir, getDefaultDataDir()),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),
		BetterStackToken:  getEnv(EnvBetterStackToken, ""),

		Bot: BotConfig{
			DefaultLanguage: strings.ToLower(getEnv(EnvDefaultLanguage, "he")),
			VATPercent:      getFloatEnv(EnvVATPercent, catalog.DefaultVATPercent),
			WebhookTimeout:  getDurationEnv(EnvWebhookTimeout, WebhookProcessing),
			UserRateBurst:   getFloatEnv(EnvUserRateBurst, 20),
			UserRateRefill:  getFloatEnv(EnvUserRateRefill, 1),
		},

		WhatsApp: WhatsAppConfig{
			Token:         getEnv(EnvWhatsAppToken, ""),
			PhoneNumberID: getEnv(EnvWhatsAppPhoneNumberID, ""),
			VerifyToken:   getEnv(EnvWhatsAppVerifyToken, ""),
			AppSecret:     getEnv(EnvWhatsAppAppSecret, ""),
			APIBase:       getEnv(EnvWhatsAppAPIBase, "https://graph.facebook.com/v21.0"),
		},

		Line: LineConfig{
			ChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
			ChannelSecret: getEnv(EnvLineChannelSecret, ""),
		},

		Simulator: SimulatorConfig{
			JWTSecret: getEnv(EnvSimulatorJWTSecret, ""),
		},

		R2: R2Config{
			AccountID:        getEnv(EnvR2AccountID, ""),
			AccessKeyID:      getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey:  getEnv(EnvR2SecretAccessKey, ""),
			BucketName:       getEnv(EnvR2BucketName, ""),
			PublicBaseURL:    strings.TrimRight(getEnv(EnvR2PublicBaseURL, ""), "/"),
			SnapshotPrefix:   getEnv(EnvR2SnapshotPrefix, "snapshots/"),
			SnapshotInterval: getDurationEnv(EnvR2SnapshotInterval, 6*time.Hour),
		},
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for the server.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks if required configuration values are set
func (c *Config) ValidateForMode(mode Mode) error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New(EnvDataDir+" is required"))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}
	if mode == ServerMode && !c.WhatsAppEnabled() && !c.LineEnabled() && !c.SimulatorEnabled() {
		errs = append(errs, errors.New("at least one channel (WhatsApp, LINE or simulator) must be configured"))
	}
	if c.WhatsAppEnabled() {
		if c.WhatsApp.PhoneNumberID == "" {
			errs = append(errs, errors.New(EnvWhatsAppPhoneNumberID+" is required when WhatsApp is enabled"))
		}
		if c.WhatsApp.VerifyToken == "" {
			errs = append(errs, errors.New(EnvWhatsAppVerifyToken+" is required when WhatsApp is enabled"))
		}
	}
	if c.LineEnabled() && c.Line.ChannelSecret == "" {
		errs = append(errs, errors.New(EnvLineChannelSecret+" is required when LINE is enabled"))
	}
	if c.R2Enabled() && c.R2.PublicBaseURL == "" {
		errs = append(errs, errors.New(EnvR2PublicBaseURL+" is required when R2 is enabled"))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be between 0 and 1, got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}

	return errors.Join(errs...)
}

// Validate checks the conversation engine settings.
func (b BotConfig) Validate() error {
	var errs []error
	if b.DefaultLanguage != "en" && b.DefaultLanguage != "he" {
		errs = append(errs, fmt.Errorf("%s must be en or he, got %q", EnvDefaultLanguage, b.DefaultLanguage))
	}
	if b.VATPercent < 0 || b.VATPercent > 100 {
		errs = append(errs, fmt.Errorf("%s must be between 0 and 100, got %v", EnvVATPercent, b.VATPercent))
	}
	if b.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvWebhookTimeout, b.WebhookTimeout))
	}
	if b.UserRateBurst <= 0 || b.UserRateRefill <= 0 {
		errs = append(errs, errors.New("user rate limit burst and refill must be positive"))
	}
	return errors.Join(errs...)
}

// WhatsAppEnabled reports whether the WhatsApp channel is configured.
func (c *Config) WhatsAppEnabled() bool { return c.WhatsApp.Token != "" }

// LineEnabled reports whether the LINE channel is configured.
func (c *Config) LineEnabled() bool { return c.Line.ChannelToken != "" }

// SimulatorEnabled reports whether the browser simulator is configured.
func (c *Config) SimulatorEnabled() bool { return c.Simulator.JWTSecret != "" }

// R2Enabled reports whether all R2 credentials are present.
func (c *Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.AccessKeyID != "" && c.R2.SecretAccessKey != "" && c.R2.BucketName != ""
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "storebot.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
