package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// TERMFOLIO_CONTACT_WEBHOOK_URL for contact.webhook_url.
const EnvPrefix = "TERMFOLIO"

// Config represents the complete site configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Content  ContentConfig  `mapstructure:"content"`
	Contact  ContactConfig  `mapstructure:"contact"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// Mode is the gin mode: "release" or "debug"
	Mode string `mapstructure:"mode"`
	// ShutdownTimeoutSeconds bounds graceful shutdown
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
	// Compress enables brotli/gzip response compression
	Compress bool `mapstructure:"compress"`
}

// ContentConfig locates the portfolio fixture and its assets
type ContentConfig struct {
	// Path is the fixture file (.json, .jsonc, .yaml or .yml)
	Path string `mapstructure:"path"`
	// Watch reloads the fixture when it changes on disk
	Watch bool `mapstructure:"watch"`
	// ImagesDir is served under /images
	ImagesDir string `mapstructure:"images_dir"`
	// ResumePath is served under /documents/resume.pdf
	ResumePath string `mapstructure:"resume_path"`
}

// ContactConfig controls where contact form submissions go
type ContactConfig struct {
	// Transport is "webhook", "smtp" or "none"
	Transport  string     `mapstructure:"transport"`
	WebhookURL string     `mapstructure:"webhook_url"`
	SMTP       SMTPConfig `mapstructure:"smtp"`
	// TimeoutSeconds bounds a single delivery attempt
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// RetryIntervalSeconds is how often failed submissions are redelivered (0 = disabled)
	RetryIntervalSeconds int `mapstructure:"retry_interval_seconds"`
	// MaxAttempts caps delivery attempts per submission
	MaxAttempts int `mapstructure:"max_attempts"`
}

// SMTPConfig holds mail relay settings for the smtp transport
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	To       string `mapstructure:"to"`
}

// DatabaseConfig locates the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AdminConfig holds dashboard credentials
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// TrackingConfig controls privacy-conscious visit tracking
type TrackingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// RetentionDays is how long visit rows are kept
	RetentionDays int `mapstructure:"retention_days"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   "",
			Port:                   8080,
			Mode:                   "release",
			ShutdownTimeoutSeconds: 10,
			Compress:               true,
		},
		Content: ContentConfig{
			Path:       "content/portfolio.jsonc",
			Watch:      false,
			ImagesDir:  "images",
			ResumePath: "documents/resume.pdf",
		},
		Contact: ContactConfig{
			Transport:            "webhook",
			TimeoutSeconds:       10,
			RetryIntervalSeconds: 300,
			MaxAttempts:          5,
			SMTP: SMTPConfig{
				Host: "smtp.gmail.com",
				Port: 587,
			},
		},
		Database: DatabaseConfig{
			Path: "termfolio.db",
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin123",
		},
		Tracking: TrackingConfig{
			Enabled:       true,
			RetentionDays: 365,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShutdownTimeout returns the graceful shutdown window as a time.Duration
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// Timeout returns the per-attempt delivery timeout as a time.Duration
func (c *ContactConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryInterval returns the redelivery interval (0 means disabled)
func (c *ContactConfig) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalSeconds) * time.Second
}

// Retention returns the visit retention window as a time.Duration
func (c *TrackingConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.mode", defaults.Server.Mode)
	v.SetDefault("server.shutdown_timeout_seconds", defaults.Server.ShutdownTimeoutSeconds)
	v.SetDefault("server.compress", defaults.Server.Compress)

	v.SetDefault("content.path", defaults.Content.Path)
	v.SetDefault("content.watch", defaults.Content.Watch)
	v.SetDefault("content.images_dir", defaults.Content.ImagesDir)
	v.SetDefault("content.resume_path", defaults.Content.ResumePath)

	v.SetDefault("contact.transport", defaults.Contact.Transport)
	v.SetDefault("contact.webhook_url", defaults.Contact.WebhookURL)
	v.SetDefault("contact.timeout_seconds", defaults.Contact.TimeoutSeconds)
	v.SetDefault("contact.retry_interval_seconds", defaults.Contact.RetryIntervalSeconds)
	v.SetDefault("contact.max_attempts", defaults.Contact.MaxAttempts)
	v.SetDefault("contact.smtp.host", defaults.Contact.SMTP.Host)
	v.SetDefault("contact.smtp.port", defaults.Contact.SMTP.Port)
	v.SetDefault("contact.smtp.username", defaults.Contact.SMTP.Username)
	v.SetDefault("contact.smtp.password", defaults.Contact.SMTP.Password)
	v.SetDefault("contact.smtp.to", defaults.Contact.SMTP.To)

	v.SetDefault("database.path", defaults.Database.Path)

	v.SetDefault("admin.username", defaults.Admin.Username)
	v.SetDefault("admin.password", defaults.Admin.Password)

	v.SetDefault("tracking.enabled", defaults.Tracking.Enabled)
	v.SetDefault("tracking.retention_days", defaults.Tracking.RetentionDays)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.development", defaults.Logging.Development)
}

// legacyEnv maps config keys to the plain environment variable names the
// site has always honored, alongside the TERMFOLIO_ prefixed ones.
var legacyEnv = map[string]string{
	"server.port":           "PORT",
	"admin.username":        "ADMIN_USERNAME",
	"admin.password":        "ADMIN_PASSWORD",
	"contact.webhook_url":   "WEBHOOK_URL",
	"contact.smtp.host":     "SMTP_HOST",
	"contact.smtp.port":     "SMTP_PORT",
	"contact.smtp.username": "SMTP_USER",
	"contact.smtp.password": "SMTP_PASS",
	"contact.smtp.to":       "TO_EMAIL",
}

// Load builds a Config from defaults, an optional config file and the
// environment. An empty configFile skips file loading.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config %s: %w", configFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config to struct : %w", err)
	}

	return &cfg, nil
}
