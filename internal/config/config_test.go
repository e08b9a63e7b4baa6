package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "webhook", cfg.Contact.Transport)
	assert.Equal(t, "content/portfolio.jsonc", cfg.Content.Path)
	assert.Equal(t, 365, cfg.Tracking.RetentionDays)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TERMFOLIO_CONTACT_WEBHOOK_URL", "https://hooks.example.com/abc")
	t.Setenv("TERMFOLIO_LOGGING_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_PASSWORD", "hunter2")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/abc", cfg.Contact.WebhookURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "hunter2", cfg.Admin.Password)
}

func TestLoadPrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TERMFOLIO_SERVER_PORT", "7070")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termfolio.yaml")
	data := []byte("server:\n  port: 3000\ncontact:\n  transport: smtp\n  smtp:\n    to: me@example.com\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "smtp", cfg.Contact.Transport)
	assert.Equal(t, "me@example.com", cfg.Contact.SMTP.To)
	assert.Equal(t, 587, cfg.Contact.SMTP.Port)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad mode", func(c *Config) { c.Server.Mode = "fast" }, "server.mode"},
		{"bad transport", func(c *Config) { c.Contact.Transport = "pigeon" }, "contact.transport"},
		{"relative webhook", func(c *Config) { c.Contact.WebhookURL = "/hook" }, "contact.webhook_url"},
		{"zero attempts", func(c *Config) { c.Contact.MaxAttempts = 0 }, "contact.max_attempts"},
		{"negative retry", func(c *Config) { c.Contact.RetryIntervalSeconds = -1 }, "contact.retry_interval_seconds"},
		{"no retention", func(c *Config) { c.Tracking.RetentionDays = 0 }, "tracking.retention_days"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"empty db", func(c *Config) { c.Database.Path = "" }, "database.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: 2, Message: "worse"},
	}
	assert.Contains(t, errs.Error(), "2 validation errors")
	assert.Contains(t, errs.Error(), "b: worse (got: 2)")
	assert.Equal(t, "a: bad (got: 1)", errs[:1].Error())
}
