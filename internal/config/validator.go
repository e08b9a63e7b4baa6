package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "server.port")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidTransports returns the list of valid contact transports
func ValidTransports() []string {
	return []string{"webhook", "smtp", "none"}
}

// ValidModes returns the list of valid gin modes
func ValidModes() []string {
	return []string{"release", "debug", "test"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{"server.port", c.Server.Port, "must be between 1 and 65535"})
	}
	if !slices.Contains(ValidModes(), c.Server.Mode) {
		errs = append(errs, ValidationError{"server.mode", c.Server.Mode, "must be one of " + strings.Join(ValidModes(), ", ")})
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		errs = append(errs, ValidationError{"server.shutdown_timeout_seconds", c.Server.ShutdownTimeoutSeconds, "must not be negative"})
	}

	if c.Content.Path == "" {
		errs = append(errs, ValidationError{"content.path", c.Content.Path, "must not be empty"})
	}

	if !slices.Contains(ValidTransports(), c.Contact.Transport) {
		errs = append(errs, ValidationError{"contact.transport", c.Contact.Transport, "must be one of " + strings.Join(ValidTransports(), ", ")})
	}
	if c.Contact.WebhookURL != "" {
		u, err := url.Parse(c.Contact.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{"contact.webhook_url", c.Contact.WebhookURL, "must be an absolute http(s) URL"})
		}
	}
	if c.Contact.TimeoutSeconds < 1 {
		errs = append(errs, ValidationError{"contact.timeout_seconds", c.Contact.TimeoutSeconds, "must be at least 1"})
	}
	if c.Contact.RetryIntervalSeconds < 0 {
		errs = append(errs, ValidationError{"contact.retry_interval_seconds", c.Contact.RetryIntervalSeconds, "must not be negative"})
	}
	if c.Contact.MaxAttempts < 1 {
		errs = append(errs, ValidationError{"contact.max_attempts", c.Contact.MaxAttempts, "must be at least 1"})
	}

	if c.Database.Path == "" {
		errs = append(errs, ValidationError{"database.path", c.Database.Path, "must not be empty"})
	}

	if c.Tracking.RetentionDays < 1 {
		errs = append(errs, ValidationError{"tracking.retention_days", c.Tracking.RetentionDays, "must be at least 1"})
	}

	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level, "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}

	return errs
}
