// Package config holds runtime configuration for sentinel: command-line
// settings, credentials read from the environment, and the optional tasks
// file with hot reload.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds settings shared by the run, probe and daemon commands.
type Config struct {
	// LogLevel is the default logging level (debug, info, warn, error)
	LogLevel string

	// TasksFile is an optional YAML file with additional task definitions
	TasksFile string

	// Model is the Anthropic model identifier
	Model string

	// MaxTokens bounds agent output tokens per turn
	MaxTokens int

	// AuditLog is an optional JSONL file recording every run
	AuditLog string

	// Pushgateway is an optional Prometheus Pushgateway URL for one-shot runs
	Pushgateway string

	// MetricsAddr is the daemon's /metrics listen address
	MetricsAddr string

	// TracingEndpoint is the OTLP gRPC endpoint; tracing is off when empty
	TracingEndpoint string

	// TracingCAPath is the CA certificate for TLS to the tracing endpoint
	TracingCAPath string

	// PDSURL overrides the Bluesky PDS host
	PDSURL string

	// SessionTTL bounds how long the daemon reuses a Bluesky session
	SessionTTL time.Duration

	// Render renders agent output as markdown instead of streaming it
	Render bool

	// DryRun replaces the hosted agent with a local one that answers SILENT
	DryRun bool
}

// TracingEnabled reports whether a tracing endpoint is configured.
func (c *Config) TracingEnabled() bool {
	return c.TracingEndpoint != ""
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.MaxTokens < 1 {
		return NewConfigError("max-tokens must be at least 1")
	}

	if c.Model == "" {
		return NewConfigError("model must not be empty")
	}

	if c.Pushgateway != "" {
		if err := validateURL(c.Pushgateway); err != nil {
			return NewConfigError(fmt.Sprintf("pushgateway: %v", err))
		}
	}

	if c.PDSURL != "" {
		if err := validateURL(c.PDSURL); err != nil {
			return NewConfigError(fmt.Sprintf("pds-url: %v", err))
		}
	}

	if c.TracingCAPath != "" && c.TracingEndpoint == "" {
		return NewConfigError("tracing-ca requires tracing-endpoint").
			WithHint("Set --tracing-endpoint to the OTLP gRPC collector address")
	}

	if c.SessionTTL < 0 {
		return NewConfigError("session-ttl must not be negative")
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// ConfigError represents a configuration error. It is reported before any
// network activity happens.
type ConfigError struct {
	message string
	hint    string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// WithHint attaches a remediation line shown below the error.
func (e *ConfigError) WithHint(hint string) *ConfigError {
	e.hint = hint
	return e
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}

// Hint returns the remediation line, if any.
func (e *ConfigError) Hint() string {
	return e.hint
}
