// Package config loads configuration from files, env vars, and flags, and validates it.
package config

import (
	"time"

	"efrenamer/internal/naming"
	"efrenamer/internal/rules"
	"efrenamer/internal/selection"
)

// Config holds the application configuration.
type Config struct {
	Model         ModelConfig         `mapstructure:"model"`
	Rules         rules.Config        `mapstructure:"rules"`
	Naming        naming.Config       `mapstructure:"naming"`
	Selection     selection.Config    `mapstructure:"selection"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	// WaitExit waits for Enter before the process exits (interactive debugging).
	WaitExit bool `mapstructure:"wait_exit"`
}

// ModelConfig locates the model file and controls how it is rewritten.
type ModelConfig struct {
	// File is the model (.edmx) to rename in place.
	File string `mapstructure:"file"`
	// DiagramSuffix is appended to File to find the companion diagram.
	DiagramSuffix string `mapstructure:"diagram_suffix"`
	// BackupEnabled copies each document before it is rewritten.
	BackupEnabled bool `mapstructure:"backup_enabled"`
	// BackupSuffixFormat is a Go time layout appended to backup file names.
	BackupSuffixFormat string `mapstructure:"backup_suffix_format"`
	// ValidateNamespace rejects type references outside the model namespace.
	ValidateNamespace bool `mapstructure:"validate_namespace"`
}

// LoggingConfig holds logging parameters.
type LoggingConfig struct {
	Level          string `mapstructure:"level"`           // debug, info, warn, error
	Format         string `mapstructure:"format"`          // json, text
	ExportsEnabled bool   `mapstructure:"exports_enabled"` // Enable OTLP log export
}

// ObservabilityConfig holds observability parameters.
type ObservabilityConfig struct {
	ServiceName      string        `mapstructure:"service_name"`
	ServiceVersion   string        `mapstructure:"service_version"`
	Environment      string        `mapstructure:"environment"`
	TracingEnabled   bool          `mapstructure:"tracing_enabled"`
	TraceSampleRatio float64       `mapstructure:"trace_sample_ratio"`
	Logging          LoggingConfig `mapstructure:"logging"`

	// MetricsTextfile, when set, receives the run's metrics in Prometheus
	// text format once the run ends.
	MetricsTextfile string `mapstructure:"metrics_textfile"`

	// Global OTLP settings (defaults for all signals)
	OTLP OTLPConfig `mapstructure:"otlp"`

	// Signal-specific overrides (optional)
	Traces *OTLPConfig `mapstructure:"traces,omitempty"`
	Logs   *OTLPConfig `mapstructure:"logs,omitempty"`
}

// MetricsEnabled reports whether run metrics are collected.
func (c *ObservabilityConfig) MetricsEnabled() bool {
	return c.MetricsTextfile != ""
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Endpoint          string            `mapstructure:"endpoint"`
	Protocol          string            `mapstructure:"protocol"` // "grpc", "http/protobuf"
	Insecure          bool              `mapstructure:"insecure"`
	TLSCertFile       string            `mapstructure:"tls_cert_file"`
	TLSClientCertFile string            `mapstructure:"tls_client_cert_file"`
	TLSClientKeyFile  string            `mapstructure:"tls_client_key_file"`
	Headers           map[string]string `mapstructure:"headers"`
	Timeout           time.Duration     `mapstructure:"timeout"`
	Compression       string            `mapstructure:"compression"` // "none", "gzip"
	RetryEnabled      bool              `mapstructure:"retry_enabled"`
	RetryMaxAttempts  int               `mapstructure:"retry_max_attempts"`
}

// GetTracesConfig returns the effective OTLP config for traces
func (c *ObservabilityConfig) GetTracesConfig() OTLPConfig {
	if c.Traces != nil {
		return mergeOTLPConfigs(c.OTLP, *c.Traces)
	}
	return c.OTLP
}

// GetLogsConfig returns the effective OTLP config for logs
func (c *ObservabilityConfig) GetLogsConfig() OTLPConfig {
	if c.Logs != nil {
		return mergeOTLPConfigs(c.OTLP, *c.Logs)
	}
	return c.OTLP
}

// mergeOTLPConfigs lays signal-specific values over the global defaults.
// Insecure always comes from the override since false cannot be told apart
// from unset.
func mergeOTLPConfigs(base OTLPConfig, override OTLPConfig) OTLPConfig {
	result := base

	if override.Endpoint != "" {
		result.Endpoint = override.Endpoint
	}
	if override.Protocol != "" {
		result.Protocol = override.Protocol
	}
	result.Insecure = override.Insecure

	if override.TLSCertFile != "" {
		result.TLSCertFile = override.TLSCertFile
	}
	if override.TLSClientCertFile != "" {
		result.TLSClientCertFile = override.TLSClientCertFile
	}
	if override.TLSClientKeyFile != "" {
		result.TLSClientKeyFile = override.TLSClientKeyFile
	}

	if override.Headers != nil {
		result.Headers = make(map[string]string, len(base.Headers)+len(override.Headers))
		for k, v := range base.Headers {
			result.Headers[k] = v
		}
		for k, v := range override.Headers {
			result.Headers[k] = v
		}
	}

	if override.Timeout != 0 {
		result.Timeout = override.Timeout
	}
	if override.Compression != "" {
		result.Compression = override.Compression
	}
	if override.RetryMaxAttempts != 0 {
		result.RetryEnabled = override.RetryEnabled
		result.RetryMaxAttempts = override.RetryMaxAttempts
	}

	return result
}
