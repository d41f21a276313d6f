package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"

	"efrenamer/internal/naming"
	"efrenamer/internal/selection"
)

// ValidationError represents a configuration validation error with context.
type ValidationError struct {
	Field   string
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (hint: %s)", e.Field, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Field   string
	Message string
	Hint    string
}

// ValidationResult contains the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns a combined error message if there are validation errors.
func (r *ValidationResult) Error() string {
	if !r.HasErrors() {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for errors and returns validation results.
// It returns both errors (fatal) and warnings (non-fatal issues).
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	c.Model.validate(result)
	validateNaming(result, c.Naming, c.Rules.NameMapFile != "" || c.Rules.PartMapFile != "")
	validateSelection(result, c.Selection)
	c.Observability.validate(result)

	return result
}

func (m *ModelConfig) validate(result *ValidationResult) {
	if strings.TrimSpace(m.File) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "model.file",
			Message: "model file is required",
			Hint:    "pass it with -f or as the only argument",
		})
	}

	if strings.TrimSpace(m.DiagramSuffix) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "model.diagram_suffix",
			Message: "diagram suffix cannot be empty",
			Hint:    "the diagram would be the model file itself; the default is .diagram",
		})
	}

	if m.BackupEnabled {
		if m.BackupSuffixFormat == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "model.backup_suffix_format",
				Message: "backup suffix format cannot be empty when backups are enabled",
			})
		} else if time.Unix(0, 0).UTC().Format(m.BackupSuffixFormat) == m.BackupSuffixFormat {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "model.backup_suffix_format",
				Message: fmt.Sprintf("backup suffix format %q has no time fields", m.BackupSuffixFormat),
				Hint:    "every run uses the same backup name, so a second run fails until the old backup is removed",
			})
		}
	}
}

func validateNaming(result *ValidationResult, cfg naming.Config, hasRules bool) {
	if _, err := naming.ParsePluralMode(string(cfg.PluralMode)); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "naming.plural_mode",
			Message: err.Error(),
		})
	}

	for singular, plural := range cfg.PluralOverrides {
		if strings.TrimSpace(singular) == "" || strings.TrimSpace(plural) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "naming.plural_overrides",
				Message: fmt.Sprintf("override %q -> %q must have both a singular and a plural form", singular, plural),
			})
		}
	}

	if !cfg.DefaultNamer && !hasRules {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "naming.default_namer",
			Message: "default namer is disabled and no rule files are configured",
			Hint:    "selected names only change through pluralization",
		})
	}
}

func validateSelection(result *ValidationResult, cfg selection.Config) {
	if len(cfg.Entities) == 0 && len(cfg.Prefixes) == 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "selection",
			Message: "no entities or prefixes selected; nothing will be renamed",
			Hint:    "use -t '*' to rename every entity",
		})
		return
	}

	for _, list := range []struct {
		field  string
		values []string
	}{
		{"selection.entities", cfg.Entities},
		{"selection.prefixes", cfg.Prefixes},
	} {
		if slices.Contains(list.values, selection.Wildcard) && len(list.values) > 1 {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   list.field,
				Message: "wildcard selects everything; other entries are redundant",
			})
		}
		for _, value := range list.values {
			if strings.TrimSpace(value) == "" {
				result.Warnings = append(result.Warnings, ValidationWarning{
					Field:   list.field,
					Message: "blank entry ignored",
				})
				break
			}
		}
	}
}

func (o *ObservabilityConfig) validate(result *ValidationResult) {
	// Log level validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[o.Logging.Level] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.level",
			Message: fmt.Sprintf("invalid log level %q", o.Logging.Level),
			Hint:    "valid values are: debug, info, warn, error",
		})
	}

	// Log format validation
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[o.Logging.Format] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.logging.format",
			Message: fmt.Sprintf("invalid log format %q", o.Logging.Format),
			Hint:    "valid values are: json, text",
		})
	}

	if o.TraceSampleRatio < 0 || o.TraceSampleRatio > 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "observability.trace_sample_ratio",
			Message: fmt.Sprintf("trace sample ratio %v is out of range", o.TraceSampleRatio),
			Hint:    "use a value from 0.0 to 1.0",
		})
	}

	if !o.TracingEnabled && !o.Logging.ExportsEnabled {
		return
	}

	o.OTLP.validate("observability.otlp", result)
	if o.Traces != nil {
		o.Traces.validate("observability.traces", result)
	}
	if o.Logs != nil {
		o.Logs.validate("observability.logs", result)
	}
}

func (o *OTLPConfig) validate(prefix string, result *ValidationResult) {
	validProtocols := map[string]bool{"": true, "grpc": true, "http/protobuf": true}
	if !validProtocols[o.Protocol] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".protocol",
			Message: fmt.Sprintf("invalid OTLP protocol %q", o.Protocol),
			Hint:    "valid values are: grpc, http/protobuf",
		})
	}

	if o.Protocol == "http/protobuf" {
		if !validOTLPEndpoint(o.Endpoint) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   prefix + ".endpoint",
				Message: fmt.Sprintf("invalid OTLP endpoint %q for http/protobuf", o.Endpoint),
				Hint:    "use host:port or a full URL",
			})
		}
	}

	validCompressions := map[string]bool{"": true, "none": true, "gzip": true}
	if !validCompressions[o.Compression] {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".compression",
			Message: fmt.Sprintf("invalid OTLP compression %q", o.Compression),
			Hint:    "valid values are: none, gzip",
		})
	}

	if o.RetryMaxAttempts < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   prefix + ".retry_max_attempts",
			Message: "retry_max_attempts cannot be negative",
		})
	}
}

func validOTLPEndpoint(endpoint string) bool {
	if endpoint == "" {
		return false
	}
	if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return parsed.Host != ""
	}
	_, _, err := net.SplitHostPort(endpoint)
	return err == nil
}
