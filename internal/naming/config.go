// Package naming resolves raw model identifiers into their final names.
// It owns the rule tables, the built-in default namer, the per-run resolution
// cache, and the pluralization of container names.
package naming

import "fmt"

// PluralMode controls how a container name is derived from its class name.
type PluralMode string

const (
	// PluralReplace uses the plural form of the resolved class name ("Order" -> "Orders").
	PluralReplace PluralMode = "replace"
	// PluralAppend appends the plural form to the resolved class name ("Order" -> "OrderOrders").
	PluralAppend PluralMode = "append"
)

// Config holds naming customization options
type Config struct {
	// DefaultNamer enables the built-in Pascal-case namer for names (or name
	// parts) that no rule table entry covers.
	DefaultNamer bool `mapstructure:"default_namer"`

	// PluralMode selects how entity set names are pluralized.
	PluralMode PluralMode `mapstructure:"plural_mode"`

	// PluralOverrides maps singular -> custom plural
	// Example: {"person": "persons", "status": "statuses"}
	PluralOverrides map[string]string `mapstructure:"plural_overrides"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		DefaultNamer:    true,
		PluralMode:      PluralReplace,
		PluralOverrides: make(map[string]string),
	}
}

// ParsePluralMode validates a configured plural mode. An empty value means PluralReplace.
func ParsePluralMode(value string) (PluralMode, error) {
	switch PluralMode(value) {
	case "", PluralReplace:
		return PluralReplace, nil
	case PluralAppend:
		return PluralAppend, nil
	default:
		return "", fmt.Errorf("unsupported plural mode %q (use %s or %s)", value, PluralReplace, PluralAppend)
	}
}
