package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"efrenamer/internal/modelfile"
	"efrenamer/internal/naming"
)

// EnvPrefix prefixes every environment variable override,
// e.g. EFRENAMER_MODEL_FILE or EFRENAMER_NAMING_PLURAL_MODE.
const EnvPrefix = "EFRENAMER"

// flagNoDefaultNamer inverts naming.default_namer.
const flagNoDefaultNamer = "no_default_namer"

// Load loads configuration from the process command line. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(pflag.CommandLine, os.Args[1:])
}

// LoadFrom loads configuration with the following precedence:
// 1. Command line flags
// 2. Environment variables
// 3. Config file
// 4. Default values
//
// Flags are defined on fs when missing, so callers may add their own flags
// (such as --version) before calling. A single positional argument is taken
// as the model file when -f is not given.
func LoadFrom(fs *pflag.FlagSet, args []string) (*Config, error) {
	v := viper.New()

	// Defaults (lowest priority)
	setDefaults(v)

	// --- Flags ---
	defineFlags(fs)
	if !fs.Parsed() {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
	}

	// --- Config file ---
	cfgPath, _ := fs.GetString("config")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("efrenamer")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.efrenamer")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgPath != "" {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// --- Environment variables ---
	// Canonical keys: dot + snake_case
	// Env vars: EFRENAMER_RULES_CASE_INSENSITIVE
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// --- Flags binding (highest normal priority) ---
	bindChangedFlagsToViper(fs, v)

	switch fs.NArg() {
	case 0:
	case 1:
		if v.GetString("model.file") == "" {
			v.Set("model.file", fs.Arg(0))
			break
		}
		return nil, fmt.Errorf("model file given both as --model.file and as argument %q", fs.Arg(0))
	default:
		return nil, fmt.Errorf("expected at most one model file argument, got %d", fs.NArg())
	}

	// --- Unmarshal (strict) ---
	var cfg Config
	if err := v.UnmarshalExact(
		&cfg,
		viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				stringToStringSliceHookFunc(","),
			),
		),
	); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// bindChangedFlagsToViper copies only explicitly-set flags into Viper,
// preserving precedence: flags > env > file > defaults.
func bindChangedFlagsToViper(fs *pflag.FlagSet, v *viper.Viper) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config", "version":
			return
		case flagNoDefaultNamer:
			val, _ := fs.GetBool(f.Name)
			v.Set("naming.default_namer", !val)
			return
		}

		switch f.Value.Type() {
		case "string":
			val, _ := fs.GetString(f.Name)
			v.Set(f.Name, val)
		case "int":
			val, _ := fs.GetInt(f.Name)
			v.Set(f.Name, val)
		case "bool":
			val, _ := fs.GetBool(f.Name)
			v.Set(f.Name, val)
		case "float64":
			val, _ := fs.GetFloat64(f.Name)
			v.Set(f.Name, val)
		case "duration":
			val, _ := fs.GetDuration(f.Name)
			v.Set(f.Name, val)
		case "stringSlice":
			val, _ := fs.GetStringSlice(f.Name)
			v.Set(f.Name, val)
		default:
			v.Set(f.Name, f.Value.String())
		}
	})
}

// defineFlags defines all command line flags using canonical snake_case keys.
// The single-letter shorthands follow the classic command line of the tool.
func defineFlags(fs *pflag.FlagSet) {
	if fs.Lookup("model.file") != nil {
		return
	}

	// Model flags
	fs.StringP("model.file", "f", "", "Model (.edmx) file to rename in place")
	fs.String("model.diagram_suffix", "", "Suffix appended to the model path to find its diagram file")
	fs.Bool("model.backup_enabled", false, "Back up each file before rewriting it")
	fs.String("model.backup_suffix_format", "", "Go time layout appended to backup file names")
	fs.Bool("model.validate_namespace", false, "Fail on type references outside the model namespace")

	// Rule flags
	fs.StringP("rules.name_map_file", "m", "", "Exact name rule file (key=value per line)")
	fs.StringP("rules.part_map_file", "p", "", "Name part rule file (key=value per line)")
	fs.BoolP("rules.case_insensitive", "i", false, "Match rule keys and cached names ignoring case")

	// Naming flags
	fs.BoolP(flagNoDefaultNamer, "d", false, "Disable the default namer (names with no rule stay unchanged)")
	fs.String("naming.plural_mode", "", "How entity set names are pluralized (replace, append)")

	// Selection flags
	fs.StringSliceP("selection.entities", "t", nil, "Entity set/type names to rename, or * for all (comma-separated or repeated)")
	fs.StringSlice("selection.prefixes", nil, "Rename names starting with any of these prefixes (comma-separated or repeated)")

	// Observability flags
	fs.String("observability.service_name", "", "Service name for observability")
	fs.String("observability.service_version", "", "Service version for observability")
	fs.String("observability.environment", "", "Environment name (dev, staging, prod)")
	fs.Bool("observability.tracing_enabled", false, "Enable distributed tracing")
	fs.Float64("observability.trace_sample_ratio", 0, "Trace sampling ratio from 0.0 to 1.0")
	fs.String("observability.metrics_textfile", "", "Write run metrics in Prometheus text format to this file")

	// Logging flags (under observability)
	fs.String("observability.logging.level", "", "Log level (debug, info, warn, error)")
	fs.String("observability.logging.format", "", "Log format (json, text)")
	fs.Bool("observability.logging.exports_enabled", false, "Enable OTLP log export")

	// Global OTLP flags
	fs.String("observability.otlp.endpoint", "", "OTLP endpoint for all signals (e.g., localhost:4317)")
	fs.String("observability.otlp.protocol", "", "OTLP protocol for all signals (grpc, http/protobuf)")
	fs.Bool("observability.otlp.insecure", false, "Use insecure connection (no TLS)")
	fs.String("observability.otlp.tls_cert_file", "", "Path to TLS certificate file for server verification")
	fs.String("observability.otlp.tls_client_cert_file", "", "Path to client certificate file for mTLS")
	fs.String("observability.otlp.tls_client_key_file", "", "Path to client key file for mTLS")
	fs.Duration("observability.otlp.timeout", 0, "OTLP export timeout")
	fs.String("observability.otlp.compression", "", "OTLP compression (none, gzip)")
	fs.Bool("observability.otlp.retry_enabled", false, "Enable retry on transient errors")
	fs.Int("observability.otlp.retry_max_attempts", 0, "Maximum retry attempts")

	// Signal-specific OTLP flags
	fs.String("observability.traces.endpoint", "", "OTLP endpoint for traces only")
	fs.String("observability.traces.protocol", "", "OTLP protocol for traces (grpc, http/protobuf)")
	fs.Bool("observability.traces.insecure", false, "Use insecure connection for traces")
	fs.String("observability.logs.endpoint", "", "OTLP endpoint for logs only")
	fs.String("observability.logs.protocol", "", "OTLP protocol for logs (grpc, http/protobuf)")
	fs.Bool("observability.logs.insecure", false, "Use insecure connection for logs")

	fs.BoolP("wait_exit", "e", false, "Wait for Enter before exiting")

	// Config file flag
	fs.StringP("config", "c", "", "Config file path")
}

// setDefaults sets default values (lowest precedence).
func setDefaults(v *viper.Viper) {
	// Model defaults
	v.SetDefault("model.file", "")
	v.SetDefault("model.diagram_suffix", modelfile.DefaultDiagramSuffix)
	v.SetDefault("model.backup_enabled", true)
	v.SetDefault("model.backup_suffix_format", modelfile.DefaultBackupFormat)
	v.SetDefault("model.validate_namespace", true)

	// Rule defaults
	v.SetDefault("rules.name_map_file", "")
	v.SetDefault("rules.part_map_file", "")
	v.SetDefault("rules.case_insensitive", false)

	// Naming defaults
	namingDefaults := naming.DefaultConfig()
	v.SetDefault("naming.default_namer", namingDefaults.DefaultNamer)
	v.SetDefault("naming.plural_mode", string(namingDefaults.PluralMode))
	v.SetDefault("naming.plural_overrides", map[string]string{})

	// Selection defaults (nothing selected)
	v.SetDefault("selection.entities", []string{})
	v.SetDefault("selection.prefixes", []string{})

	// Observability defaults
	v.SetDefault("observability.service_name", "efrenamer")
	v.SetDefault("observability.service_version", "")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.tracing_enabled", false)
	v.SetDefault("observability.trace_sample_ratio", 1.0)
	v.SetDefault("observability.metrics_textfile", "")

	// Logging defaults (under observability)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "text")
	v.SetDefault("observability.logging.exports_enabled", false)

	// Global OTLP defaults
	v.SetDefault("observability.otlp.endpoint", "localhost:4317")
	v.SetDefault("observability.otlp.protocol", "grpc")
	v.SetDefault("observability.otlp.insecure", false)
	v.SetDefault("observability.otlp.tls_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_cert_file", "")
	v.SetDefault("observability.otlp.tls_client_key_file", "")
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.otlp.timeout", 10*time.Second)
	v.SetDefault("observability.otlp.compression", "gzip")
	v.SetDefault("observability.otlp.retry_enabled", true)
	v.SetDefault("observability.otlp.retry_max_attempts", 3)

	v.SetDefault("wait_exit", false)
}

func stringToStringSliceHookFunc(sep string) mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}

		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []string{}, nil
		}

		parts := strings.Split(raw, sep)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
}
