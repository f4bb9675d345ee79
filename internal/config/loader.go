package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/leapstack-labs/polydb/pkg/adapters/mysql"
	"github.com/leapstack-labs/polydb/pkg/adapters/postgres"
	"github.com/leapstack-labs/polydb/pkg/adapters/sqlite"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes the environment variables that set CLI defaults,
// e.g. POLYDB_FORMAT=json.
const EnvPrefix = "POLYDB_"

const (
	dbEnvPrefix       = "DB_"
	dbConfigEnvPrefix = "DB_CONFIG_"
)

// Context keys shared by the cli and commands packages.
type (
	loggerKey struct{}
	configKey struct{}
)

// defaultEnvFields maps DB_<FIELD> to a field of the default database.
var defaultEnvFields = map[string]string{
	"TYPE":     "type",
	"HOST":     "host",
	"PORT":     "port",
	"USER":     "user",
	"PASSWORD": "password",
	"NAME":     "database",
	"PATH":     "path",
}

// namedEnvFields maps the trailing part of DB_CONFIG_<NAME>_<FIELD> to a
// database field.
var namedEnvFields = map[string]string{
	"type":     "type",
	"host":     "host",
	"port":     "port",
	"user":     "user",
	"username": "user",
	"password": "password",
	"database": "database",
	"name":     "database",
	"path":     "path",
}

// optionEnvFields are the option keys of every engine. They are matched
// whole so DB_CONFIG_X_MAX_OPEN_CONNS is not read as a database named
// x_max_open.
var optionEnvFields = adapter.OptionKeys(mysql.Options{}, postgres.Options{}, sqlite.Options{})

// flagKeys maps global flags onto config keys.
var flagKeys = map[string]string{
	"db":        "active",
	"format":    "format",
	"log-level": "log_level",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads configuration from defaults, the config file, the environment
// and flags, in that order of increasing precedence. cfgFile may be empty,
// in which case polydb.yaml or polydb.yml in the working directory is used
// when present. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: POLYDB_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Environment: DB_HOST, DB_CONFIG_<NAME>_<FIELD>
	if err := k.Load(env.Provider(dbEnvPrefix, ".", databaseEnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load database env vars: %w", err)
	}

	// 5. Flags, only when explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile finds the config file to use.
// Priority: explicit path > polydb.yaml > polydb.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// databaseEnvKey turns a DB_* variable name into a koanf key. Variables it
// does not recognize map to "" and are skipped.
func databaseEnvKey(s string) string {
	if rest, ok := strings.CutPrefix(s, dbConfigEnvPrefix); ok {
		name, field := splitNamedEnv(strings.ToLower(rest))
		if name == "" || field == "" {
			return ""
		}
		return "databases." + name + "." + field
	}
	if field, ok := defaultEnvFields[strings.TrimPrefix(s, dbEnvPrefix)]; ok {
		return "databases." + DefaultDatabase + "." + field
	}
	return ""
}

// splitNamedEnv splits "analytics_host" into ("analytics", "host"). Known
// fields and option keys are matched longest first; anything else splits at
// the last underscore and becomes an adapter option.
func splitNamedEnv(rest string) (name, field string) {
	candidates := make([]string, 0, len(namedEnvFields)+len(optionEnvFields))
	for suffix := range namedEnvFields {
		candidates = append(candidates, suffix)
	}
	candidates = append(candidates, optionEnvFields...)
	sort.Slice(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })

	for _, suffix := range candidates {
		name, ok := strings.CutSuffix(rest, "_"+suffix)
		if !ok || name == "" {
			continue
		}
		if f, known := namedEnvFields[suffix]; known {
			return name, f
		}
		return name, "options." + suffix
	}

	i := strings.LastIndex(rest, "_")
	if i <= 0 || i == len(rest)-1 {
		return "", ""
	}
	return rest[:i], "options." + rest[i+1:]
}

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// LoggerKey returns the context key used for storing the logger.
// It lets command packages read the logger without importing the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// ConfigKey returns the context key used for storing the loaded Config.
func ConfigKey() interface{} {
	return configKey{}
}

// GetConfig retrieves the loaded Config from the command context. Without
// one it returns the built-in defaults.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	c := &Config{Active: DefaultDatabase, Format: DefaultFormat, LogLevel: DefaultLogLevel}
	applyDefaults(c)
	return c
}
