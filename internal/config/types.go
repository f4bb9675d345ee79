// Package config loads polydb configuration: the set of logical databases
// and the CLI defaults that go with them.
//
// Configuration is layered with koanf. Later layers win:
//
//	defaults < polydb.yaml < POLYDB_* / DB_* environment < command-line flags
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/polydb/pkg/core"
)

// Config holds everything polydb reads from files, environment and flags.
type Config struct {
	// Active is the logical database commands use when --db is not given.
	Active    string              `koanf:"active"`
	Format    string              `koanf:"format"`
	LogLevel  string              `koanf:"log_level"`
	Databases map[string]Database `koanf:"databases"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// Database is one logical database as written in YAML or the environment.
type Database struct {
	Type     string `koanf:"type"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	// Path is an alias of Database for SQLite files. It wins when both are set.
	Path string `koanf:"path"`

	Options map[string]any `koanf:"options"`
}

// ToCore resolves the entry into the adapter-facing configuration.
// ${VAR} references in host, user, password, database and path are expanded.
// An entry without a type is SQLite unless it names a host.
func (d Database) ToCore(name string) (core.DatabaseConfig, error) {
	host := expandEnvVars(d.Host)

	var kind core.EngineKind
	switch typ := strings.TrimSpace(d.Type); {
	case typ == "" && host != "":
		return core.DatabaseConfig{}, invalid(name, fmt.Errorf("%w: type is required when host is set", core.ErrInvalidConfig))
	case typ == "":
		kind = core.EngineSQLite
	default:
		k, err := core.ParseEngineKind(typ)
		if err != nil {
			return core.DatabaseConfig{}, invalid(name, err)
		}
		kind = k
	}

	database := expandEnvVars(d.Database)
	if kind == core.EngineSQLite && d.Path != "" {
		database = expandEnvVars(d.Path)
	}

	cfg := core.DatabaseConfig{
		Name:     name,
		Kind:     kind,
		Host:     host,
		Port:     d.Port,
		Username: expandEnvVars(d.User),
		Password: expandEnvVars(d.Password),
		Database: database,
		Options:  d.Options,
	}
	if err := cfg.Validate(); err != nil {
		return core.DatabaseConfig{}, err
	}
	return cfg.Clone(), nil
}

// DatabaseConfigs resolves every configured database, sorted by name.
func (c *Config) DatabaseConfigs() ([]core.DatabaseConfig, error) {
	names := make([]string, 0, len(c.Databases))
	for name := range c.Databases {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]core.DatabaseConfig, 0, len(names))
	for _, name := range names {
		cfg, err := c.Databases[name].ToCore(name)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// Validate checks the CLI-level settings.
func (c *Config) Validate() error {
	if _, ok := c.Databases[c.Active]; !ok {
		return invalid(c.Active, fmt.Errorf("%w: active database %q is not configured", core.ErrUnknownDatabase, c.Active))
	}
	if !ValidFormat(c.Format) {
		return invalid("", fmt.Errorf("%w: unknown output format %q", core.ErrInvalidConfig, c.Format))
	}
	return nil
}

func invalid(name string, err error) error {
	return &core.Error{Kind: core.KindConfig, Op: "load config", Database: name, Err: err}
}
