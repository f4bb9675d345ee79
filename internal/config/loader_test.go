package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray polydb.yaml is
// picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("polydb", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("db", "", "")
	fs.String("format", DefaultFormat, "")
	fs.String("log-level", DefaultLogLevel, "")
	fs.Bool("verbose", false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabase, cfg.Active)
	assert.Equal(t, FormatTable, cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.FileUsed)

	dbs, err := cfg.DatabaseConfigs()
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, core.DatabaseConfig{Name: "default", Kind: core.EngineSQLite, Database: "polydb.db"}, dbs[0])
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, ConfigFileName, `
active: analytics
format: json
databases:
  analytics:
    type: postgres
    host: db.internal
    port: 5433
    user: reporter
    password: ${POLYDB_TEST_SECRET}
    database: warehouse
    options:
      sslmode: require
      max_open_conns: 20
  local:
    path: ./local.db
`)
	t.Setenv("POLYDB_TEST_SECRET", "hunter2")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ConfigFileName, cfg.FileUsed)
	assert.Equal(t, "analytics", cfg.Active)
	assert.Equal(t, FormatJSON, cfg.Format)

	dbs, err := cfg.DatabaseConfigs()
	require.NoError(t, err)
	require.Len(t, dbs, 3)
	assert.Equal(t, []string{"analytics", "default", "local"}, []string{dbs[0].Name, dbs[1].Name, dbs[2].Name})

	pg := dbs[0]
	assert.Equal(t, core.EnginePostgres, pg.Kind)
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, 5433, pg.Port)
	assert.Equal(t, "reporter", pg.Username)
	assert.Equal(t, "hunter2", pg.Password)
	assert.Equal(t, "warehouse", pg.Database)
	assert.Equal(t, "require", pg.Options["sslmode"])

	assert.Equal(t, core.EngineSQLite, dbs[2].Kind, "no type and no host means sqlite")
	assert.Equal(t, "./local.db", dbs[2].Database)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, t.TempDir(), "custom.yaml", "format: csv\n")
	writeConfig(t, dir, ConfigFileName, "format: yaml\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.FileUsed)
	assert.Equal(t, FormatCSV, cfg.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_DefaultDatabaseFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_HOST", "mysql.local")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "shop")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	dbs, err := cfg.DatabaseConfigs()
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, core.DatabaseConfig{
		Name:     "default",
		Kind:     core.EngineMySQL,
		Host:     "mysql.local",
		Port:     3307,
		Username: "app",
		Password: "pw",
		Database: "shop",
	}, dbs[0])
}

func TestLoad_NamedDatabasesFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DB_CONFIG_REPORTING_TYPE", "postgresql")
	t.Setenv("DB_CONFIG_REPORTING_HOST", "pg.local")
	t.Setenv("DB_CONFIG_REPORTING_USERNAME", "ro")
	t.Setenv("DB_CONFIG_REPORTING_NAME", "reports")
	t.Setenv("DB_CONFIG_REPORTING_SSLMODE", "require")
	t.Setenv("DB_CONFIG_REPORTING_MAX_OPEN_CONNS", "25")
	t.Setenv("DB_CONFIG_EDGE_CACHE_PATH", "/tmp/edge.db")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	reporting, err := cfg.Databases["reporting"].ToCore("reporting")
	require.NoError(t, err)
	assert.Equal(t, core.EnginePostgres, reporting.Kind)
	assert.Equal(t, "pg.local", reporting.Host)
	assert.Equal(t, "ro", reporting.Username)
	assert.Equal(t, "reports", reporting.Database)
	assert.Equal(t, map[string]any{"sslmode": "require", "max_open_conns": "25"}, reporting.Options)

	edge, err := cfg.Databases["edge_cache"].ToCore("edge_cache")
	require.NoError(t, err)
	assert.Equal(t, core.EngineSQLite, edge.Kind)
	assert.Equal(t, "/tmp/edge.db", edge.Database)
}

func TestDatabaseEnvKey(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"DB_HOST", "databases.default.host"},
		{"DB_NAME", "databases.default.database"},
		{"DB_PATH", "databases.default.path"},
		{"DB_UNKNOWN", ""},
		{"DB_CONFIG_SALES_DATABASE", "databases.sales.database"},
		{"DB_CONFIG_SALES_USERNAME", "databases.sales.user"},
		{"DB_CONFIG_MY_APP_PORT", "databases.my_app.port"},
		{"DB_CONFIG_SALES_CHARSET", "databases.sales.options.charset"},
		{"DB_CONFIG_SALES_BUSY_TIMEOUT", "databases.sales.options.busy_timeout"},
		{"DB_CONFIG_REPORTING_PARSE_TIME", "databases.reporting.options.parse_time"},
		{"DB_CONFIG_MY_APP_APPLICATION_NAME", "databases.my_app.options.application_name"},
		{"DB_CONFIG_EDGE_STATEMENT_TIMEOUT", "databases.edge.options.statement_timeout"},
		{"DB_CONFIG_HOST", ""},
		{"DB_CONFIG_", ""},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			assert.Equal(t, tt.want, databaseEnvKey(tt.env))
		})
	}
}

func TestOptionEnvFields_CoverEveryEngine(t *testing.T) {
	for _, key := range []string{"parse_time", "sslmode", "application_name", "busy_timeout", "max_open_conns"} {
		assert.Contains(t, optionEnvFields, key)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, ConfigFileName, `
format: json
log_level: info
databases:
  other:
    path: other.db
`)
	t.Setenv("POLYDB_FORMAT", "csv")
	t.Setenv("POLYDB_LOG_LEVEL", "error")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--db", "other", "--log-level", "debug"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "other", cfg.Active, "flag wins")
	assert.Equal(t, "debug", cfg.LogLevel, "flag wins over env")
	assert.Equal(t, FormatCSV, cfg.Format, "env wins over file; unset flag does not override")
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown active database", func(t *testing.T) {
		isolate(t)
		flags := newFlags()
		require.NoError(t, flags.Parse([]string{"--db", "ghost"}))

		_, err := Load("", flags)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrUnknownDatabase)
	})

	t.Run("unknown format", func(t *testing.T) {
		isolate(t)
		t.Setenv("POLYDB_FORMAT", "xml")

		_, err := Load("", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidConfig)
	})
}

func TestDatabase_ToCore(t *testing.T) {
	tests := []struct {
		name    string
		db      Database
		wantErr error
		check   func(t *testing.T, cfg core.DatabaseConfig)
	}{
		{
			name: "path wins over database for sqlite",
			db:   Database{Type: "sqlite3", Database: "ignored.db", Path: "real.db"},
			check: func(t *testing.T, cfg core.DatabaseConfig) {
				assert.Equal(t, "real.db", cfg.Database)
			},
		},
		{
			name: "engine aliases",
			db:   Database{Type: "MariaDB", Host: "h", Database: "d"},
			check: func(t *testing.T, cfg core.DatabaseConfig) {
				assert.Equal(t, core.EngineMySQL, cfg.Kind)
			},
		},
		{
			name:    "host without type",
			db:      Database{Host: "h", Database: "d"},
			wantErr: core.ErrInvalidConfig,
		},
		{
			name:    "unsupported engine",
			db:      Database{Type: "oracle", Database: "d"},
			wantErr: core.ErrUnsupportedEngine,
		},
		{
			name:    "missing database",
			db:      Database{Type: "postgres", Host: "h"},
			wantErr: core.ErrInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.db.ToCore("x")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, core.IsKind(err, core.KindConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "x", cfg.Name)
			tt.check(t, cfg)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("POLYDB_TEST_ONE", "one")

	assert.Equal(t, "one", expandEnvVars("${POLYDB_TEST_ONE}"))
	assert.Equal(t, "a-one-b", expandEnvVars("a-${POLYDB_TEST_ONE}-b"))
	assert.Equal(t, "${POLYDB_TEST_UNSET}", expandEnvVars("${POLYDB_TEST_UNSET}"))
	assert.Equal(t, "plain", expandEnvVars("plain"))
}
