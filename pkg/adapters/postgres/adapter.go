// Package postgres provides a PostgreSQL database adapter for polydb.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/leapstack-labs/polydb/pkg/dialect"
)

// DefaultPort is used when the config leaves Port empty.
const DefaultPort = 5432

// Options holds PostgreSQL-specific configuration.
// Parsed from core.DatabaseConfig.Options using mapstructure.
type Options struct {
	adapter.PoolOptions `mapstructure:",squash"`

	// SSLMode: "disable", "require", "verify-full", ...
	SSLMode string `mapstructure:"sslmode"`

	// Schema is the search_path and the default schema for introspection.
	Schema string `mapstructure:"schema"`

	// ApplicationName is reported in pg_stat_activity.
	ApplicationName string `mapstructure:"application_name"`
}

// DefaultOptions returns the PostgreSQL defaults.
func DefaultOptions() Options {
	return Options{
		PoolOptions: adapter.PoolOptions{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			IdleTimeout:     30 * time.Second,
			AcquireTimeout:  5 * time.Second,
		},
		SSLMode:         "disable",
		Schema:          "public",
		ApplicationName: "polydb",
	}
}

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	*adapter.Base
	opts Options
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(cfg core.DatabaseConfig, logger *slog.Logger) (*Adapter, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	opts := DefaultOptions()
	if err := adapter.DecodeOptions(cfg.Name, cfg.Options, &opts); err != nil {
		return nil, err
	}

	base := adapter.NewBase(cfg, dialect.Postgres, opts.PoolOptions, logger)
	base.VersionQuery = "SHOW server_version"
	base.ErrorCode = errorCode
	return &Adapter{Base: base, opts: opts}, nil
}

// Connect establishes a connection pool to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.IsConnected() {
		return nil
	}
	connCfg, err := buildConnConfig(a.Cfg, a.opts)
	if err != nil {
		return a.Fail(core.KindConfig, "connect", err)
	}

	a.Logger.Debug("connecting to postgres", slog.String("host", a.Cfg.Host), slog.Int("port", a.Cfg.Port))
	return a.Open(ctx, stdlib.OpenDB(*connCfg), "pgx")
}

// buildPostgresDSN constructs a PostgreSQL key/value connection string.
func buildPostgresDSN(cfg core.DatabaseConfig, opts Options) string {
	parts := []string{
		"host=" + dsnValue(cfg.Host),
		"port=" + strconv.Itoa(cfg.Port),
		"dbname=" + dsnValue(cfg.Database),
		"sslmode=" + dsnValue(opts.SSLMode),
	}
	if cfg.Username != "" {
		parts = append(parts, "user="+dsnValue(cfg.Username))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+dsnValue(cfg.Password))
	}
	return strings.Join(parts, " ")
}

// dsnValue quotes a key/value DSN value when it contains spaces, quotes or
// backslashes, or is empty.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// buildConnConfig parses the DSN and applies runtime parameters.
func buildConnConfig(cfg core.DatabaseConfig, opts Options) (*pgx.ConnConfig, error) {
	connCfg, err := pgx.ParseConfig(buildPostgresDSN(cfg, opts))
	if err != nil {
		// pgconn parse errors can echo the connection string; keep only the kind.
		return nil, fmt.Errorf("%w: malformed postgres settings for %q", core.ErrInvalidConfig, cfg.Name)
	}
	if connCfg.RuntimeParams == nil {
		connCfg.RuntimeParams = make(map[string]string)
	}
	if opts.ApplicationName != "" {
		connCfg.RuntimeParams["application_name"] = opts.ApplicationName
	}
	if opts.Schema != "" {
		connCfg.RuntimeParams["search_path"] = opts.Schema
	}
	if opts.StatementTimeout > 0 {
		connCfg.RuntimeParams["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)
	}
	if opts.AcquireTimeout > 0 {
		connCfg.ConnectTimeout = opts.AcquireTimeout
	}
	return connCfg, nil
}

// Tables lists base tables in the configured schema.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	return a.StringColumn(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, a.opts.Schema)
}

// TableInfo introspects columns through information_schema.
func (a *Adapter) TableInfo(ctx context.Context, table string) (*core.TableInfo, error) {
	schema, name := a.opts.Schema, table
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		schema, name = parts[0], parts[1]
	}

	res, err := a.Query(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.is_nullable,
			c.column_default,
			c.is_identity,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
					AND tc.table_name = kcu.table_name
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = c.table_schema
					AND tc.table_name = c.table_name
					AND kcu.column_name = c.column_name
			) AS is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`, schema, name)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, a.Fail(core.KindStatement, "describe table", fmt.Errorf("table %s not found", table))
	}

	info := &core.TableInfo{TableName: table, Columns: make([]core.ColumnInfo, 0, len(res.Rows))}
	for _, row := range res.Rows {
		def := adapter.OptionalString(row["column_default"])
		info.Columns = append(info.Columns, core.ColumnInfo{
			Name:            adapter.AsString(row["column_name"]),
			DeclaredType:    declaredType(row),
			Nullable:        adapter.AsBool(row["is_nullable"]),
			DefaultValue:    def,
			IsPrimaryKey:    adapter.AsBool(row["is_primary_key"]),
			IsAutoIncrement: adapter.AsBool(row["is_identity"]) || (def != nil && strings.HasPrefix(*def, "nextval(")),
		})
	}
	return info, nil
}

// declaredType folds information_schema spellings back into DDL spellings.
func declaredType(row map[string]any) string {
	dataType := strings.ToLower(adapter.AsString(row["data_type"]))
	switch dataType {
	case "character varying", "character":
		base := "VARCHAR"
		if dataType == "character" {
			base = "CHAR"
		}
		if n, ok := adapter.AsInt64(row["character_maximum_length"]); ok {
			return fmt.Sprintf("%s(%d)", base, n)
		}
		return base
	case "numeric":
		p, okP := adapter.AsInt64(row["numeric_precision"])
		s, okS := adapter.AsInt64(row["numeric_scale"])
		if okP && okS {
			return fmt.Sprintf("DECIMAL(%d,%d)", p, s)
		}
		return "DECIMAL"
	case "timestamp without time zone":
		return "TIMESTAMP"
	case "timestamp with time zone":
		return "TIMESTAMPTZ"
	default:
		return strings.ToUpper(dataType)
	}
}

// errorCode extracts the SQLSTATE code.
func errorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
