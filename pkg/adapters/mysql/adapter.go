// Package mysql provides a MySQL/MariaDB database adapter for polydb.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/leapstack-labs/polydb/pkg/dialect"
)

// DefaultPort is used when the config leaves Port empty.
const DefaultPort = 3306

// Options holds MySQL-specific configuration.
// Parsed from core.DatabaseConfig.Options using mapstructure.
type Options struct {
	adapter.PoolOptions `mapstructure:",squash"`

	// Charset is the connection character set.
	Charset string `mapstructure:"charset"`

	// TLS enables TLS with the driver's default verification.
	TLS bool `mapstructure:"tls"`

	// Loc is the time zone used for DATETIME values.
	Loc string `mapstructure:"loc"`

	// ParseTime scans DATE and DATETIME columns into time.Time.
	ParseTime bool `mapstructure:"parse_time"`
}

// DefaultOptions returns the MySQL defaults.
func DefaultOptions() Options {
	return Options{
		PoolOptions: adapter.PoolOptions{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			IdleTimeout:     10 * time.Minute,
			AcquireTimeout:  10 * time.Second,
		},
		Charset: "utf8mb4",
		Loc:     "UTC",
	}
}

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	*adapter.Base
	opts Options
}

// New creates a new MySQL adapter instance.
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

	base := adapter.NewBase(cfg, dialect.MySQL, opts.PoolOptions, logger)
	base.VersionQuery = "SELECT VERSION()"
	base.ErrorCode = errorCode
	return &Adapter{Base: base, opts: opts}, nil
}

// Connect opens the pool and probes it once.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.IsConnected() {
		return nil
	}
	drvCfg, err := buildConfig(a.Cfg, a.opts)
	if err != nil {
		return a.Fail(core.KindConfig, "connect", err)
	}
	connector, err := mysqldrv.NewConnector(drvCfg)
	if err != nil {
		return a.Fail(core.KindConfig, "connect", err)
	}

	a.Logger.Debug("connecting to mysql", slog.String("host", a.Cfg.Host), slog.Int("port", a.Cfg.Port))
	return a.Open(ctx, sql.OpenDB(connector), "mysql")
}

// buildConfig translates the logical config into a driver config.
func buildConfig(cfg core.DatabaseConfig, opts Options) (*mysqldrv.Config, error) {
	c := mysqldrv.NewConfig()
	c.User = cfg.Username
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Database
	c.ParseTime = opts.ParseTime
	c.Timeout = opts.AcquireTimeout

	loc, err := time.LoadLocation(opts.Loc)
	if err != nil {
		return nil, fmt.Errorf("%w: loc: %w", core.ErrInvalidConfig, err)
	}
	c.Loc = loc

	if opts.TLS {
		c.TLSConfig = "true"
	}
	if opts.StatementTimeout > 0 {
		// Server-side bound for SELECT statements, in milliseconds.
		c.Params = map[string]string{"max_execution_time": strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)}
	}
	if err := c.Apply(mysqldrv.Charset(opts.Charset, "")); err != nil {
		return nil, err
	}
	return c, nil
}

// Tables lists base tables in the current database.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	return a.StringColumn(ctx, `
		SELECT table_name AS table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
}

// TableInfo describes a table through DESCRIBE.
func (a *Adapter) TableInfo(ctx context.Context, table string) (*core.TableInfo, error) {
	res, err := a.Query(ctx, "DESCRIBE "+a.Dialect().QuoteQualified(table))
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, a.Fail(core.KindStatement, "describe table", fmt.Errorf("table %s not found", table))
	}

	info := &core.TableInfo{TableName: table, Columns: make([]core.ColumnInfo, 0, len(res.Rows))}
	for _, row := range res.Rows {
		info.Columns = append(info.Columns, core.ColumnInfo{
			Name:            adapter.AsString(row["Field"]),
			DeclaredType:    strings.ToUpper(adapter.AsString(row["Type"])),
			Nullable:        adapter.AsBool(row["Null"]),
			DefaultValue:    adapter.OptionalString(row["Default"]),
			IsPrimaryKey:    adapter.AsString(row["Key"]) == "PRI",
			IsAutoIncrement: strings.Contains(strings.ToLower(adapter.AsString(row["Extra"])), "auto_increment"),
		})
	}
	return info, nil
}

// errorCode extracts the MySQL error number.
func errorCode(err error) string {
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) {
		return strconv.Itoa(int(me.Number))
	}
	return ""
}
