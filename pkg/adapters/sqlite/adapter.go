// Package sqlite provides a SQLite database adapter for polydb, backed by
// the pure-Go modernc.org/sqlite driver.
//
// All statements go through one handle. The pool is capped at a single
// connection and the adapter serializes queries and transactions, so
// concurrent callers queue instead of failing with SQLITE_BUSY.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/leapstack-labs/polydb/pkg/dialect"
	sqlitedrv "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Options holds SQLite-specific configuration.
// Parsed from core.DatabaseConfig.Options using mapstructure.
type Options struct {
	adapter.PoolOptions `mapstructure:",squash"`

	// BusyTimeout is how long SQLite waits on a locked database file.
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`

	// ForeignKeys enables foreign key enforcement.
	ForeignKeys bool `mapstructure:"foreign_keys"`

	// JournalMode is applied to file databases only. Empty leaves the
	// SQLite default.
	JournalMode string `mapstructure:"journal_mode"`
}

// DefaultOptions returns the SQLite defaults.
func DefaultOptions() Options {
	return Options{
		PoolOptions: adapter.PoolOptions{
			MaxOpenConns:   1,
			MaxIdleConns:   1,
			AcquireTimeout: 5 * time.Second,
		},
		BusyTimeout: 5 * time.Second,
		ForeignKeys: true,
		JournalMode: "WAL",
	}
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	*adapter.Base
	opts Options
}

// New creates a new SQLite adapter instance. cfg.Database is the file path
// or ":memory:".
func New(cfg core.DatabaseConfig, logger *slog.Logger) (*Adapter, error) {
	opts := DefaultOptions()
	if err := adapter.DecodeOptions(cfg.Name, cfg.Options, &opts); err != nil {
		return nil, err
	}
	// One handle; a second connection would see a different :memory: database.
	opts.MaxOpenConns = 1
	opts.MaxIdleConns = 1

	base := adapter.NewBase(cfg, dialect.SQLite, opts.PoolOptions, logger)
	base.VersionQuery = "SELECT sqlite_version()"
	base.ErrorCode = errorCode
	base.Serialize()
	return &Adapter{Base: base, opts: opts}, nil
}

// Connect opens the database file (creating it if needed) and applies pragmas.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.IsConnected() {
		return nil
	}
	a.Logger.Debug("opening sqlite database", slog.String("path", a.Cfg.Database))

	db, err := sql.Open("sqlite", buildDSN(a.Cfg.Database, a.opts))
	if err != nil {
		return a.Fail(core.KindConnection, "connect", err)
	}
	return a.Open(ctx, db, "sqlite")
}

// buildDSN appends _pragma parameters understood by modernc.org/sqlite.
func buildDSN(path string, opts Options) string {
	var pragmas []string
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	if opts.ForeignKeys {
		pragmas = append(pragmas, "foreign_keys(1)")
	}
	if opts.JournalMode != "" && !isMemory(path) {
		pragmas = append(pragmas, "journal_mode("+strings.ToUpper(opts.JournalMode)+")")
	}
	if len(pragmas) == 0 {
		return path
	}

	q := make([]string, len(pragmas))
	for i, p := range pragmas {
		q[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(q, "&")
}

func isMemory(path string) bool {
	return path == MemoryPath || strings.HasPrefix(path, MemoryPath+"?") || strings.Contains(path, "mode=memory")
}

// Tables lists user tables, skipping SQLite's internal ones.
func (a *Adapter) Tables(ctx context.Context) ([]string, error) {
	return a.StringColumn(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
}

// TableInfo describes a table through PRAGMA table_info.
func (a *Adapter) TableInfo(ctx context.Context, table string) (*core.TableInfo, error) {
	res, err := a.Query(ctx, "PRAGMA table_info("+a.EscapeIdentifier(table)+")")
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, a.Fail(core.KindStatement, "describe table", fmt.Errorf("table %s not found", table))
	}

	autoIncrement, err := a.hasAutoIncrement(ctx, table)
	if err != nil {
		return nil, err
	}

	info := &core.TableInfo{TableName: table, Columns: make([]core.ColumnInfo, 0, len(res.Rows))}
	for _, row := range res.Rows {
		pk, _ := adapter.AsInt64(row["pk"])
		notNull, _ := adapter.AsInt64(row["notnull"])
		declared := strings.ToUpper(adapter.AsString(row["type"]))
		info.Columns = append(info.Columns, core.ColumnInfo{
			Name:         adapter.AsString(row["name"]),
			DeclaredType: declared,
			// PRAGMA reports notnull=0 for INTEGER PRIMARY KEY, which is never NULL.
			Nullable:        notNull == 0 && pk == 0,
			DefaultValue:    adapter.OptionalString(row["dflt_value"]),
			IsPrimaryKey:    pk > 0,
			IsAutoIncrement: autoIncrement && pk > 0 && declared == "INTEGER",
		})
	}
	return info, nil
}

// hasAutoIncrement reports whether the table was declared with AUTOINCREMENT.
func (a *Adapter) hasAutoIncrement(ctx context.Context, table string) (bool, error) {
	ddl, err := a.StringColumn(ctx, "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		return false, err
	}
	return len(ddl) > 0 && strings.Contains(strings.ToUpper(ddl[0]), "AUTOINCREMENT"), nil
}

// errorCode extracts the extended SQLite result code.
func errorCode(err error) string {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		return strconv.Itoa(se.Code())
	}
	return ""
}
