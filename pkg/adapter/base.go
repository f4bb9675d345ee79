package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/leapstack-labs/polydb/pkg/dialect"
)

// execQueryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type execQueryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// Base provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Disconnect, Query, Transaction and escaping implementations.
type Base struct {
	DB     *sqlx.DB
	Cfg    core.DatabaseConfig
	Logger *slog.Logger
	Pool   PoolOptions

	// VersionQuery returns the server version as a single value.
	VersionQuery string

	// ErrorCode extracts a driver-specific error code. Optional.
	ErrorCode func(error) string

	dialect     *dialect.Dialect
	connected   atomic.Bool
	instanceID  string
	connectedAt time.Time

	// serial, when set, serializes every statement and transaction through
	// one lock. Used for engines whose driver shares a single handle.
	serial *sync.Mutex
}

// NewBase returns a Base for cfg. A nil logger uses a discard logger.
func NewBase(cfg core.DatabaseConfig, d *dialect.Dialect, pool PoolOptions, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Base{
		Cfg:     cfg,
		Pool:    pool,
		dialect: d,
		Logger:  logger.With(slog.String("database", cfg.Name), slog.String("engine", cfg.Kind.String())),
	}
}

// Serialize makes every operation on this adapter take one shared lock.
func (b *Base) Serialize() {
	b.serial = &sync.Mutex{}
}

func (b *Base) lock() func() {
	if b.serial == nil {
		return func() {}
	}
	b.serial.Lock()
	return b.serial.Unlock
}

// Open probes db within the acquire timeout and, on success, attaches it.
// A failed probe closes db; a close failure is logged, not returned.
func (b *Base) Open(ctx context.Context, db *sql.DB, driverName string) error {
	b.applyPool(db)

	pingCtx := ctx
	if b.Pool.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, b.Pool.AcquireTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		if cerr := db.Close(); cerr != nil {
			b.Logger.Warn("failed to close pool after failed probe", slog.Any("error", cerr))
		}
		return b.Fail(core.KindConnection, "connect", err)
	}

	b.Attach(db, driverName)
	b.Logger.Info("connected", slog.String("instance", b.instanceID), slog.String("target", b.Identifier()))
	return nil
}

// Attach adopts an already opened pool and marks the adapter connected.
func (b *Base) Attach(db *sql.DB, driverName string) {
	b.DB = sqlx.NewDb(db, driverName)
	b.instanceID = uuid.NewString()
	b.connectedAt = time.Now()
	b.connected.Store(true)
}

func (b *Base) applyPool(db *sql.DB) {
	if b.Pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(b.Pool.MaxOpenConns)
	}
	if b.Pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(b.Pool.MaxIdleConns)
	}
	db.SetConnMaxLifetime(b.Pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(b.Pool.IdleTimeout)
}

// Disconnect closes the pool. It is idempotent.
func (b *Base) Disconnect() error {
	if !b.connected.Swap(false) {
		return nil
	}
	b.Logger.Debug("closing database connection", slog.String("instance", b.instanceID))
	if err := b.DB.Close(); err != nil {
		return b.Fail(core.KindConnection, "disconnect", err)
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *Base) IsConnected() bool {
	return b.connected.Load()
}

// TestConnection pings the pool within the acquire timeout.
func (b *Base) TestConnection(ctx context.Context) bool {
	if !b.IsConnected() {
		return false
	}
	if b.Pool.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Pool.AcquireTimeout)
		defer cancel()
	}
	if err := b.DB.PingContext(ctx); err != nil {
		b.Logger.Debug("connection probe failed", slog.Any("error", err))
		return false
	}
	return true
}

// Query executes a single statement.
func (b *Base) Query(ctx context.Context, sqlStr string, params ...any) (*core.QueryResult, error) {
	if !b.IsConnected() {
		return nil, b.Fail(core.KindConnection, "query", core.ErrNotConnected)
	}
	defer b.lock()()

	ctx, cancel := b.statementContext(ctx)
	defer cancel()

	res, err := run(ctx, b.DB, sqlStr, params)
	if err != nil {
		return nil, b.Fail(core.KindStatement, "query", err)
	}
	return res, nil
}

// Transaction executes statements sequentially in one transaction.
// Any failure triggers a rollback; a rollback failure is logged and the
// original error is returned.
func (b *Base) Transaction(ctx context.Context, statements []core.Statement) ([]*core.QueryResult, error) {
	if !b.IsConnected() {
		return nil, b.Fail(core.KindConnection, "transaction", core.ErrNotConnected)
	}
	defer b.lock()()

	ctx, cancel := b.statementContext(ctx)
	defer cancel()

	tx, err := b.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, b.Fail(core.KindTransaction, "transaction", err)
	}

	results := make([]*core.QueryResult, 0, len(statements))
	for i, stmt := range statements {
		res, err := run(ctx, tx, stmt.SQL, stmt.Params)
		if err != nil {
			b.rollback(tx)
			return nil, b.Fail(core.KindTransaction, "transaction", fmt.Errorf("statement %d: %w", i+1, err))
		}
		results = append(results, res)
	}

	if err := tx.Commit(); err != nil {
		b.rollback(tx)
		return nil, b.Fail(core.KindTransaction, "transaction", fmt.Errorf("commit: %w", err))
	}
	return results, nil
}

func (b *Base) rollback(tx *sqlx.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		b.Logger.Error("rollback failed", slog.Any("error", err))
	}
}

func (b *Base) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.Pool.StatementTimeout > 0 {
		return context.WithTimeout(ctx, b.Pool.StatementTimeout)
	}
	return ctx, func() {}
}

// run executes one statement on db, branching on whether it yields rows.
func run(ctx context.Context, db execQueryer, sqlStr string, params []any) (*core.QueryResult, error) {
	if IsReadStatement(sqlStr) {
		rows, err := db.QueryxContext(ctx, sqlStr, params...)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()
		return scanRows(rows)
	}

	res, err := db.ExecContext(ctx, sqlStr, params...)
	if err != nil {
		return nil, err
	}
	out := &core.QueryResult{Columns: []string{}, Rows: []map[string]any{}}
	if n, err := res.RowsAffected(); err == nil {
		out.RowCount = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

func scanRows(rows *sqlx.Rows) (*core.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := &core.QueryResult{Columns: cols, Rows: []map[string]any{}}

	binary := make(map[string]bool, len(cols))
	if types, err := rows.ColumnTypes(); err == nil {
		out.Fields = make([]core.Field, len(types))
		for i, ct := range types {
			f := core.Field{Name: ct.Name(), DatabaseType: ct.DatabaseTypeName()}
			if nullable, ok := ct.Nullable(); ok {
				f.Nullable = &nullable
			}
			out.Fields[i] = f
			binary[ct.Name()] = IsBinaryType(f.DatabaseType)
		}
	}

	for rows.Next() {
		row := make(map[string]any, len(cols))
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			if bs, ok := v.([]byte); ok && !binary[k] {
				row[k] = string(bs)
			}
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.RowCount = int64(len(out.Rows))
	return out, nil
}

// IsBinaryType reports whether a driver-reported column type holds raw bytes
// (BLOB, BYTEA, BINARY and their variants). Values of other types that
// arrive as []byte are text and are returned as strings.
func IsBinaryType(databaseType string) bool {
	t := strings.ToUpper(databaseType)
	return t == "BYTEA" || strings.Contains(t, "BLOB") || strings.Contains(t, "BINARY")
}

// Fail wraps err as a *core.Error carrying the driver code, if any.
func (b *Base) Fail(kind core.ErrorKind, op string, err error) error {
	e := &core.Error{Kind: kind, Op: op, Database: b.Cfg.Name, Err: err}
	if b.ErrorCode != nil {
		e.Code = b.ErrorCode(err)
	}
	return e
}

// Version runs VersionQuery and returns its single value.
func (b *Base) Version(ctx context.Context) (string, error) {
	res, err := b.Query(ctx, b.VersionQuery)
	if err != nil {
		return "", err
	}
	if len(res.Rows) == 0 || len(res.Columns) == 0 {
		return "", nil
	}
	return fmt.Sprint(res.Rows[0][res.Columns[0]]), nil
}

// ConnectionInfo returns a snapshot. The version is best effort.
func (b *Base) ConnectionInfo(ctx context.Context) core.ConnectionInfo {
	info := core.ConnectionInfo{
		IsConnected:        b.IsConnected(),
		DatabaseIdentifier: b.Identifier(),
		EngineKind:         b.Cfg.Kind,
	}
	if !info.IsConnected {
		return info
	}
	info.InstanceID = b.instanceID
	at := b.connectedAt
	info.ConnectedAt = &at
	if v, err := b.Version(ctx); err == nil {
		info.Version = v
	} else {
		b.Logger.Debug("version lookup failed", slog.Any("error", err))
	}
	return info
}

// Identifier names the target without credentials: a file path for SQLite,
// host:port/database otherwise.
func (b *Base) Identifier() string {
	if b.Cfg.Kind == core.EngineSQLite {
		return b.Cfg.Database
	}
	return b.Cfg.Host + ":" + strconv.Itoa(b.Cfg.Port) + "/" + b.Cfg.Database
}

// StringColumn runs a query and collects the first column of every row.
func (b *Base) StringColumn(ctx context.Context, sqlStr string, params ...any) ([]string, error) {
	res, err := b.Query(ctx, sqlStr, params...)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.Rows))
	if len(res.Columns) == 0 {
		return out, nil
	}
	for _, row := range res.Rows {
		out = append(out, fmt.Sprint(row[res.Columns[0]]))
	}
	return out, nil
}

// BuildPaginationQuery appends LIMIT/OFFSET after stripping a trailing semicolon.
func (b *Base) BuildPaginationQuery(sqlStr string, offset, limit int) string {
	return TrimStatement(sqlStr) + " " + dialect.LimitOffset(limit, offset)
}

// EscapeIdentifier quotes name with the dialect's quote characters.
func (b *Base) EscapeIdentifier(name string) string {
	return b.dialect.QuoteIdentifier(name)
}

// EscapeValue renders v as a SQL literal.
func (b *Base) EscapeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if b.dialect.Engine == core.EnginePostgres {
			return strings.ToUpper(strconv.FormatBool(x))
		}
		if x {
			return "1"
		}
		return "0"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return dialect.QuoteLiteral(x.UTC().Format("2006-01-02 15:04:05"))
	case []byte:
		return b.escapeString(string(x))
	case string:
		return b.escapeString(x)
	default:
		return b.escapeString(fmt.Sprint(x))
	}
}

func (b *Base) escapeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if b.dialect.Engine == core.EngineMySQL {
		// MySQL treats backslash as an escape character inside literals.
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return dialect.QuoteLiteral(s)
}

// Kind returns the engine kind.
func (b *Base) Kind() core.EngineKind {
	return b.Cfg.Kind
}

// Dialect returns the SQL dialect configuration for this adapter.
func (b *Base) Dialect() *dialect.Dialect {
	return b.dialect
}

// Config returns the configuration the adapter was built from.
func (b *Base) Config() core.DatabaseConfig {
	return b.Cfg
}

// Handle returns the underlying *sql.DB, or nil when not connected.
func (b *Base) Handle() *sql.DB {
	if !b.IsConnected() {
		return nil
	}
	return b.DB.DB
}
