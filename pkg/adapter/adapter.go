// Package adapter provides the database adapter contract and the shared
// database/sql plumbing every engine variant embeds.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves by engine kind in their init() functions.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/leapstack-labs/polydb/pkg/dialect"
)

// Adapter defines the interface that all database adapters must implement.
// An adapter owns exactly one connection pool. Its lifecycle is
// New -> Connect -> (Query | Transaction)* -> Disconnect; it must not be used
// after Disconnect without a fresh Connect.
type Adapter interface {
	// Connect opens the pool and performs one liveness probe. It does not retry.
	Connect(ctx context.Context) error

	// Disconnect closes the pool. Calling it on a closed adapter is a no-op.
	Disconnect() error

	// IsConnected reports whether the adapter holds an open, probed pool.
	IsConnected() bool

	// TestConnection probes the pool and reports success as a boolean.
	TestConnection(ctx context.Context) bool

	// Query executes one statement with positional parameters and returns a
	// normalized result for reads and writes alike.
	Query(ctx context.Context, sql string, params ...any) (*core.QueryResult, error)

	// Transaction executes statements in order inside one transaction.
	// Any failure rolls back everything and no partial results are returned.
	Transaction(ctx context.Context, statements []core.Statement) ([]*core.QueryResult, error)

	// ConnectionInfo returns a snapshot of the adapter's state.
	ConnectionInfo(ctx context.Context) core.ConnectionInfo

	// Tables lists the user tables of the connected database.
	Tables(ctx context.Context) ([]string, error)

	// TableInfo introspects the columns of one table.
	TableInfo(ctx context.Context, table string) (*core.TableInfo, error)

	// Version returns the server version string.
	Version(ctx context.Context) (string, error)

	// EscapeIdentifier quotes an identifier that cannot be parameter-bound.
	EscapeIdentifier(name string) string

	// EscapeValue renders a value as a SQL literal. Parameter binding remains
	// the primary defense; this is for text that cannot be bound.
	EscapeValue(v any) string

	// BuildPaginationQuery appends LIMIT/OFFSET to a statement.
	BuildPaginationQuery(sql string, offset, limit int) string

	// Kind returns the engine kind.
	Kind() core.EngineKind

	// Dialect returns the SQL dialect configuration for this adapter.
	Dialect() *dialect.Dialect

	// Config returns the configuration the adapter was built from.
	Config() core.DatabaseConfig

	// Handle exposes the underlying pool for tooling that needs a *sql.DB
	// (schema bootstrap). Nil when not connected.
	Handle() *sql.DB
}
