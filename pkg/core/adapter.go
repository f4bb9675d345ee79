package core

import (
	"fmt"
	"strings"
	"time"
)

// EngineKind identifies a database engine family.
type EngineKind string

// Supported engine families.
const (
	EngineMySQL    EngineKind = "mysql"
	EnginePostgres EngineKind = "postgresql"
	EngineSQLite   EngineKind = "sqlite"
)

// Engines lists every supported engine kind in a stable order.
func Engines() []EngineKind {
	return []EngineKind{EngineMySQL, EnginePostgres, EngineSQLite}
}

// ParseEngineKind normalizes user-facing engine names ("postgres", "pg", "sqlite3",
// "mariadb", ...) into an EngineKind.
func ParseEngineKind(s string) (EngineKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "mariadb":
		return EngineMySQL, nil
	case "postgresql", "postgres", "pg", "pgsql":
		return EnginePostgres, nil
	case "sqlite", "sqlite3":
		return EngineSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEngine, s)
	}
}

// String returns the canonical engine name.
func (k EngineKind) String() string {
	return string(k)
}

// Valid reports whether k is one of the supported engine kinds.
func (k EngineKind) Valid() bool {
	switch k {
	case EngineMySQL, EnginePostgres, EngineSQLite:
		return true
	default:
		return false
	}
}

// DatabaseConfig describes one logical database.
// Name is the identity key. A config is treated as immutable once an adapter
// has been built from it; replacing it goes through close-then-recreate.
type DatabaseConfig struct {
	Name     string
	Kind     EngineKind
	Host     string
	Port     int
	Username string
	Password string

	// Database is the database name for network engines or the file path
	// (":memory:" allowed) for SQLite.
	Database string

	// Options holds engine-specific settings. Adapters decode it into their
	// typed option structs and reject unknown keys.
	Options map[string]any
}

// Validate checks the fields every engine needs.
func (c DatabaseConfig) Validate() error {
	if c.Name == "" {
		return &Error{Kind: KindConfig, Op: "validate config", Err: fmt.Errorf("%w: name is required", ErrInvalidConfig)}
	}
	if !c.Kind.Valid() {
		return &Error{Kind: KindConfig, Op: "validate config", Database: c.Name, Err: fmt.Errorf("%w: %q", ErrUnsupportedEngine, c.Kind)}
	}
	if c.Database == "" {
		return &Error{Kind: KindConfig, Op: "validate config", Database: c.Name, Err: fmt.Errorf("%w: database is required", ErrInvalidConfig)}
	}
	return nil
}

// Clone returns a copy whose Options map is not shared with c.
func (c DatabaseConfig) Clone() DatabaseConfig {
	out := c
	if c.Options != nil {
		out.Options = make(map[string]any, len(c.Options))
		for k, v := range c.Options {
			out.Options[k] = v
		}
	}
	return out
}

// Field describes one result column as reported by the driver.
type Field struct {
	Name         string `json:"name" yaml:"name"`
	DatabaseType string `json:"databaseType,omitempty" yaml:"databaseType,omitempty"`
	Nullable     *bool  `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// QueryResult is the normalized outcome of one statement.
// Rows keys are column names; Columns keeps the driver-reported order.
// For writes Rows is empty and RowCount is the number of affected rows.
type QueryResult struct {
	Columns      []string         `json:"columns" yaml:"columns"`
	Rows         []map[string]any `json:"rows" yaml:"rows"`
	RowCount     int64            `json:"rowCount" yaml:"rowCount"`
	Fields       []Field          `json:"fields,omitempty" yaml:"fields,omitempty"`
	LastInsertID int64            `json:"lastInsertId,omitempty" yaml:"lastInsertId,omitempty"`
}

// Statement is one member of a transaction.
type Statement struct {
	SQL    string `json:"sql" yaml:"sql"`
	Params []any  `json:"params,omitempty" yaml:"params,omitempty"`
}

// ConnectionInfo is a point-in-time snapshot of an adapter's state.
type ConnectionInfo struct {
	IsConnected        bool       `json:"isConnected" yaml:"isConnected"`
	DatabaseIdentifier string     `json:"databaseIdentifier" yaml:"databaseIdentifier"`
	EngineKind         EngineKind `json:"engineKind" yaml:"engineKind"`
	Version            string     `json:"version,omitempty" yaml:"version,omitempty"`
	InstanceID         string     `json:"instanceId,omitempty" yaml:"instanceId,omitempty"`
	ConnectedAt        *time.Time `json:"connectedAt,omitempty" yaml:"connectedAt,omitempty"`
}

// ColumnInfo is one introspected column, normalized across engines.
type ColumnInfo struct {
	Name            string  `json:"name" yaml:"name"`
	DeclaredType    string  `json:"declaredType" yaml:"declaredType"`
	Nullable        bool    `json:"nullable" yaml:"nullable"`
	DefaultValue    *string `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	IsPrimaryKey    bool    `json:"isPrimaryKey" yaml:"isPrimaryKey"`
	IsAutoIncrement bool    `json:"isAutoIncrement" yaml:"isAutoIncrement"`
}

// TableInfo is one introspected table.
type TableInfo struct {
	TableName string       `json:"tableName" yaml:"tableName"`
	Columns   []ColumnInfo `json:"columns" yaml:"columns"`
}
