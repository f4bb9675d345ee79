package dialect

import "github.com/leapstack-labs/polydb/pkg/core"

// MySQL is the MySQL/MariaDB dialect.
var MySQL = NewDialect("mysql").
	Engine(core.EngineMySQL).
	Identifiers("`", "`", "``", core.NormCaseSensitive).
	PlaceholderStyle(core.PlaceholderQuestion).
	AutoIncrement("AUTO_INCREMENT").
	CurrentTimestamp("NOW()").
	Types(map[string]TypeMapping{
		"INT":       {Native: "INT"},
		"VARCHAR":   {Native: "VARCHAR", Params: true, Default: "255"},
		"TEXT":      {Native: "TEXT"},
		"DATETIME":  {Native: "DATETIME"},
		"TIMESTAMP": {Native: "TIMESTAMP"},
		"BOOLEAN":   {Native: "TINYINT(1)"},
		"JSON":      {Native: "JSON"},
		"DECIMAL":   {Native: "DECIMAL", Params: true, Default: "10,2"},
		"BIGINT":    {Native: "BIGINT"},
	}).
	WithReservedWords(
		"add", "all", "alter", "and", "as", "asc", "between", "by", "case", "change",
		"check", "column", "condition", "constraint", "create", "cross", "database",
		"default", "delete", "desc", "describe", "distinct", "drop", "else", "exists",
		"explain", "false", "for", "foreign", "from", "group", "having", "if", "in",
		"index", "inner", "insert", "interval", "into", "is", "join", "key", "keys",
		"left", "like", "limit", "lock", "match", "not", "null", "on", "option", "or",
		"order", "outer", "primary", "range", "read", "references", "rename", "replace",
		"right", "schema", "select", "set", "show", "table", "then", "to", "true",
		"union", "unique", "update", "usage", "using", "values", "when", "where", "with",
	).
	Build()

// Postgres is the PostgreSQL dialect.
var Postgres = NewDialect("postgres").
	Engine(core.EnginePostgres).
	Identifiers(`"`, `"`, `""`, core.NormLowercase).
	DefaultSchema("public").
	PlaceholderStyle(core.PlaceholderDollar).
	AutoIncrement("SERIAL").
	CurrentTimestamp("NOW()").
	Types(map[string]TypeMapping{
		"INT":       {Native: "INTEGER"},
		"VARCHAR":   {Native: "VARCHAR", Params: true, Default: "255"},
		"TEXT":      {Native: "TEXT"},
		"DATETIME":  {Native: "TIMESTAMP"},
		"TIMESTAMP": {Native: "TIMESTAMP"},
		"BOOLEAN":   {Native: "BOOLEAN"},
		"JSON":      {Native: "JSONB"},
		"DECIMAL":   {Native: "DECIMAL", Params: true, Default: "10,2"},
		"BIGINT":    {Native: "BIGINT"},
	}).
	WithReservedWords(
		"user", "order", "group", "table", "select", "from", "where", "index",
		"all", "and", "any", "array", "as", "asc", "asymmetric", "authorization",
		"between", "binary", "both", "case", "cast", "check", "collate", "column",
		"constraint", "create", "cross", "current_catalog", "current_date",
		"current_role", "current_schema", "current_time", "current_timestamp",
		"current_user", "default", "deferrable", "desc", "distinct", "do", "else",
		"end", "except", "false", "fetch", "for", "foreign", "freeze", "full",
		"grant", "having", "ilike", "in", "initially", "inner", "intersect",
		"into", "is", "isnull", "join", "lateral", "leading", "left", "like",
		"limit", "localtime", "localtimestamp", "natural", "not", "notnull",
		"null", "offset", "on", "only", "or", "outer", "overlaps", "placing",
		"primary", "references", "returning", "right", "session_user", "similar",
		"some", "symmetric", "then", "to", "trailing", "true", "union", "unique",
		"using", "variadic", "verbose", "when", "window", "with",
	).
	Build()

// SQLite is the SQLite dialect.
var SQLite = NewDialect("sqlite").
	Engine(core.EngineSQLite).
	Identifiers(`"`, `"`, `""`, core.NormCaseInsensitive).
	DefaultSchema("main").
	PlaceholderStyle(core.PlaceholderQuestion).
	AutoIncrement("AUTOINCREMENT").
	CurrentTimestamp("datetime('now')").
	Types(map[string]TypeMapping{
		"INT":       {Native: "INTEGER"},
		"VARCHAR":   {Native: "TEXT"},
		"TEXT":      {Native: "TEXT"},
		"DATETIME":  {Native: "DATETIME"},
		"TIMESTAMP": {Native: "DATETIME"},
		"BOOLEAN":   {Native: "INTEGER"},
		"JSON":      {Native: "TEXT"},
		"DECIMAL":   {Native: "NUMERIC"},
		"BIGINT":    {Native: "INTEGER"},
	}).
	WithReservedWords(
		"abort", "action", "add", "after", "all", "alter", "and", "as", "asc",
		"autoincrement", "between", "by", "case", "check", "collate", "column",
		"commit", "constraint", "create", "cross", "default", "delete", "desc",
		"distinct", "drop", "else", "escape", "except", "exists", "foreign", "from",
		"full", "group", "having", "in", "index", "inner", "insert", "intersect",
		"into", "is", "isnull", "join", "key", "left", "like", "limit", "natural",
		"not", "notnull", "null", "offset", "on", "or", "order", "outer", "pragma",
		"primary", "references", "replace", "right", "select", "set", "table",
		"then", "to", "transaction", "union", "unique", "update", "using", "values",
		"when", "where", "with",
	).
	Build()

func init() {
	Register(MySQL)
	Register(Postgres)
	Register(SQLite)
}
