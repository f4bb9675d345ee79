package dialect

import (
	"testing"

	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuiltinDialects(t *testing.T) {
	assert.Equal(t, []string{"mysql", "postgres", "sqlite"}, List())

	for _, kind := range core.Engines() {
		t.Run(kind.String(), func(t *testing.T) {
			d, err := ForEngine(kind)
			require.NoError(t, err)
			assert.Equal(t, kind, d.Engine)

			byName, ok := Get(d.Name)
			require.True(t, ok)
			assert.Same(t, d, byName)
		})
	}
}

func TestForEngine_Unsupported(t *testing.T) {
	_, err := ForEngine("oracle")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedEngine)
	assert.True(t, core.IsKind(err, core.KindConfig))
}

func TestFormatPlaceholder(t *testing.T) {
	tests := []struct {
		name    string
		dialect *Dialect
		index   int
		want    string
	}{
		{"mysql", MySQL, 1, "?"},
		{"sqlite", SQLite, 3, "?"},
		{"postgres first", Postgres, 1, "$1"},
		{"postgres third", Postgres, 3, "$3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.FormatPlaceholder(tt.index))
		})
	}

	assert.Equal(t, "$1, $2, $3", Postgres.Placeholders(3))
	assert.Equal(t, "?, ?", MySQL.Placeholders(2))
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name   string
		engine core.EngineKind
		input  string
		want   string
	}{
		{"mysql plain", core.EngineMySQL, "users", "`users`"},
		{"mysql embedded backtick", core.EngineMySQL, "we`ird", "`we``ird`"},
		{"postgres plain", core.EnginePostgres, "users", `"users"`},
		{"postgres embedded quote", core.EnginePostgres, `a"b`, `"a""b"`},
		{"sqlite embedded quote", core.EngineSQLite, `x"y"z`, `"x""y""z"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuoteIdentifier(tt.input, tt.engine)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteIdentifierIfNeeded(t *testing.T) {
	tests := []struct {
		name    string
		dialect *Dialect
		input   string
		want    string
	}{
		{"plain name", Postgres, "users", "users"},
		{"reserved word", Postgres, "user", `"user"`},
		{"mixed case on lowercase dialect", Postgres, "UserName", `"UserName"`},
		{"mixed case on case sensitive dialect", MySQL, "UserName", "UserName"},
		{"space", SQLite, "my table", `"my table"`},
		{"leading digit", MySQL, "1col", "`1col`"},
		{"reserved on mysql", MySQL, "order", "`order`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.QuoteIdentifierIfNeeded(tt.input))
		})
	}
}

func TestQuoteQualified(t *testing.T) {
	assert.Equal(t, `"public"."users"`, Postgres.QuoteQualified("public.users"))
	assert.Equal(t, "`users`", MySQL.QuoteQualified("users"))
}

func TestNewDialect_Defaults(t *testing.T) {
	d := NewDialect("test").Build()

	assert.Equal(t, "test", d.GetName())
	assert.Equal(t, `"`, d.Identifiers.Quote)
	assert.Equal(t, "CURRENT_TIMESTAMP", d.CurrentTimestamp())
	assert.Equal(t, "anything", d.DataType("anything"))
	assert.Empty(t, d.DataTypes())
}
