package dialect

import (
	"testing"

	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateDataType(t *testing.T) {
	tests := []struct {
		abstract string
		mysql    string
		postgres string
		sqlite   string
	}{
		{"INT", "INT", "INTEGER", "INTEGER"},
		{"VARCHAR", "VARCHAR(255)", "VARCHAR(255)", "TEXT"},
		{"VARCHAR(100)", "VARCHAR(100)", "VARCHAR(100)", "TEXT"},
		{"varchar( 50 )", "VARCHAR(50)", "VARCHAR(50)", "TEXT"},
		{"TEXT", "TEXT", "TEXT", "TEXT"},
		{"DATETIME", "DATETIME", "TIMESTAMP", "DATETIME"},
		{"TIMESTAMP", "TIMESTAMP", "TIMESTAMP", "DATETIME"},
		{"BOOLEAN", "TINYINT(1)", "BOOLEAN", "INTEGER"},
		{"JSON", "JSON", "JSONB", "TEXT"},
		{"DECIMAL(12, 4)", "DECIMAL(12,4)", "DECIMAL(12,4)", "NUMERIC"},
		{"DECIMAL", "DECIMAL(10,2)", "DECIMAL(10,2)", "NUMERIC"},
		{"BIGINT", "BIGINT", "BIGINT", "INTEGER"},
		// Unknown types are an escape hatch, not an error.
		{"UUID", "UUID", "UUID", "UUID"},
		{"geometry(Point, 4326)", "geometry(Point, 4326)", "geometry(Point, 4326)", "geometry(Point, 4326)"},
	}

	for _, tt := range tests {
		t.Run(tt.abstract, func(t *testing.T) {
			for engine, want := range map[core.EngineKind]string{
				core.EngineMySQL:    tt.mysql,
				core.EnginePostgres: tt.postgres,
				core.EngineSQLite:   tt.sqlite,
			} {
				got, err := TranslateDataType(tt.abstract, engine)
				require.NoError(t, err)
				assert.Equal(t, want, got, "engine %s", engine)
			}
		})
	}
}

func TestTranslate_UnsupportedEngine(t *testing.T) {
	calls := map[string]func() error{
		"data type": func() error { _, err := TranslateDataType("INT", "oracle"); return err },
		"auto inc":  func() error { _, err := TranslateAutoIncrement("oracle"); return err },
		"now":       func() error { _, err := TranslateCurrentTimestamp("oracle"); return err },
		"limit":     func() error { _, err := TranslateLimitOffset(1, 0, "oracle"); return err },
		"concat":    func() error { _, err := TranslateConcat("oracle", "a"); return err },
		"date":      func() error { _, err := TranslateDateFormat("d", "%Y", "oracle"); return err },
		"json":      func() error { _, err := TranslateJSONExtract("c", "$.a", "oracle"); return err },
		"upsert":    func() error { _, err := TranslateUpsert("t", []string{"a"}, nil, "oracle"); return err },
		"quote":     func() error { _, err := QuoteIdentifier("a", "oracle"); return err },
		"create": func() error {
			_, err := TranslateCreateTable("t", []Column{{Name: "a", Type: "INT"}}, "oracle", false)
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrUnsupportedEngine)
		})
	}
}

func TestTranslateFragments(t *testing.T) {
	tests := []struct {
		name   string
		render func(core.EngineKind) (string, error)
		want   map[core.EngineKind]string
	}{
		{
			name:   "auto increment",
			render: TranslateAutoIncrement,
			want: map[core.EngineKind]string{
				core.EngineMySQL:    "AUTO_INCREMENT",
				core.EnginePostgres: "SERIAL",
				core.EngineSQLite:   "AUTOINCREMENT",
			},
		},
		{
			name:   "current timestamp",
			render: TranslateCurrentTimestamp,
			want: map[core.EngineKind]string{
				core.EngineMySQL:    "NOW()",
				core.EnginePostgres: "NOW()",
				core.EngineSQLite:   "datetime('now')",
			},
		},
		{
			name: "limit offset",
			render: func(e core.EngineKind) (string, error) {
				return TranslateLimitOffset(10, 20, e)
			},
			want: map[core.EngineKind]string{
				core.EngineMySQL:    "LIMIT 10 OFFSET 20",
				core.EnginePostgres: "LIMIT 10 OFFSET 20",
				core.EngineSQLite:   "LIMIT 10 OFFSET 20",
			},
		},
		{
			name: "concat",
			render: func(e core.EngineKind) (string, error) {
				return TranslateConcat(e, "first_name", "' '", "last_name")
			},
			want: map[core.EngineKind]string{
				core.EngineMySQL:    "CONCAT(first_name, ' ', last_name)",
				core.EnginePostgres: "first_name || ' ' || last_name",
				core.EngineSQLite:   "first_name || ' ' || last_name",
			},
		},
		{
			name: "date format",
			render: func(e core.EngineKind) (string, error) {
				return TranslateDateFormat("created_at", "%Y-%m-%d %H:%M:%S", e)
			},
			want: map[core.EngineKind]string{
				core.EngineMySQL:    "DATE_FORMAT(created_at, '%Y-%m-%d %H:%i:%s')",
				core.EnginePostgres: "TO_CHAR(created_at, 'YYYY-MM-DD HH24:MI:SS')",
				core.EngineSQLite:   "strftime('%Y-%m-%d %H:%M:%S', created_at)",
			},
		},
		{
			name: "json extract nested",
			render: func(e core.EngineKind) (string, error) {
				return TranslateJSONExtract("config", "$.chart.type", e)
			},
			want: map[core.EngineKind]string{
				core.EngineMySQL:    "JSON_UNQUOTE(JSON_EXTRACT(config, '$.chart.type'))",
				core.EnginePostgres: "config #>> '{chart,type}'",
				core.EngineSQLite:   "json_extract(config, '$.chart.type')",
			},
		},
		{
			name: "json extract single key",
			render: func(e core.EngineKind) (string, error) {
				return TranslateJSONExtract("config", "title", e)
			},
			want: map[core.EngineKind]string{
				core.EngineMySQL:    "JSON_UNQUOTE(JSON_EXTRACT(config, '$.title'))",
				core.EnginePostgres: "config->>'title'",
				core.EngineSQLite:   "json_extract(config, '$.title')",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for engine, want := range tt.want {
				got, err := tt.render(engine)
				require.NoError(t, err)
				assert.Equal(t, want, got, "engine %s", engine)
			}
		})
	}
}

func TestLimitOffset_ZeroOffsetOmitted(t *testing.T) {
	assert.Equal(t, "LIMIT 5", LimitOffset(5, 0))
}

func TestTranslateConcat_EdgeCases(t *testing.T) {
	got, err := TranslateConcat(core.EngineSQLite)
	require.NoError(t, err)
	assert.Equal(t, "''", got)

	got, err = TranslateConcat(core.EnginePostgres, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestTranslateUpsert(t *testing.T) {
	cols := []string{"id", "name", "email"}

	got, err := TranslateUpsert("users", cols, []string{"id"}, core.EngineMySQL)
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO `users` (`id`, `name`, `email`) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE `name` = VALUES(`name`), `email` = VALUES(`email`)",
		got)

	got, err = TranslateUpsert("users", cols, []string{"id"}, core.EnginePostgres)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "users" ("id", "name", "email") VALUES ($1, $2, $3) ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name", "email" = EXCLUDED."email"`,
		got)

	got, err = TranslateUpsert("users", cols, []string{"id"}, core.EngineSQLite)
	require.NoError(t, err)
	assert.Equal(t, `INSERT OR REPLACE INTO "users" ("id", "name", "email") VALUES (?, ?, ?)`, got)
}

func TestTranslateUpsert_Edges(t *testing.T) {
	got, err := TranslateUpsert("tags", []string{"id"}, []string{"id"}, core.EnginePostgres)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "tags" ("id") VALUES ($1) ON CONFLICT ("id") DO NOTHING`, got)

	got, err = TranslateUpsert("tags", []string{"id"}, []string{"id"}, core.EngineMySQL)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `tags` (`id`) VALUES (?) ON DUPLICATE KEY UPDATE `id` = `id`", got)

	_, err = TranslateUpsert("tags", []string{"id"}, nil, core.EnginePostgres)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = TranslateUpsert("tags", nil, nil, core.EngineSQLite)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
