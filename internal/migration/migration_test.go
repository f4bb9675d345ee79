package migration

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/leapstack-labs/polydb/internal/testutil"
	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/leapstack-labs/polydb/pkg/adapters/sqlite"
	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogOrder = []string{
	"users", "data_sources", "dashboards", "charts", "scheduled_tasks",
	"task_logs", "query_cache", "webhooks", "operation_logs",
}

func TestCatalog_ParentsFirst(t *testing.T) {
	seen := map[string]bool{}
	for _, table := range Catalog() {
		for _, fk := range table.ForeignKeys {
			assert.True(t, seen[fk.RefTable], "%s references %s before it is created", table.Name, fk.RefTable)
		}
		seen[table.Name] = true
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		engine   core.EngineKind
		contains []string
	}{
		{
			engine: core.EngineSQLite,
			contains: []string{
				"CREATE TABLE IF NOT EXISTS users (\n  id INTEGER PRIMARY KEY AUTOINCREMENT,",
				"is_active INTEGER NOT NULL DEFAULT TRUE",
				"connection_config TEXT NOT NULL",
				"FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE",
			},
		},
		{
			engine: core.EnginePostgres,
			contains: []string{
				"CREATE TABLE IF NOT EXISTS users (\n  id SERIAL PRIMARY KEY,",
				"id BIGSERIAL PRIMARY KEY",
				"connection_config JSONB NOT NULL",
				"created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
			},
		},
		{
			engine: core.EngineMySQL,
			contains: []string{
				"CREATE TABLE IF NOT EXISTS users (\n  id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,",
				"id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY",
				"is_active TINYINT(1) NOT NULL DEFAULT TRUE",
				"email VARCHAR(255) NOT NULL UNIQUE",
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.engine), func(t *testing.T) {
			s, err := Render(tt.engine)
			require.NoError(t, err)
			assert.Equal(t, catalogOrder, s.Order)
			require.Len(t, s.Statements, len(catalogOrder))

			all := s.Script()
			for _, want := range tt.contains {
				assert.Contains(t, all, want)
			}
			for _, name := range s.Order {
				assert.True(t, strings.HasPrefix(s.Statements[name], "CREATE TABLE IF NOT EXISTS "), name)
				assert.False(t, strings.HasSuffix(s.Statements[name], ";"), name)
			}
		})
	}
}

func TestRender_UnknownEngine(t *testing.T) {
	_, err := Render(core.EngineKind("oracle"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedEngine)
}

func TestScript(t *testing.T) {
	script, err := Script(core.EngineSQLite)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(script, "-- polydb schema (sqlite)\n"))
	assert.Equal(t, len(catalogOrder), strings.Count(script, ");\n"))

	// Statements appear in creation order.
	last := -1
	for _, name := range catalogOrder {
		idx := strings.Index(script, "EXISTS "+name+" (")
		require.Greater(t, idx, last, name)
		last = idx
	}
}

func TestFS(t *testing.T) {
	s, err := Render(core.EnginePostgres)
	require.NoError(t, err)

	data, err := fs.ReadFile(s.FS(), "00004_create_charts.sql")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "-- +goose Up\nCREATE TABLE IF NOT EXISTS charts"))
	assert.True(t, strings.HasSuffix(string(data), ");\n"))
}

func newSQLite(t *testing.T) *sqlite.Adapter {
	t.Helper()
	a, err := sqlite.New(core.DatabaseConfig{
		Name:     "app",
		Kind:     core.EngineSQLite,
		Database: filepath.Join(t.TempDir(), "app.db"),
	}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, a.Connect(context.Background()))
	t.Cleanup(func() { _ = a.Disconnect() })
	return a
}

func TestApply_SQLite(t *testing.T) {
	a := newSQLite(t)
	ctx := context.Background()
	logger := testutil.NewTestLogger(t)

	applied, err := Apply(ctx, a, logger)
	require.NoError(t, err)
	require.Len(t, applied, len(catalogOrder))
	assert.Equal(t, "00001_create_users.sql", applied[0])

	tables, err := a.Tables(ctx)
	require.NoError(t, err)
	want := append([]string(nil), catalogOrder...)
	sort.Strings(want)
	assert.Equal(t, want, tables)

	// Re-running is harmless and leaves data alone.
	_, err = a.Query(ctx, "INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)", "ada", "ada@example.com", "x")
	require.NoError(t, err)

	_, err = Apply(ctx, a, logger)
	require.NoError(t, err)

	res, err := a.Query(ctx, "SELECT role, is_active FROM users WHERE username = ?", "ada")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "viewer", res.Rows[0]["role"])
	n, _ := adapter.AsInt64(res.Rows[0]["is_active"])
	assert.Equal(t, int64(1), n)

	// Foreign keys are enforced.
	_, err = a.Query(ctx, "INSERT INTO dashboards (title, owner_id) VALUES (?, ?)", "orphan", 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY constraint failed")
}

func TestApply_DataTypesIntrospect(t *testing.T) {
	a := newSQLite(t)
	ctx := context.Background()
	_, err := Apply(ctx, a, nil)
	require.NoError(t, err)

	info, err := a.TableInfo(ctx, "query_cache")
	require.NoError(t, err)
	types := map[string]string{}
	for _, c := range info.Columns {
		types[c.Name] = c.DeclaredType
	}
	assert.Equal(t, "INTEGER", types["id"])
	assert.Equal(t, "TEXT", types["cache_key"])
	assert.Equal(t, "TEXT", types["result"])
	assert.Equal(t, "DATETIME", types["expires_at"])
}

func TestApply_NotConnected(t *testing.T) {
	a, err := sqlite.New(core.DatabaseConfig{Name: "idle", Kind: core.EngineSQLite, Database: ":memory:"}, nil)
	require.NoError(t, err)

	_, err = Apply(context.Background(), a, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotConnected)
}
