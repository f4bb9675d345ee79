package migration

import "github.com/leapstack-labs/polydb/pkg/dialect"

// Catalog returns the canonical application schema. Tables are ordered so
// that every table comes after the tables its foreign keys reference.
func Catalog() []dialect.Table {
	return []dialect.Table{
		{
			Name: "users",
			Columns: []dialect.Column{
				{Name: "id", Type: "INT", PrimaryKey: true, AutoIncrement: true},
				{Name: "username", Type: "VARCHAR(50)", NotNull: true, Unique: true},
				{Name: "email", Type: "VARCHAR(255)", NotNull: true, Unique: true},
				{Name: "password_hash", Type: "VARCHAR(255)", NotNull: true},
				{Name: "role", Type: "VARCHAR(20)", NotNull: true, Default: "'viewer'"},
				{Name: "is_active", Type: "BOOLEAN", NotNull: true, Default: "TRUE"},
				{Name: "last_login_at", Type: "DATETIME"},
				{Name: "created_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
				{Name: "updated_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
			},
		},
		{
			Name: "data_sources",
			Columns: []dialect.Column{
				{Name: "id", Type: "INT", PrimaryKey: true, AutoIncrement: true},
				{Name: "name", Type: "VARCHAR(100)", NotNull: true, Unique: true},
				{Name: "engine", Type: "VARCHAR(20)", NotNull: true},
				{Name: "connection_config", Type: "JSON", NotNull: true},
				{Name: "description", Type: "TEXT"},
				{Name: "is_active", Type: "BOOLEAN", NotNull: true, Default: "TRUE"},
				{Name: "created_by", Type: "INT"},
				{Name: "created_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
				{Name: "updated_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []dialect.ForeignKey{
				{Columns: []string{"created_by"}, RefTable: "users", RefColumns: []string{"id"}, OnDelete: "SET NULL"},
			},
		},
		{
			Name: "dashboards",
			Columns: []dialect.Column{
				{Name: "id", Type: "INT", PrimaryKey: true, AutoIncrement: true},
				{Name: "title", Type: "VARCHAR(200)", NotNull: true},
				{Name: "description", Type: "TEXT"},
				{Name: "layout", Type: "JSON"},
				{Name: "is_public", Type: "BOOLEAN", NotNull: true, Default: "FALSE"},
				{Name: "owner_id", Type: "INT", NotNull: true},
				{Name: "created_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
				{Name: "updated_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []dialect.ForeignKey{
				{Columns: []string{"owner_id"}, RefTable: "users", RefColumns: []string{"id"}, OnDelete: "CASCADE"},
			},
		},
		{
			Name: "charts",
			Columns: []dialect.Column{
				{Name: "id", Type: "INT", PrimaryKey: true, AutoIncrement: true},
				{Name: "dashboard_id", Type: "INT", NotNull: true},
				{Name: "data_source_id", Type: "INT", NotNull: true},
				{Name: "title", Type: "VARCHAR(200)", NotNull: true},
				{Name: "chart_type", Type: "VARCHAR(30)", NotNull: true},
				{Name: "query_text", Type: "TEXT", NotNull: true},
				{Name: "options", Type: "JSON"},
				{Name: "position", Type: "INT", NotNull: true, Default: "0"},
				{Name: "created_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
				{Name: "updated_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []dialect.ForeignKey{
				{Columns: []string{"dashboard_id"}, RefTable: "dashboards", RefColumns: []string{"id"}, OnDelete: "CASCADE"},
				{Columns: []string{"data_source_id"}, RefTable: "data_sources", RefColumns: []string{"id"}, OnDelete: "CASCADE"},
			},
		},
		{
			Name: "scheduled_tasks",
			Columns: []dialect.Column{
				{Name: "id", Type: "INT", PrimaryKey: true, AutoIncrement: true},
				{Name: "name", Type: "VARCHAR(100)", NotNull: true},
				{Name: "data_source_id", Type: "INT", NotNull: true},
				{Name: "query_text", Type: "TEXT", NotNull: true},
				{Name: "cron_expression", Type: "VARCHAR(100)", NotNull: true},
				{Name: "is_enabled", Type: "BOOLEAN", NotNull: true, Default: "TRUE"},
				{Name: "last_run_at", Type: "DATETIME"},
				{Name: "next_run_at", Type: "DATETIME"},
				{Name: "created_by", Type: "INT"},
				{Name: "created_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []dialect.ForeignKey{
				{Columns: []string{"data_source_id"}, RefTable: "data_sources", RefColumns: []string{"id"}, OnDelete: "CASCADE"},
				{Columns: []string{"created_by"}, RefTable: "users", RefColumns: []string{"id"}, OnDelete: "SET NULL"},
			},
		},
		{
			Name: "task_logs",
			Columns: []dialect.Column{
				{Name: "id", Type: "BIGINT", PrimaryKey: true, AutoIncrement: true},
				{Name: "task_id", Type: "INT", NotNull: true},
				{Name: "status", Type: "VARCHAR(20)", NotNull: true},
				{Name: "row_count", Type: "BIGINT"},
				{Name: "duration_ms", Type: "BIGINT"},
				{Name: "error_message", Type: "TEXT"},
				{Name: "started_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
				{Name: "finished_at", Type: "DATETIME"},
			},
			ForeignKeys: []dialect.ForeignKey{
				{Columns: []string{"task_id"}, RefTable: "scheduled_tasks", RefColumns: []string{"id"}, OnDelete: "CASCADE"},
			},
		},
		{
			Name: "query_cache",
			Columns: []dialect.Column{
				{Name: "id", Type: "INT", PrimaryKey: true, AutoIncrement: true},
				{Name: "cache_key", Type: "VARCHAR(64)", NotNull: true, Unique: true},
				{Name: "data_source_id", Type: "INT", NotNull: true},
				{Name: "result", Type: "JSON", NotNull: true},
				{Name: "hit_count", Type: "INT", NotNull: true, Default: "0"},
				{Name: "expires_at", Type: "DATETIME", NotNull: true},
				{Name: "created_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []dialect.ForeignKey{
				{Columns: []string{"data_source_id"}, RefTable: "data_sources", RefColumns: []string{"id"}, OnDelete: "CASCADE"},
			},
		},
		{
			Name: "webhooks",
			Columns: []dialect.Column{
				{Name: "id", Type: "INT", PrimaryKey: true, AutoIncrement: true},
				{Name: "name", Type: "VARCHAR(100)", NotNull: true},
				{Name: "url", Type: "VARCHAR(500)", NotNull: true},
				{Name: "secret", Type: "VARCHAR(255)"},
				{Name: "events", Type: "JSON", NotNull: true},
				{Name: "is_active", Type: "BOOLEAN", NotNull: true, Default: "TRUE"},
				{Name: "created_by", Type: "INT"},
				{Name: "created_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []dialect.ForeignKey{
				{Columns: []string{"created_by"}, RefTable: "users", RefColumns: []string{"id"}, OnDelete: "SET NULL"},
			},
		},
		{
			Name: "operation_logs",
			Columns: []dialect.Column{
				{Name: "id", Type: "BIGINT", PrimaryKey: true, AutoIncrement: true},
				{Name: "user_id", Type: "INT"},
				{Name: "action", Type: "VARCHAR(50)", NotNull: true},
				{Name: "resource_type", Type: "VARCHAR(50)", NotNull: true},
				{Name: "resource_id", Type: "VARCHAR(64)"},
				{Name: "details", Type: "JSON"},
				{Name: "ip_address", Type: "VARCHAR(45)"},
				{Name: "created_at", Type: "DATETIME", NotNull: true, Default: "CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []dialect.ForeignKey{
				{Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}, OnDelete: "SET NULL"},
			},
		},
	}
}
