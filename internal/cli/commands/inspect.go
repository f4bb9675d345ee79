package commands

import (
	"context"

	"github.com/leapstack-labs/polydb/internal/query"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the selected database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(cmd, func(ctx context.Context, cmdCtx *CommandContext) error {
				return renderTables(ctx, cmdCtx)
			})
		},
	}
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "describe <table>",
		Aliases: []string{"schema"},
		Short:   "Show the columns of a table",
		Example: `  polydb describe users
  polydb describe sales.orders --db warehouse --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, func(ctx context.Context, cmdCtx *CommandContext) error {
				return renderDescribe(ctx, cmdCtx, args[0])
			})
		},
	}
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <table>",
		Short: "Show the first rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, func(ctx context.Context, cmdCtx *CommandContext) error {
				p, err := cmdCtx.Service.PreviewTableData(ctx, cmdCtx.Database, args[0], limit)
				if err != nil {
					return err
				}
				if err := cmdCtx.Renderer.Rows(p, p.Columns, p.Data); err != nil {
					return err
				}
				cmdCtx.Renderer.Notef("(showing %d of %d rows)", len(p.Data), p.TotalRows)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", query.DefaultPreviewLimit, "Maximum rows to show")
	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show table and column counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(cmd, func(ctx context.Context, cmdCtx *CommandContext) error {
				stats, err := cmdCtx.Service.GetDatabaseStats(ctx, cmdCtx.Database)
				if err != nil {
					return err
				}
				rows := make([]map[string]any, len(stats.Tables))
				for i, t := range stats.Tables {
					rows[i] = map[string]any{"table": t.TableName, "columns": t.ColumnCount}
				}
				if err := cmdCtx.Renderer.Rows(stats, []string{"table", "columns"}, rows); err != nil {
					return err
				}
				cmdCtx.Renderer.Notef("(%d tables)", stats.TableCount)
				return nil
			})
		},
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Probe every configured database",
		Long: `Connect to every configured database and report whether it answers.

A database that cannot be reached is reported as disconnected; it does not
stop the others from being probed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(cmd, func(ctx context.Context, cmdCtx *CommandContext) error {
				return renderStatus(ctx, cmdCtx)
			})
		},
	}
}

// withContext builds a CommandContext, runs fn and closes its connections.
func withContext(cmd *cobra.Command, fn func(context.Context, *CommandContext) error) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(cmd.Context(), cmdCtx)
}

func renderTables(ctx context.Context, cmdCtx *CommandContext) error {
	tables, err := cmdCtx.Service.GetTables(ctx, cmdCtx.Database)
	if err != nil {
		return err
	}
	rows := make([]map[string]any, len(tables))
	for i, t := range tables {
		rows[i] = map[string]any{"table": t}
	}
	return cmdCtx.Renderer.Rows(tables, []string{"table"}, rows)
}

func renderDescribe(ctx context.Context, cmdCtx *CommandContext, table string) error {
	info, err := cmdCtx.Service.GetTableInfo(ctx, cmdCtx.Database, table)
	if err != nil {
		return err
	}
	cols := []string{"column", "type", "nullable", "default", "primary_key", "auto_increment"}
	rows := make([]map[string]any, len(info.Columns))
	for i, c := range info.Columns {
		rows[i] = map[string]any{
			"column":         c.Name,
			"type":           c.DeclaredType,
			"nullable":       c.Nullable,
			"default":        c.DefaultValue,
			"primary_key":    c.IsPrimaryKey,
			"auto_increment": c.IsAutoIncrement,
		}
	}
	return cmdCtx.Renderer.Rows(info, cols, rows)
}

func renderStatus(ctx context.Context, cmdCtx *CommandContext) error {
	statuses := cmdCtx.Service.GetAllConnectionStatus(ctx)
	rows := make([]map[string]any, len(statuses))
	for i, s := range statuses {
		row := map[string]any{"database": s.Name, "status": s.Status}
		if s.Info != nil {
			row["engine"] = s.Info.EngineKind
			row["version"] = s.Info.Version
			row["identifier"] = s.Info.DatabaseIdentifier
		} else if cfg, ok := cmdCtx.Registry.Config(s.Name); ok {
			row["engine"] = cfg.Kind
		}
		rows[i] = row
	}
	return cmdCtx.Renderer.Rows(statuses, []string{"database", "engine", "status", "version", "identifier"}, rows)
}
