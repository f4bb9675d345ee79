package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/polydb/internal/config"
	"github.com/leapstack-labs/polydb/internal/migration"
	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Render or apply the application schema",
		Long: `Render the application schema (users, data sources, dashboards, charts,
scheduled tasks and their logs, query cache, webhooks, operation logs) in the
dialect of an engine, or create it on the selected database.

Every table is created with IF NOT EXISTS, so applying twice is harmless.`,
	}

	cmd.AddCommand(newMigratePrintCommand())
	cmd.AddCommand(newMigrateApplyCommand())
	return cmd
}

func newMigratePrintCommand() *cobra.Command {
	var engine string

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the schema script",
		Example: `  polydb migrate print --engine postgres > schema.sql
  polydb migrate print --db reporting`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := resolveEngine(cmd.Context(), engine)
			if err != nil {
				return err
			}
			script, err := migration.Script(kind)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), script)
			return err
		},
	}

	engines := make([]string, 0, len(core.Engines()))
	for _, k := range core.Engines() {
		engines = append(engines, k.String())
	}
	cmd.Flags().StringVarP(&engine, "engine", "e", "", "Engine dialect ("+strings.Join(engines, "|")+"); defaults to the selected database's engine")
	_ = cmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return engines, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newMigrateApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Create the schema on the selected database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContext(cmd, func(ctx context.Context, cmdCtx *CommandContext) error {
				a, err := cmdCtx.Registry.GetConnection(ctx, cmdCtx.Database)
				if err != nil {
					return err
				}
				applied, err := migration.Apply(ctx, a, cmdCtx.Logger)
				if err != nil {
					return err
				}
				rows := make([]map[string]any, len(applied))
				for i, path := range applied {
					rows[i] = map[string]any{"migration": path}
				}
				if err := cmdCtx.Renderer.Rows(applied, []string{"migration"}, rows); err != nil {
					return err
				}
				cmdCtx.Renderer.Notef("(%s applied to %s)", plural(len(applied), "migration"), cmdCtx.Database)
				return nil
			})
		},
	}
}

// resolveEngine picks the --engine value, or the engine of the selected
// database when the flag is empty.
func resolveEngine(ctx context.Context, engine string) (core.EngineKind, error) {
	if engine != "" {
		return core.ParseEngineKind(engine)
	}
	cfg := config.GetConfig(ctx)
	db, err := cfg.Databases[cfg.Active].ToCore(cfg.Active)
	if err != nil {
		return "", err
	}
	return db.Kind, nil
}
