package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	var stmts []string

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Run statements in one transaction",
		Long: `Run several statements in order inside a single transaction.

If any statement fails the whole transaction is rolled back and nothing is
reported as applied.`,
		Example: `  polydb exec \
    --stmt "INSERT INTO users (username, email, password_hash) VALUES ('a', 'a@x', 'h')" \
    --stmt "UPDATE users SET is_active = FALSE WHERE username = 'b'"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(stmts) == 0 {
				return errors.New("at least one --stmt is required")
			}
			return withContext(cmd, func(ctx context.Context, cmdCtx *CommandContext) error {
				return runExec(ctx, cmdCtx, stmts)
			})
		},
	}

	cmd.Flags().StringArrayVarP(&stmts, "stmt", "s", nil, "Statement to run (repeatable, in order)")
	return cmd
}

func runExec(ctx context.Context, cmdCtx *CommandContext, stmts []string) error {
	statements := make([]core.Statement, len(stmts))
	for i, s := range stmts {
		statements[i] = core.Statement{SQL: s}
	}

	results, err := cmdCtx.Service.ExecuteTransaction(ctx, cmdCtx.Database, statements)
	if err != nil {
		return err
	}

	rows := make([]map[string]any, len(results))
	for i, res := range results {
		rows[i] = map[string]any{
			"statement":      i + 1,
			"rows":           res.RowCount,
			"last_insert_id": res.LastInsertID,
		}
	}
	if err := cmdCtx.Renderer.Rows(results, []string{"statement", "rows", "last_insert_id"}, rows); err != nil {
		return err
	}
	cmdCtx.Renderer.Notef("(%s committed)", plural(len(results), "statement"))
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
