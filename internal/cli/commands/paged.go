package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

// NewPagedCommand creates the paged command.
func NewPagedCommand() *cobra.Command {
	var (
		page     int
		pageSize int
		params   []string
	)

	cmd := &cobra.Command{
		Use:   "paged <SQL>",
		Short: "Run a query one page at a time",
		Long: `Run a query with LIMIT/OFFSET paging.

For SELECT and WITH queries the total row count is computed as well, so the
number of pages is known.`,
		Example: `  polydb paged "SELECT * FROM users ORDER BY id" --page 2 --page-size 50`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, func(ctx context.Context, cmdCtx *CommandContext) error {
				res, err := cmdCtx.Service.ExecutePagedQuery(ctx, cmdCtx.Database, strings.Join(args, " "), page, pageSize, toParams(params)...)
				if err != nil {
					return err
				}
				if err := cmdCtx.Renderer.Rows(res, res.Columns, res.Data); err != nil {
					return err
				}
				p := res.Pagination
				cmdCtx.Renderer.Notef("(page %d of %d, %d rows total)", p.Page, p.TotalPages, p.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "Rows per page")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Positional parameter (repeatable)")
	return cmd
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <SQL>",
		Short: "Check a query without running it",
		Long: `Check that a query parses and refers to existing objects by running it
wrapped in LIMIT 0. Only row-returning statements validate.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContext(cmd, func(ctx context.Context, cmdCtx *CommandContext) error {
				v, err := cmdCtx.Service.ValidateQuery(ctx, cmdCtx.Database, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return cmdCtx.Renderer.Rows(v, []string{"valid", "error", "columns"}, []map[string]any{{
					"valid":   v.IsValid,
					"error":   v.Error,
					"columns": strings.Join(v.Columns, ", "),
				}})
			})
		},
	}
}
