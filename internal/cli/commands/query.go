package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input  string
	Params []string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a SQL statement",
		Long: `Run one SQL statement against the selected database.

The statement is taken from the arguments, from --input, or from piped stdin.
When invoked without any of these on a terminal, enters interactive REPL mode.`,
		Example: `  # Run a query against the default database
  polydb query "SELECT * FROM users"

  # Bind positional parameters
  polydb query "SELECT * FROM users WHERE role = ?" --param admin

  # Another logical database, as JSON
  polydb query "SELECT 1" --db reporting --format json

  # Interactive mode
  polydb query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Positional parameter (repeatable)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		return runQueryREPL(cmd, cmdCtx)
	}

	if strings.TrimSpace(sqlQuery) == "" {
		return errors.New("no SQL given")
	}
	return executeAndRender(cmd.Context(), cmdCtx, sqlQuery, toParams(opts.Params))
}

func executeAndRender(ctx context.Context, cmdCtx *CommandContext, sqlQuery string, params []any) error {
	res, err := cmdCtx.Service.ExecuteQuery(ctx, cmdCtx.Database, sqlQuery, params...)
	if err != nil {
		return err
	}
	return cmdCtx.Renderer.Result(res)
}

// toParams passes flag values through as strings; every driver binds them
// with its own text conversion.
func toParams(values []string) []any {
	params := make([]any, len(values))
	for i, v := range values {
		params[i] = v
	}
	return params
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
