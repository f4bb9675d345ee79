package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "polydb> "
	replContPrompt = "   ...> "
)

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext) error {
	ctx := cmd.Context()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    newTableCompleter(ctx, cmdCtx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "polydb REPL (database: %s)\n", cmdCtx.Database)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if multiLineBuffer.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, cmd, cmdCtx, line); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		query := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		if err := executeAndRender(ctx, cmdCtx, query, nil); err != nil {
			cmdCtx.Renderer.Errorf("Error: %v", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleDotCommand runs one REPL meta command and reports whether the REPL
// should exit.
func handleDotCommand(ctx context.Context, cmd *cobra.Command, cmdCtx *CommandContext, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	var err error
	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".tables":
		err = renderTables(ctx, cmdCtx)

	case ".schema":
		if len(parts) < 2 {
			cmdCtx.Renderer.Errorf("Usage: .schema <table>")
			return false
		}
		err = renderDescribe(ctx, cmdCtx, parts[1])

	case ".databases":
		err = renderStatus(ctx, cmdCtx)

	case ".use":
		if len(parts) < 2 {
			cmdCtx.Renderer.Errorf("Usage: .use <database>")
			return false
		}
		if _, ok := cmdCtx.Registry.Config(parts[1]); !ok {
			cmdCtx.Renderer.Errorf("Unknown database: %s", parts[1])
			return false
		}
		cmdCtx.Database = parts[1]
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Using %s\n", cmdCtx.Database)

	case ".clear":
		_, _ = fmt.Fprint(cmd.OutOrStdout(), "\033[H\033[2J")

	default:
		cmdCtx.Renderer.Errorf("Unknown command: %s (type .help for commands)", command)
	}

	if err != nil {
		cmdCtx.Renderer.Errorf("Error: %v", err)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .tables           List tables
  .schema <table>   Describe a table
  .databases        Show configured databases and their status
  .use <database>   Switch the logical database
  .clear            Clear the screen
  .quit / .exit     Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// historyFile returns the REPL history path, or "" to disable history.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "polydb")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "query_history")
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(ctx context.Context, cmdCtx *CommandContext) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	// Completion is best effort; an unreachable database just offers the
	// dot commands.
	if tables, err := cmdCtx.Service.GetTables(ctx, cmdCtx.Database); err == nil {
		for _, name := range tables {
			items = append(items, readline.PcItem(name))
		}
	}

	var useItems []readline.PrefixCompleterInterface
	for _, name := range cmdCtx.Registry.Names() {
		useItems = append(useItems, readline.PcItem(name))
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".databases"),
		readline.PcItem(".use", useItems...),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
