package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display polydb version and the database engines compiled in.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "polydb v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Engines: %s\n", strings.Join(adapter.ListAdapters(), ", "))
		},
	}
}
