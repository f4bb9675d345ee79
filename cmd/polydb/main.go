// Package main provides the polydb command.
package main

import (
	"os"

	"github.com/leapstack-labs/polydb/internal/cli"

	// Engine adapters register themselves by kind.
	_ "github.com/leapstack-labs/polydb/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/polydb/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/polydb/pkg/adapters/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
