// Package commands implements the polydb subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/polydb/internal/config"
	"github.com/leapstack-labs/polydb/internal/query"
	"github.com/leapstack-labs/polydb/internal/registry"
	"github.com/spf13/cobra"
)

// CommandContext holds everything a command needs to talk to its databases.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Registry *registry.Registry
	Service  *query.Service
	Renderer *Renderer

	// Database is the logical name selected by --db or the active setting.
	Database string
}

// NewCommandContext builds the registry from the loaded configuration. The
// returned cleanup closes every connection the command opened.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := reg.CloseAll(); err != nil {
			logger.Warn("failed to close connections", slog.Any("error", err))
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Registry: reg,
		Service:  query.NewService(reg, logger),
		Renderer: NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Format),
		Database: cfg.Active,
	}, cleanup, nil
}

// newRegistry registers every configured database. A broken entry only
// fails the command when it is the active one; others are logged and skipped.
func newRegistry(cfg *config.Config, logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.New(registry.WithLogger(logger))

	names := make([]string, 0, len(cfg.Databases))
	for name := range cfg.Databases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dbCfg, err := cfg.Databases[name].ToCore(name)
		if err == nil {
			err = reg.AddConfig(name, dbCfg)
		}
		if err == nil {
			continue
		}
		if name == cfg.Active {
			return nil, fmt.Errorf("database %q: %w", name, err)
		}
		logger.Warn("skipping misconfigured database", slog.String("database", name), slog.Any("error", err))
	}
	return reg, nil
}
