package mysql

import (
	"log/slog"

	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/leapstack-labs/polydb/pkg/core"
)

// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/leapstack-labs/polydb/pkg/adapters/mysql"
func init() {
	adapter.Register(core.EngineMySQL, func(cfg core.DatabaseConfig, logger *slog.Logger) (adapter.Adapter, error) {
		a, err := New(cfg, logger)
		if err != nil {
			return nil, err
		}
		return a, nil
	})
}
