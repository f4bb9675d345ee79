package adapter

import (
	"log/slog"
	"testing"

	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownEngineError_Error(t *testing.T) {
	err := &UnknownEngineError{
		Kind:      "fake_db",
		Available: []string{"mysql", "sqlite"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "fake_db", "error should mention the unknown kind")
	assert.Contains(t, msg, "sqlite", "error should list available engines")
	assert.ErrorIs(t, err, core.ErrUnsupportedEngine)
}

func TestRegister(t *testing.T) {
	const kind core.EngineKind = "test_engine_internal"
	Register(kind, func(_ core.DatabaseConfig, _ *slog.Logger) (Adapter, error) { return nil, nil })
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, kind)
		registryMu.Unlock()
	})

	assert.True(t, IsRegistered(kind))
	assert.Contains(t, ListAdapters(), "test_engine_internal")

	factory, ok := Get(kind)
	assert.True(t, ok)
	assert.NotNil(t, factory)
}

func TestNewAdapter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     core.DatabaseConfig
		wantErr error
	}{
		{
			name:    "missing name",
			cfg:     core.DatabaseConfig{Kind: core.EngineSQLite, Database: ":memory:"},
			wantErr: core.ErrInvalidConfig,
		},
		{
			name:    "unknown engine",
			cfg:     core.DatabaseConfig{Name: "x", Kind: "oracle", Database: "db"},
			wantErr: core.ErrUnsupportedEngine,
		},
		{
			name:    "missing database",
			cfg:     core.DatabaseConfig{Name: "x", Kind: core.EngineMySQL},
			wantErr: core.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdapter(tt.cfg, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, core.IsKind(err, core.KindConfig))
		})
	}
}

func TestNewAdapter_Unregistered(t *testing.T) {
	// No concrete adapters are imported by this package's internal tests.
	_, err := NewAdapter(core.DatabaseConfig{Name: "x", Kind: core.EngineMySQL, Database: "db"}, nil)
	require.Error(t, err)

	var unknown *UnknownEngineError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, core.EngineMySQL, unknown.Kind)
	assert.True(t, core.IsKind(err, core.KindConfig))
}
