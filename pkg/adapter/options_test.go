package adapter

import (
	"testing"
	"time"

	"github.com/leapstack-labs/polydb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOptions struct {
	PoolOptions `mapstructure:",squash"`
	Charset     string `mapstructure:"charset"`
	Strict      bool   `mapstructure:"strict"`
}

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    testOptions
		wantErr bool
	}{
		{
			name: "empty keeps defaults",
			raw:  nil,
			want: testOptions{PoolOptions: PoolOptions{MaxOpenConns: 10}, Charset: "utf8mb4"},
		},
		{
			name: "typed values",
			raw:  map[string]any{"max_open_conns": 20, "charset": "latin1", "strict": true},
			want: testOptions{PoolOptions: PoolOptions{MaxOpenConns: 20}, Charset: "latin1", Strict: true},
		},
		{
			name: "weakly typed strings",
			raw: map[string]any{
				"max_open_conns":    "3",
				"strict":            "true",
				"acquire_timeout":   "2s",
				"statement_timeout": "1m30s",
			},
			want: testOptions{
				PoolOptions: PoolOptions{MaxOpenConns: 3, AcquireTimeout: 2 * time.Second, StatementTimeout: 90 * time.Second},
				Charset:     "utf8mb4",
				Strict:      true,
			},
		},
		{
			name:    "unknown key rejected",
			raw:     map[string]any{"max_open_conn": 3},
			wantErr: true,
		},
		{
			name:    "bad duration rejected",
			raw:     map[string]any{"idle_timeout": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testOptions{PoolOptions: PoolOptions{MaxOpenConns: 10}, Charset: "utf8mb4"}
			err := DecodeOptions("db", tt.raw, &got)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, core.ErrInvalidConfig)
				assert.True(t, core.IsKind(err, core.KindConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionKeys(t *testing.T) {
	type engineOptions struct {
		PoolOptions `mapstructure:",squash"`
		Charset     string `mapstructure:"charset"`
		ParseTime   bool   `mapstructure:"parse_time"`
		Ignored     string `mapstructure:"-"`
		internal    string
	}
	_ = engineOptions{}.internal

	assert.Equal(t, []string{
		"acquire_timeout", "charset", "conn_max_lifetime", "idle_timeout",
		"max_idle_conns", "max_open_conns", "parse_time", "statement_timeout",
	}, OptionKeys(engineOptions{}, &PoolOptions{}))
	assert.Empty(t, OptionKeys(nil, 42))
}
