package adapter

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/polydb/pkg/core"
)

// PoolOptions are the pool settings shared by every engine.
// Engine option structs embed it with `mapstructure:",squash"`.
type PoolOptions struct {
	MaxOpenConns     int           `mapstructure:"max_open_conns"`
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	AcquireTimeout   time.Duration `mapstructure:"acquire_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// DecodeOptions decodes raw config options into out, which must be a pointer
// to a struct pre-filled with defaults. Strings are accepted for numbers,
// booleans and durations ("30s"). Unknown keys are rejected.
func DecodeOptions(name string, raw map[string]any, out any) error {
	if len(raw) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return &core.Error{
			Kind:     core.KindConfig,
			Op:       "decode options",
			Database: name,
			Err:      fmt.Errorf("%w: %w", core.ErrInvalidConfig, err),
		}
	}
	return nil
}

// OptionKeys returns the sorted option keys declared by the mapstructure tags
// of the given option structs, following squashed embeds.
func OptionKeys(structs ...any) []string {
	var keys []string
	for _, v := range structs {
		keys = appendOptionKeys(keys, reflect.TypeOf(v))
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

func appendOptionKeys(keys []string, t reflect.Type) []string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return keys
	}
	for i := range t.NumField() {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if strings.Contains(opts, "squash") {
			keys = appendOptionKeys(keys, f.Type)
			continue
		}
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}
