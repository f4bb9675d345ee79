package adapter

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/polydb/pkg/core"
)

// Factory builds an unconnected adapter for cfg. It fails with a
// configuration error when cfg.Options cannot be decoded.
type Factory func(cfg core.DatabaseConfig, logger *slog.Logger) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[core.EngineKind]Factory)
)

// Register adds an adapter factory to the registry.
// Called by adapter implementations in their init() functions.
func Register(kind core.EngineKind, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = factory
}

// Get retrieves an adapter factory by engine kind.
func Get(kind core.EngineKind) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[kind]
	return f, ok
}

// NewAdapter creates a new adapter instance based on cfg.Kind.
// The logger parameter is passed to the adapter constructor (nil uses discard logger).
func NewAdapter(cfg core.DatabaseConfig, logger *slog.Logger) (Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factory, ok := Get(cfg.Kind)
	if !ok {
		return nil, &core.Error{
			Kind:     core.KindConfig,
			Op:       "create adapter",
			Database: cfg.Name,
			Err:      &UnknownEngineError{Kind: cfg.Kind, Available: ListAdapters()},
		}
	}
	return factory(cfg, logger)
}

// ListAdapters returns all registered engine kinds (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for kind := range registry {
		names = append(names, kind.String())
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an engine kind has a registered adapter.
func IsRegistered(kind core.EngineKind) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[kind]
	return ok
}

// UnknownEngineError is returned when no adapter is registered for an engine kind.
type UnknownEngineError struct {
	Kind      core.EngineKind
	Available []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("no adapter registered for engine %q (available: %v)", e.Kind, e.Available)
}

// Unwrap lets errors.Is match core.ErrUnsupportedEngine.
func (e *UnknownEngineError) Unwrap() error {
	return core.ErrUnsupportedEngine
}
