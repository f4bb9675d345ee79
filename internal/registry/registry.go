// Package registry owns the mapping from logical database names to their
// configuration and live adapter.
//
// Adapters are created lazily by GetConnection. Concurrent callers asking for
// the same name while the first connect is in flight share that one connect.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/polydb/pkg/adapter"
	"github.com/leapstack-labs/polydb/pkg/core"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	cfg     core.DatabaseConfig
	adapter adapter.Adapter
	// gen changes when ReplaceConfig installs a new config, so a connect that
	// raced with the replacement does not cache an adapter built from the old one.
	gen uint64
}

// connectAttempts bounds how often connect restarts after racing with
// ReplaceConfig.
const connectAttempts = 3

// Registry maps logical names to configs and adapters.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextGen uint64

	group   singleflight.Group
	factory adapter.Factory
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithFactory overrides the adapter factory. The default is adapter.NewAdapter.
func WithFactory(f adapter.Factory) Option {
	return func(r *Registry) { r.factory = f }
}

// WithLogger sets the logger handed to the registry and every adapter it builds.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		factory: adapter.NewAdapter,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddConfig upserts the configuration for name. An adapter already open
// under name, or being connected, keeps running on its original config
// until it is closed.
func (r *Registry) AddConfig(name string, cfg core.DatabaseConfig) error {
	return r.put(name, cfg, false)
}

// ReplaceConfig closes any adapter open under name and installs cfg. The
// next GetConnection connects with the new config, and a connect already in
// flight is discarded and redone with it. A close failure is logged.
func (r *Registry) ReplaceConfig(name string, cfg core.DatabaseConfig) error {
	if err := r.CloseConnection(name); err != nil {
		r.logger.Warn("close before replace failed", slog.String("database", name), slog.Any("error", err))
	}
	return r.put(name, cfg, true)
}

func (r *Registry) put(name string, cfg core.DatabaseConfig, invalidate bool) error {
	cfg = cfg.Clone()
	cfg.Name = name
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		e.cfg = cfg
		if invalidate {
			r.nextGen++
			e.gen = r.nextGen
		}
		return nil
	}
	r.nextGen++
	r.entries[name] = &entry{cfg: cfg, gen: r.nextGen}
	r.logger.Debug("database configured", slog.String("database", name), slog.String("engine", cfg.Kind.String()))
	return nil
}

// Config returns a copy of the configuration stored under name.
func (r *Registry) Config(name string) (core.DatabaseConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return core.DatabaseConfig{}, false
	}
	return e.cfg.Clone(), true
}

// Names returns all configured logical names (sorted).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetConnection returns a connected adapter for name, creating or
// reconnecting it when needed.
func (r *Registry) GetConnection(ctx context.Context, name string) (adapter.Adapter, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	var current adapter.Adapter
	if ok {
		current = e.adapter
	}
	r.mu.RUnlock()

	if !ok {
		return nil, unknown(name)
	}
	if current != nil && current.IsConnected() {
		return current, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		return r.connect(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(adapter.Adapter), nil
}

// connect builds and connects a fresh adapter for name. It runs at most once
// at a time per name.
func (r *Registry) connect(ctx context.Context, name string) (adapter.Adapter, error) {
	for range connectAttempts {
		r.mu.RLock()
		e, ok := r.entries[name]
		if !ok {
			r.mu.RUnlock()
			return nil, unknown(name)
		}
		if e.adapter != nil && e.adapter.IsConnected() {
			a := e.adapter
			r.mu.RUnlock()
			return a, nil
		}
		cfg, gen, stale := e.cfg.Clone(), e.gen, e.adapter
		r.mu.RUnlock()

		if stale != nil {
			r.logger.Info("reconnecting", slog.String("database", name))
			r.closeQuietly(name, stale)
		}

		a, err := r.factory(cfg, r.logger)
		if err != nil {
			return nil, err
		}
		if err := a.Connect(ctx); err != nil {
			return nil, err
		}

		r.mu.Lock()
		e, ok = r.entries[name]
		if ok && e.gen == gen {
			e.adapter = a
			r.mu.Unlock()
			r.logger.Debug("connection cached", slog.String("database", name))
			return a, nil
		}
		r.mu.Unlock()

		r.closeQuietly(name, a)
		if !ok {
			return nil, unknown(name)
		}
		r.logger.Debug("configuration replaced while connecting, retrying", slog.String("database", name))
	}
	return nil, &core.Error{
		Kind:     core.KindConfig,
		Op:       "get connection",
		Database: name,
		Err:      errors.New("configuration replaced while connecting"),
	}
}

// CloseConnection disconnects the adapter under name and forgets it. The
// config stays. Closing a name with no adapter, or an unknown name, is a no-op.
func (r *Registry) CloseConnection(name string) error {
	r.mu.Lock()
	var a adapter.Adapter
	if e, ok := r.entries[name]; ok {
		a, e.adapter = e.adapter, nil
	}
	r.mu.Unlock()

	if a == nil {
		return nil
	}
	if err := a.Disconnect(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	r.logger.Debug("connection closed", slog.String("database", name))
	return nil
}

// RemoveConfig closes the connection under name and forgets its config.
// The config is removed even when the close fails.
func (r *Registry) RemoveConfig(name string) error {
	err := r.CloseConnection(name)

	r.mu.Lock()
	delete(r.entries, name)
	r.mu.Unlock()
	return err
}

// CloseAll disconnects every cached adapter concurrently. Each failure is
// logged and does not stop the others; the joined failures are returned.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	open := make(map[string]adapter.Adapter)
	for name, e := range r.entries {
		if e.adapter != nil {
			open[name] = e.adapter
			e.adapter = nil
		}
	}
	r.mu.Unlock()

	var (
		g      errgroup.Group
		errsMu sync.Mutex
		errs   []error
	)
	for name, a := range open {
		g.Go(func() error {
			if err := a.Disconnect(); err != nil {
				r.logger.Error("failed to close connection", slog.String("database", name), slog.Any("error", err))
				errsMu.Lock()
				errs = append(errs, fmt.Errorf("close %s: %w", name, err))
				errsMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Info("all connections closed", slog.Int("count", len(open)), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// TestConnection reports whether name can be connected and answers a probe.
// Failures are logged and reported as false.
func (r *Registry) TestConnection(ctx context.Context, name string) bool {
	a, err := r.GetConnection(ctx, name)
	if err != nil {
		r.logger.Debug("connection test failed", slog.String("database", name), slog.Any("error", err))
		return false
	}
	return a.TestConnection(ctx)
}

func (r *Registry) closeQuietly(name string, a adapter.Adapter) {
	if err := a.Disconnect(); err != nil {
		r.logger.Warn("failed to close stale connection", slog.String("database", name), slog.Any("error", err))
	}
}

func unknown(name string) error {
	return &core.Error{
		Kind:     core.KindConfig,
		Op:       "get connection",
		Database: name,
		Err:      fmt.Errorf("%w: %s", core.ErrUnknownDatabase, name),
	}
}
