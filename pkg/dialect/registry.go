package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/polydb/pkg/core"
)

// Dialect registry
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
	byEngine   = make(map[core.EngineKind]*Dialect)
)

// Get returns a dialect by name.
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// Register registers a dialect in the global registry.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
	if d.Engine != "" {
		byEngine[d.Engine] = d
	}
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForEngine returns the dialect bound to an engine kind.
// An unsupported kind is a configuration error.
func ForEngine(kind core.EngineKind) (*Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := byEngine[kind]
	if !ok {
		return nil, &core.Error{
			Kind: core.KindConfig,
			Op:   "resolve dialect",
			Err:  fmt.Errorf("%w: %q", core.ErrUnsupportedEngine, kind),
		}
	}
	return d, nil
}
