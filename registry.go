package linguist

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

type storeKey struct {
	module, locale string
}

// snapshot is an immutable view of the registry. Writers build a new one
// and publish it atomically.
type snapshot struct {
	stores map[storeKey]*Catalog
	chain  []string
}

func (s *snapshot) clone() *snapshot {
	stores := make(map[storeKey]*Catalog, len(s.stores)+1)
	for k, v := range s.stores {
		stores[k] = v
	}
	return &snapshot{stores: stores, chain: s.chain}
}

type diagnosticsHolder struct {
	d Diagnostics
}

// Registry holds the loaded catalogs keyed by (module, locale) and the
// active locale chain. Lookups never block: they read the current
// snapshot, which mutations replace as a whole. A Registry is safe for
// concurrent use.
type Registry struct {
	base string

	// mu serializes writers.
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
	diag atomic.Pointer[diagnosticsHolder]
}

// NewRegistry returns an empty registry whose locale chains end in base.
// The initial chain contains only base.
func NewRegistry(base string) (*Registry, error) {
	b, err := NormalizeLocale(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base locale: %w", err)
	}
	r := &Registry{base: b}
	r.snap.Store(&snapshot{
		stores: map[storeKey]*Catalog{},
		chain:  []string{b},
	})
	return r, nil
}

var defaultRegistry = func() *Registry {
	r, err := NewRegistry(BaseLocale)
	if err != nil {
		panic(err)
	}
	return r
}()

// Default returns the process wide registry. Its base locale is
// BaseLocale.
func Default() *Registry {
	return defaultRegistry
}

// Base returns the base locale.
func (r *Registry) Base() string {
	return r.base
}

// Register adds c under (c.Module(), c.Locale()), replacing any catalog
// previously registered for that pair. Lookups in flight keep seeing the
// catalog they started with.
func (r *Registry) Register(c *Catalog) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.snap.Load().clone()
	key := storeKey{c.Module(), c.Locale()}
	_, replaced := next.stores[key]
	next.stores[key] = c
	r.snap.Store(next)

	Logger.Debug().
		Str("module", key.module).
		Str("locale", key.locale).
		Int("messages", c.Len()).
		Bool("replaced", replaced).
		Msg("Registered catalog")
}

// Unregister removes the catalog of (module, locale). It reports whether
// a catalog was registered.
func (r *Registry) Unregister(module, locale string) bool {
	l, err := NormalizeLocale(locale)
	if err != nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	key := storeKey{module, l}
	if _, ok := cur.stores[key]; !ok {
		return false
	}
	next := cur.clone()
	delete(next.stores, key)
	r.snap.Store(next)

	Logger.Debug().Str("module", module).Str("locale", l).Msg("Unregistered catalog")
	return true
}

// SetLocaleChain replaces the active locale chain. Locales are normalized,
// invalid ones and duplicates are dropped, and the chain is terminated by
// the base locale. The effective chain is returned. It takes effect for
// the next lookup.
func (r *Registry) SetLocaleChain(locales ...string) []string {
	chain := r.normalizeChain(locales)

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.snap.Load().clone()
	next.chain = chain
	r.snap.Store(next)

	Logger.Debug().Strs("chain", chain).Msg("Locale chain changed")
	return append([]string(nil), chain...)
}

func (r *Registry) normalizeChain(locales []string) []string {
	chain := make([]string, 0, len(locales)+1)
	seen := make(map[string]bool, len(locales))
	for _, l := range locales {
		n, err := NormalizeLocale(l)
		if err != nil {
			Logger.Warn().Str("locale", l).Err(err).Msg("Ignoring invalid locale")
			continue
		}
		if !seen[n] {
			seen[n] = true
			chain = append(chain, n)
		}
	}
	return terminate(chain, r.base)
}

// LocaleChain returns a copy of the active locale chain.
func (r *Registry) LocaleChain() []string {
	return append([]string(nil), r.snap.Load().chain...)
}

// Catalog returns the catalog registered for (module, locale).
func (r *Registry) Catalog(module, locale string) (*Catalog, bool) {
	l, err := NormalizeLocale(locale)
	if err != nil {
		return nil, false
	}
	c, ok := r.snap.Load().stores[storeKey{module, l}]
	return c, ok
}

// Catalogs returns all registered catalogs sorted by module then locale.
func (r *Registry) Catalogs() []*Catalog {
	s := r.snap.Load()
	out := make([]*Catalog, 0, len(s.stores))
	for _, c := range s.stores {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module() != out[j].Module() {
			return out[i].Module() < out[j].Module()
		}
		return out[i].Locale() < out[j].Locale()
	})
	return out
}

// Modules returns the sorted names of modules with at least one catalog.
func (r *Registry) Modules() []string {
	seen := make(map[string]bool)
	var out []string
	for k := range r.snap.Load().stores {
		if !seen[k.module] {
			seen[k.module] = true
			out = append(out, k.module)
		}
	}
	sort.Strings(out)
	return out
}

// Locales returns the sorted locales registered for module.
func (r *Registry) Locales(module string) []string {
	var out []string
	for k := range r.snap.Load().stores {
		if k.module == module {
			out = append(out, k.locale)
		}
	}
	sort.Strings(out)
	return out
}

// SetDiagnostics installs the sink notified of lookups that did not
// resolve to a finished translation. A nil sink disables notifications.
func (r *Registry) SetDiagnostics(d Diagnostics) {
	if d == nil {
		r.diag.Store(nil)
		return
	}
	r.diag.Store(&diagnosticsHolder{d})
}
