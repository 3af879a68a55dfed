package linguist

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFormat is returned for files that are neither .ts nor .mo
// catalogs.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// PathResolver resolves the path of the catalog of module for locale.
type PathResolver func(root string, module string, locale string) string

// DefaultResolver resolves paths in the lupdate format of:
// <root>/<module>_<locale>.ts, with the locale written POSIX style
// ("ru_RU").
func DefaultResolver(root string, module string, locale string) string {
	return filepath.Join(root, fmt.Sprintf("%s_%s.ts", module, strings.ReplaceAll(locale, "-", "_")))
}

// GettextResolver resolves paths in the standard gettext format of:
// <root>/<locale>/LC_MESSAGES/<module>.mo
func GettextResolver(root string, module string, locale string) string {
	return filepath.Join(root, strings.ReplaceAll(locale, "-", "_"), "LC_MESSAGES", module+".mo")
}

// Loader reads catalog files and registers them into a Registry. Files
// that fail to parse are reported and never registered.
type Loader struct {
	registry *Registry

	// Root and Resolver locate catalogs for Load.
	Root     string
	Resolver PathResolver

	mu sync.Mutex
	// loaded maps a file to the catalog it provides, owners maps a
	// catalog to the file it is currently registered from.
	loaded map[string]storeKey
	owners map[storeKey]string
}

// NewLoader returns a loader registering into reg, resolving paths with
// DefaultResolver.
func NewLoader(reg *Registry, root string) *Loader {
	return &Loader{
		registry: reg,
		Root:     root,
		Resolver: DefaultResolver,
		loaded:   map[string]storeKey{},
		owners:   map[storeKey]string{},
	}
}

// Load loads the catalogs of module for the given locales. Missing files
// are skipped, parse failures are returned after the other catalogs have
// been registered.
func (l *Loader) Load(module string, locales ...string) error {
	var errs []error
	for _, locale := range locales {
		path := l.Resolver(l.Root, module, locale)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			Logger.Debug().Str("file", path).Msg("No catalog for locale")
			continue
		}
		if _, err := l.LoadFile(path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadFile parses one catalog file and registers it, replacing the
// catalog previously registered for the same module and locale.
func (l *Loader) LoadFile(path string) (*Catalog, error) {
	c, err := parseFile(path)
	if err != nil {
		Logger.Warn().Str("file", path).Err(err).Msg("Rejected catalog")
		return nil, err
	}
	l.register(path, c)
	return c, nil
}

func (l *Loader) register(path string, c *Catalog) {
	key := storeKey{c.Module(), c.Locale()}
	l.mu.Lock()
	defer l.mu.Unlock()
	if old, ok := l.loaded[path]; ok && old != key {
		// The file now declares another locale.
		l.release(path, old)
	}
	l.loaded[path] = key
	l.owners[key] = path
	l.registry.Register(c)
	Logger.Info().
		Str("file", path).
		Str("module", c.Module()).
		Str("locale", c.Locale()).
		Int("messages", c.Len()).
		Msg("Loaded catalog")
}

// forget unregisters the catalog loaded from path, if any. It reports
// whether the registry changed.
func (l *Loader) forget(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	key, ok := l.loaded[path]
	if !ok {
		return false
	}
	delete(l.loaded, path)
	return l.release(path, key)
}

// release drops path as the source of key. If path was the registered
// one, another file providing key takes over, the last in path order
// first, or key is unregistered. l.mu must be held.
func (l *Loader) release(path string, key storeKey) bool {
	if l.owners[key] != path {
		return false
	}
	delete(l.owners, key)

	var others []string
	for p, k := range l.loaded {
		if k == key && p != path {
			others = append(others, p)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(others)))
	for _, p := range others {
		c, err := parseFile(p)
		if err != nil {
			Logger.Warn().Str("file", p).Err(err).Msg("Rejected catalog")
			continue
		}
		if (storeKey{c.Module(), c.Locale()}) != key {
			continue
		}
		l.owners[key] = p
		l.registry.Register(c)
		Logger.Info().Str("file", p).Str("replaced", path).Msg("Loaded shadowed catalog")
		return true
	}
	return l.registry.Unregister(key.module, key.locale)
}

// LoadDir loads every catalog found under dir. Files are parsed
// concurrently and registered in path order once all of them are parsed,
// so the outcome does not depend on scheduling. The registered catalogs
// are returned along with every parse failure joined into one error.
func (l *Loader) LoadDir(dir string) ([]*Catalog, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isCatalogFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot scan catalog directory: %w", err)
	}
	sort.Strings(paths)

	catalogs := make([]*Catalog, len(paths))
	errs := make([]error, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			catalogs[i], errs[i] = parseFile(path)
			return nil
		})
	}
	_ = g.Wait()

	var out []*Catalog
	seen := make(map[storeKey]string)
	for i, c := range catalogs {
		if errs[i] != nil {
			Logger.Warn().Str("file", paths[i]).Err(errs[i]).Msg("Rejected catalog")
			continue
		}
		key := storeKey{c.Module(), c.Locale()}
		if prev, ok := seen[key]; ok {
			Logger.Warn().
				Str("file", paths[i]).
				Str("shadowed", prev).
				Msg("Several catalogs for the same module and locale, the last one wins")
		}
		seen[key] = paths[i]
		l.register(paths[i], c)
		out = append(out, c)
	}
	return out, errors.Join(errs...)
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mo":
		return true
	}
	return false
}

// parseFile infers module and locale from the file name and parses it
// according to its extension.
func parseFile(path string) (*Catalog, error) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	module, locale, ok := SplitCatalogName(base)
	if !ok {
		module = strings.TrimSuffix(base, filepath.Ext(base))
	}
	// gettext layout: <locale>/LC_MESSAGES/<module>.mo
	if dir := filepath.Dir(path); filepath.Base(dir) == "LC_MESSAGES" {
		module = strings.TrimSuffix(base, filepath.Ext(base))
		locale = filepath.Base(filepath.Dir(dir))
	}

	if ext != ".ts" && ext != ".mo" {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var c *Catalog
	if ext == ".ts" {
		c, err = ParseTSLocale(f, module, locale)
	} else {
		c, err = ParseMO(f, module, locale)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// SplitCatalogName splits a catalog file name such as
// "leechcraft_cstp_ru_RU.ts" into its module ("leechcraft_cstp") and
// locale ("ru_RU") parts. The locale is a language code optionally
// followed by a script and a region; ok is false when the name does not
// end in one.
func SplitCatalogName(name string) (module, locale string, ok bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	i := len(parts) - 1
	if i >= 1 && isRegionCode(parts[i]) {
		i--
	}
	if i >= 1 && isScriptCode(parts[i]) {
		i--
	}
	if i < 1 || !isLanguageCode(parts[i]) {
		return "", "", false
	}
	return strings.Join(parts[:i], "_"), strings.Join(parts[i:], "_"), true
}

func isLanguageCode(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func isRegionCode(s string) bool {
	switch len(s) {
	case 2:
		return s[0] >= 'A' && s[0] <= 'Z' && s[1] >= 'A' && s[1] <= 'Z'
	case 3:
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	return false
}

func isScriptCode(s string) bool {
	if len(s) != 4 || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for _, r := range s[1:] {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
