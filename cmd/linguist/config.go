package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/snapcore/go-linguist"
)

// config holds the settings that may come from a YAML file. Command line
// options override them.
type config struct {
	BaseLocale string   `yaml:"base_locale"`
	Locales    []string `yaml:"locales"`
	Catalogs   []string `yaml:"catalogs"`
	LogLevel   string   `yaml:"log_level"`
	Strict     bool     `yaml:"strict"`
}

func readConfig(path string) (*config, error) {
	cfg := &config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read configuration file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse configuration file %s: %w", path, err)
	}
	return cfg, nil
}

// merge applies the command line options on top of the file settings.
func (cfg *config) merge(opts *options) {
	if opts.Base != "" {
		cfg.BaseLocale = opts.Base
	}
	if cfg.BaseLocale == "" {
		cfg.BaseLocale = linguist.BaseLocale
	}
	if len(opts.Locales) > 0 {
		cfg.Locales = opts.Locales
	}
	if len(cfg.Locales) == 0 {
		cfg.Locales = linguist.UserLanguages()
	}
	if len(opts.Catalogs) > 0 {
		cfg.Catalogs = opts.Catalogs
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
}

func (cfg *config) logLevel() (zerolog.Level, error) {
	if cfg.LogLevel == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	return level, nil
}

// consoleWriter returns a writer for zerolog that only uses colours on a
// terminal.
func consoleWriter(w io.Writer) io.Writer {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.DateTime}
}

// environment is what every command works with: the configuration and a
// registry with the configured catalogs loaded.
type environment struct {
	cfg      *config
	registry *linguist.Registry
	chain    []string
	// loaded are the registered catalogs, loadErr the joined parse
	// failures.
	loaded  []*linguist.Catalog
	loadErr error
}

func setup(opts *options) (*environment, error) {
	cfg, err := readConfig(opts.Config)
	if err != nil {
		return nil, err
	}
	cfg.merge(opts)

	level, err := cfg.logLevel()
	if err != nil {
		return nil, err
	}
	linguist.Logger = zerolog.New(consoleWriter(Stderr)).Level(level).With().Timestamp().Logger()

	reg, err := linguist.NewRegistry(cfg.BaseLocale)
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, registry: reg}
	env.chain = reg.SetLocaleChain(linguist.FallbackChain(reg.Base(), cfg.Locales...)...)

	loader := linguist.NewLoader(reg, "")
	var errs []error
	for _, dir := range cfg.Catalogs {
		catalogs, err := loader.LoadDir(dir)
		env.loaded = append(env.loaded, catalogs...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	env.loadErr = errors.Join(errs...)
	reg.SetDiagnostics(linguist.NewLogDiagnostics(linguist.Logger))
	return env, nil
}
