package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jessevdk/go-flags"

	"github.com/snapcore/go-linguist"
)

var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

type options struct {
	Config string `long:"config" value-name:"FILE" description:"read settings from the YAML file FILE"`

	Catalogs []string `short:"d" long:"catalogs" value-name:"DIR" description:"load the .ts and .mo catalogs found under DIR"`

	Locales []string `short:"l" long:"locale" value-name:"LOCALE" description:"prefer LOCALE, in the order given (default: from the environment)"`

	Base string `long:"base" value-name:"LOCALE" description:"locale of the source texts (default: en)"`

	Verbose bool `short:"v" long:"verbose" description:"log debug messages"`
}

var errExtraArgs = errors.New("too many arguments for command")

type cmdLookup struct {
	opts *options

	Context        string `short:"c" long:"context" value-name:"CONTEXT" description:"context of the message"`
	Disambiguation string `long:"disambiguation" value-name:"COMMENT" description:"disambiguation comment of the message"`

	Positional struct {
		Module string `positional-arg-name:"<module>"`
		Source string `positional-arg-name:"<source>"`
	} `positional-args:"yes" required:"yes"`
}

func (x *cmdLookup) Execute(args []string) error {
	if len(args) > 0 {
		return errExtraArgs
	}
	env, err := setup(x.opts)
	if err != nil {
		return err
	}
	key := linguist.Key{Context: x.Context, Source: x.Positional.Source, Disambiguation: x.Disambiguation}
	printResolution(env.registry.Resolve(x.Positional.Module, key))
	return nil
}

type cmdPlural struct {
	opts *options

	Context        string `short:"c" long:"context" value-name:"CONTEXT" description:"context of the message"`
	Disambiguation string `long:"disambiguation" value-name:"COMMENT" description:"disambiguation comment of the message"`

	Positional struct {
		Module string `positional-arg-name:"<module>"`
		Source string `positional-arg-name:"<source>"`
		N      uint64 `positional-arg-name:"<n>"`
	} `positional-args:"yes" required:"yes"`
}

func (x *cmdPlural) Execute(args []string) error {
	if len(args) > 0 {
		return errExtraArgs
	}
	env, err := setup(x.opts)
	if err != nil {
		return err
	}
	key := linguist.Key{Context: x.Context, Source: x.Positional.Source, Disambiguation: x.Disambiguation}
	printResolution(env.registry.ResolvePlural(x.Positional.Module, key, x.Positional.N))
	return nil
}

func printResolution(res linguist.Resolution) {
	fmt.Fprintln(Stdout, res.Text)
	switch {
	case res.Outcome == linguist.NotFound:
		fmt.Fprintf(Stdout, "outcome: %s\n", res.Outcome)
	case res.Migrated:
		fmt.Fprintf(Stdout, "outcome: %s (%s, migrated)\n", res.Outcome, res.Locale)
	default:
		fmt.Fprintf(Stdout, "outcome: %s (%s)\n", res.Outcome, res.Locale)
	}
}

type cmdStats struct {
	opts *options
}

func (x *cmdStats) Execute(args []string) error {
	if len(args) > 0 {
		return errExtraArgs
	}
	env, err := setup(x.opts)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(Stdout, 5, 3, 2, ' ', 0)
	fmt.Fprintln(w, "Module\tLocale\tTotal\tFinished\tUnfinished\tObsolete\tVanished")
	for _, c := range env.registry.Catalogs() {
		s := c.Stats()
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			c.Module(), c.Locale(), s.Total, s.Finished, s.Unfinished, s.Obsolete, s.Vanished)
	}
	return w.Flush()
}

type cmdCheck struct {
	opts *options

	Strict bool `long:"strict" description:"also fail on unfinished translations"`
}

func (x *cmdCheck) Execute(args []string) error {
	if len(args) > 0 {
		return errExtraArgs
	}
	env, err := setup(x.opts)
	if err != nil {
		return err
	}
	strict := x.Strict || env.cfg.Strict

	failures := flatten(env.loadErr)
	for _, err := range failures {
		fmt.Fprintf(Stdout, "error: %v\n", err)
	}
	var unfinished int
	for _, c := range env.loaded {
		s := c.Stats()
		if s.Unfinished == 0 {
			continue
		}
		unfinished++
		if strict {
			fmt.Fprintf(Stdout, "unfinished: %s %s: %d of %d messages\n", c.Module(), c.Locale(), s.Unfinished, s.Total)
		}
	}

	switch {
	case len(failures) > 0:
		return fmt.Errorf("%d catalog(s) failed to load", len(failures))
	case strict && unfinished > 0:
		return fmt.Errorf("%d catalog(s) have unfinished translations", unfinished)
	}
	fmt.Fprintf(Stdout, "%d catalog(s) ok\n", len(env.loaded))
	return nil
}

// flatten returns the leaves of a tree of joined errors.
func flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}

func newParser(opts *options) *flags.Parser {
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.ShortDescription = "Inspect Qt Linguist and gettext catalogs"
	parser.LongDescription = "Load translation catalogs and resolve messages through a locale fallback chain."

	for _, c := range []struct {
		name, short, long string
		data              interface{}
	}{
		{"lookup", "Resolve a message", "Print the text displayed for a message and where it came from.", &cmdLookup{opts: opts}},
		{"plural", "Resolve a plural message", "Print the plural form displayed for a message and a quantity.", &cmdPlural{opts: opts}},
		{"stats", "Show catalog statistics", "Print the number of messages per status of every loaded catalog.", &cmdStats{opts: opts}},
		{"check", "Validate catalogs", "Fail if any catalog cannot be loaded, or in strict mode has unfinished translations.", &cmdCheck{opts: opts}},
	} {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			panic(err)
		}
	}
	return parser
}

func run(args []string) error {
	var opts options
	_, err := newParser(&opts).ParseArgs(args)
	return err
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(Stdout, err)
			os.Exit(0)
		}
		fmt.Fprintf(Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
