// Package subcmd builds flag sets for soundscout's subcommands.
package subcmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

func New(name, doc string) *Subcommand {
	sc := &Subcommand{
		FlagSet: flag.NewFlagSet(name, flag.ContinueOnError),
		name:    name,
		output:  os.Stderr,
	}
	sc.FlagSet.SetOutput(sc.output)
	sc.FlagSet.Usage = func() {
		argSuffix := ""
		if sc.arg != nil {
			argSuffix = fmt.Sprintf(" <%s>", sc.arg.name)
		}
		fmt.Fprintf(sc.output, "\n%s\n\n", doc)
		fmt.Fprintf(sc.output, "  soundscout %s [flags]%s\n\n", name, argSuffix)
		fmt.Fprintf(sc.output, "flags:\n")
		sc.FlagSet.PrintDefaults()
		if sc.arg != nil {
			fmt.Fprintf(sc.output, "  <%s> %s\n", sc.arg.name, sc.arg.typename)
			fmt.Fprintf(sc.output, "  \t%s\n", sc.arg.usage)
		}
	}
	return sc
}

type Subcommand struct {
	*flag.FlagSet
	name   string
	arg    *arg
	output io.Writer
}

type arg struct {
	name     string
	typename string
	usage    string
	required bool
}

// SetArg documents the positional argument. A required argument makes
// Parse fail when none is given.
func (sc *Subcommand) SetArg(name, typename, usage string, required bool) *Subcommand {
	sc.arg = &arg{name, typename, usage, required}
	return sc
}

func (sc *Subcommand) SetOutput(w io.Writer) {
	sc.output = w
	sc.FlagSet.SetOutput(w)
}

func (sc *Subcommand) Parse(args []string) error {
	if err := sc.FlagSet.Parse(args); err != nil {
		return err
	}
	if sc.arg != nil && sc.arg.required && sc.Arg() == "" {
		sc.FlagSet.Usage()
		return fmt.Errorf("%s: missing <%s>", sc.name, sc.arg.name)
	}
	return nil
}

// Arg returns the positional arguments joined by spaces, so that
// multi-word names don't need quoting.
func (sc *Subcommand) Arg() string {
	return strings.TrimSpace(strings.Join(sc.FlagSet.Args(), " "))
}
