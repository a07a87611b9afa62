// soundscout scrapes artist and track pages from SoundCloud and answers
// discovery queries about them, either over HTTP (serve) or one query at a
// time from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amonks/soundscout/config"
	"github.com/amonks/soundscout/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var usage = strings.TrimSpace(`
usage: soundscout $cmd
valid $cmd are 'serve', 'artist', 'track', 'search', 'similar', 'trending', 'analyze', 'genres', 'task'
for help: soundscout $cmd -help
`)

type command func(ctx context.Context, cfg *config.Config, out io.Writer, args []string) error

var commands = map[string]command{
	"serve":    serve,
	"artist":   artist,
	"track":    track,
	"search":   search,
	"similar":  similar,
	"trending": trending,
	"analyze":  analyze,
	"genres":   listGenres,
	"task":     task,
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}
	cmd, args := args[0], args[1:]
	fn, ok := commands[cmd]
	if !ok {
		return fmt.Errorf("unknown cmd: '%s'\n%s", cmd, usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, cfg, out, args)
}
