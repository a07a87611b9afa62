package main

import (
	"context"
	"fmt"
	"io"

	"github.com/amonks/soundscout/config"
	"github.com/amonks/soundscout/setflag"
	"github.com/amonks/soundscout/soundcloud"
	"github.com/amonks/soundscout/subcmd"
)

func artist(ctx context.Context, cfg *config.Config, out io.Writer, args []string) error {
	subcmd := subcmd.New("artist", "scrape an artist profile and print it as json")
	subcmd.SetArg("username", "string", "profile username or url (required)", true)
	var (
		tracks    = subcmd.Bool("tracks", true, "include the artist's tracks")
		maxTracks = subcmd.Int("max-tracks", 50, "maximum number of tracks to include")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	profile, err := app.scraper.ScrapeArtist(ctx, subcmd.Arg(), *tracks, *maxTracks)
	if err != nil {
		return err
	}
	return printJSON(out, profile)
}

func track(ctx context.Context, cfg *config.Config, out io.Writer, args []string) error {
	subcmd := subcmd.New("track", "scrape a track page and print it as json")
	subcmd.SetArg("url", "string", "track url (required)", true)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	info, err := app.scraper.ScrapeTrack(ctx, subcmd.Arg())
	if err != nil {
		return err
	}
	return printJSON(out, info)
}

func search(ctx context.Context, cfg *config.Config, out io.Writer, args []string) error {
	subcmd := subcmd.New("search", "search soundcloud")
	subcmd.SetArg("query", "string", "search query (required)", true)
	kind := setflag.New(soundcloud.SearchArtists, soundcloud.SearchArtists, soundcloud.SearchTracks, soundcloud.SearchPlaylists)
	subcmd.Var(kind, "type", "what to search for: "+kind.Options())
	count := subcmd.Int("count", 20, "number of results to return")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	query := subcmd.Arg()
	results, err := app.scraper.Search(ctx, query, *count, kind.Value())
	if err != nil {
		return fmt.Errorf("error in search for '%s': %w", query, err)
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "no results for '%s'\n", query)
		return nil
	}
	return printJSON(out, results)
}
