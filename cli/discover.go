package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/amonks/soundscout/config"
	"github.com/amonks/soundscout/discovery"
	"github.com/amonks/soundscout/genres"
	"github.com/amonks/soundscout/setflag"
	"github.com/amonks/soundscout/subcmd"
)

func similar(ctx context.Context, cfg *config.Config, out io.Writer, args []string) error {
	subcmd := subcmd.New("similar", "find artists similar to the given artist")
	subcmd.SetArg("artist", "string", "artist name (required)", true)
	platform := setflag.New(discovery.PlatformSoundCloud, discovery.PlatformSoundCloud, discovery.PlatformSpotify)
	subcmd.Var(platform, "platform", "platform to match candidates against: "+platform.Options())
	var (
		genre = subcmd.String("genre", "", "genre hint")
		limit = subcmd.Int("limit", 10, "number of artists to return")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	artists, err := app.discovery.FindSimilarArtists(ctx, subcmd.Arg(), *genre, *limit, platform.Value())
	if err != nil {
		return err
	}
	return printJSON(out, artists)
}

func trending(ctx context.Context, cfg *config.Config, out io.Writer, args []string) error {
	subcmd := subcmd.New("trending", "list trending artists")
	timeframe := setflag.New(discovery.TimeframeWeek, discovery.TimeframeWeek, discovery.TimeframeMonth, discovery.TimeframeYear)
	subcmd.Var(timeframe, "timeframe", "trending window: "+timeframe.Options())
	var (
		genre = subcmd.String("genre", "", "restrict to a genre")
		limit = subcmd.Int("limit", 20, "number of artists to return")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	artists, err := app.discovery.TrendingArtists(ctx, *genre, *limit, timeframe.Value())
	if err != nil {
		return err
	}
	return printJSON(out, artists)
}

func analyze(ctx context.Context, cfg *config.Config, out io.Writer, args []string) error {
	subcmd := subcmd.New("analyze", "analyze an artist's genre, mood, popularity and growth")
	subcmd.SetArg("artist", "string", "artist name (required)", true)
	url := subcmd.String("url", "", "soundcloud profile url; without one the profile is synthesized")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	analysis := app.discovery.AnalyzeArtist(ctx, subcmd.Arg(), *url)
	if err := printJSON(out, analysis); err != nil {
		return err
	}
	if analysis.Error != "" {
		return fmt.Errorf("analysis failed: %s", analysis.Error)
	}
	return nil
}

func listGenres(_ context.Context, _ *config.Config, out io.Writer, args []string) error {
	subcmd := subcmd.New("genres", "list the genres discovery knows about")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tgenre\n")
	for i, name := range genres.All() {
		fmt.Fprintf(tw, "%d\t%s\n", i+1, name)
	}
	return tw.Flush()
}
