package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/amonks/soundscout/config"
	"github.com/amonks/soundscout/discovery"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/server"
	"github.com/amonks/soundscout/subcmd"
	"github.com/amonks/soundscout/workers"
)

func serve(ctx context.Context, cfg *config.Config, _ io.Writer, args []string) error {
	subcmd := subcmd.New("serve", "run the http api")
	var (
		host   = subcmd.String("host", cfg.Server.Host, "listen host")
		port   = subcmd.Int("port", cfg.Server.Port, "listen port")
		report = subcmd.Duration("report", time.Minute, "how often to log task counts; 0 disables")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	store, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	app, err := newApp(cfg, discovery.WithProfileCache(store))
	if err != nil {
		return err
	}
	defer app.Close()

	runner := workers.NewRunner(app.scraper, store, workers.WithCache(store))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := runner.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("background tasks did not stop in time")
		}
	}()

	if *report > 0 {
		go workers.RunReporter(ctx, store, *report)
	}

	handler := server.New(server.Deps{
		Scraper:   app.scraper,
		Discovery: app.discovery,
		Tasks:     runner,
		TaskStore: store,
		Checks: map[string]server.Check{
			"database": store.Ping,
			"ai":       app.aiCheck,
		},
	}, server.Config{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow(),
	})

	logging.Info().
		Str("base_url", cfg.Scraper.BaseURL).
		Bool("ai", app.openai.Enabled()).
		Str("database", cfg.Database.Path).
		Msg("starting soundscout")

	return server.Run(ctx, handler, net.JoinHostPort(*host, strconv.Itoa(*port)))
}
