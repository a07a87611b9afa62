package main

import (
	"context"
	"fmt"
	"io"

	"github.com/amonks/soundscout/ai"
	"github.com/amonks/soundscout/config"
	"github.com/amonks/soundscout/db"
	"github.com/amonks/soundscout/discovery"
	"github.com/amonks/soundscout/limiter"
	"github.com/amonks/soundscout/readthrough"
	"github.com/amonks/soundscout/request"
	"github.com/amonks/soundscout/server"
	"github.com/amonks/soundscout/soundcloud"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
)

// app holds the services shared by every subcommand.
type app struct {
	client    *request.Client
	scraper   *soundcloud.Scraper
	openai    *ai.OpenAI
	breaker   *ai.Breaker
	discovery *discovery.Service
}

func newApp(cfg *config.Config, discoveryOpts ...discovery.Option) (*app, error) {
	opts := []request.Option{
		request.WithUserAgent(cfg.Scraper.UserAgent),
		request.WithTimeout(cfg.Scraper.TimeoutDuration()),
		request.WithLimiter(limiter.New(cfg.Scraper.DelayDuration(), cfg.Scraper.MaxConcurrent)),
	}
	if cfg.Scraper.CacheDir != "" {
		cache, err := readthrough.New(cfg.Scraper.CacheDir, "soundcloud", cfg.Scraper.CacheTTLDuration())
		if err != nil {
			return nil, err
		}
		opts = append(opts, request.WithCache(cache))
	}
	client := request.New(opts...)
	scraper := soundcloud.New(client, cfg.Scraper.BaseURL)

	openai := ai.NewOpenAI(cfg.AI.APIKey,
		ai.WithBaseURL(cfg.AI.BaseURL),
		ai.WithModel(cfg.AI.Model),
		ai.WithTimeout(cfg.AI.TimeoutDuration()),
	)
	breaker := ai.NewBreaker(openai, "openai")

	return &app{
		client:    client,
		scraper:   scraper,
		openai:    openai,
		breaker:   breaker,
		discovery: discovery.New(scraper, breaker, append([]discovery.Option{discovery.WithBaseURL(cfg.Scraper.BaseURL)}, discoveryOpts...)...),
	}, nil
}

func (a *app) Close() {
	a.client.Close()
}

// aiCheck reports the AI provider as disabled without a key, and
// unhealthy while its breaker is open.
func (a *app) aiCheck(context.Context) error {
	if !a.openai.Enabled() {
		return server.ErrNotConfigured
	}
	if state := a.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s", state)
	}
	return nil
}

func openDB(cfg *config.Config) (*db.DB, error) {
	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening database '%s': %w", cfg.Database.Path, err)
	}
	return store, nil
}

func printJSON(out io.Writer, v any) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", bs)
	return err
}

