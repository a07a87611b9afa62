// Package server is soundscout's HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/discovery"
	"github.com/amonks/soundscout/logging"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ServiceName = "scraper"
	Version     = "1.0.0"
)

type Scraper interface {
	ScrapeArtist(ctx context.Context, username string, includeTracks bool, maxTracks int) (*data.ArtistProfile, error)
	ScrapeTrack(ctx context.Context, trackURL string) (*data.TrackInfo, error)
	Search(ctx context.Context, query string, limit int, searchType string) ([]data.SearchResult, error)
}

type Discovery interface {
	FindSimilarArtists(ctx context.Context, name, genre string, limit int, platform string) ([]data.SimilarArtist, error)
	DiscoverByGenre(ctx context.Context, q discovery.GenreQuery) ([]data.ArtistProfile, error)
	TrendingArtists(ctx context.Context, genre string, limit int, timeframe string) ([]data.TrendingArtist, error)
	AnalyzeArtist(ctx context.Context, name, profileURL string) data.ArtistAnalysis
	GetRecommendations(ctx context.Context, liked []string, limit int, includeSimilar bool) ([]data.SimilarArtist, error)
}

type Tasks interface {
	Enqueue(ctx context.Context, usernames []string, includeTracks bool, maxTracks int) (*data.DiscoveryTask, error)
}

type TaskStore interface {
	GetTask(ctx context.Context, taskID string) (*data.DiscoveryTask, error)
}

// Check reports whether a dependency is healthy. A Check that returns
// ErrNotConfigured marks its dependency disabled without degrading the
// service.
type Check func(ctx context.Context) error

var ErrNotConfigured = errors.New("not configured")

// Deps are the services the API exposes.
type Deps struct {
	Scraper   Scraper
	Discovery Discovery
	Tasks     Tasks
	TaskStore TaskStore
	Checks    map[string]Check
}

type Config struct {
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

type Server struct {
	deps Deps
	now  func() time.Time
}

// New builds the API's router.
func New(deps Deps, cfg Config) http.Handler {
	s := &Server{deps: deps, now: time.Now}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(s.recoverer)
	r.Use(corsHandler(cfg.CORSOrigins))

	r.Get("/health", s.handleHealth)
	r.Get("/health/detailed", s.handleHealthDetailed)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Use(instrument)

		r.Route("/soundcloud", func(r chi.Router) {
			r.Post("/artist", s.handleScrapeArtist)
			r.Post("/track", s.handleScrapeTrack)
			r.Post("/search", s.handleSearch)
			r.Post("/batch-scrape", s.handleBatchScrape)
			r.Get("/task/{taskID}", s.handleGetTask)
		})

		r.Route("/discovery", func(r chi.Router) {
			r.Post("/similar", s.handleSimilar)
			r.Post("/by-genre", s.handleByGenre)
			r.Post("/analyze", s.handleAnalyze)
			r.Post("/recommendations", s.handleRecommendations)
			r.Post("/trending", s.handleTrending)
			r.Get("/genres", s.handleGenres)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, http.StatusNotFound, codeNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	return r
}

// Run serves handler on addr until ctx is done, then shuts down
// gracefully.
func Run(ctx context.Context, handler http.Handler, addr string) error {
	srv := http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()
	logging.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
