// Package discovery finds artists: similar artists, artists by genre,
// trending artists, recommendations, and per-artist analyses.
//
// Every operation asks the AI provider first. When the provider is missing,
// failing, or answers with something unusable, the operation falls back to
// a deterministic generator instead of failing; see synth.go.
package discovery

import (
	"context"
	"errors"
	"strings"

	"github.com/amonks/soundscout/ai"
	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/soundcloud"
)

// Platforms a discovery query can target. Only soundcloud candidates are
// enriched with scraped profiles.
const (
	PlatformSoundCloud = "soundcloud"
	PlatformSpotify    = "spotify"
)

// Trending timeframes.
const (
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeYear  = "year"
)

// ErrNoCandidates is returned when an operation could not produce a single
// result, from the provider or from the fallback.
var ErrNoCandidates = errors.New("no candidates")

// ProfileLookup resolves usernames to profiles. *soundcloud.Scraper is the
// production ProfileLookup.
type ProfileLookup interface {
	ScrapeArtist(ctx context.Context, username string, includeTracks bool, maxTracks int) (*data.ArtistProfile, error)
}

// ProfileCache holds previously scraped profiles. *db.DB is the
// production ProfileCache.
type ProfileCache interface {
	GetArtist(ctx context.Context, username string) (*data.ArtistProfile, error)
}

type Option func(*Service)

// WithProfileCache serves cached profiles when a live lookup fails.
func WithProfileCache(c ProfileCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithBaseURL sets the site used to build urls for synthesized profiles.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithEnrichConcurrency bounds how many candidates are looked up at once.
func WithEnrichConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.enrichLimit = n
		}
	}
}

// New creates a Service. profiles may be nil, in which case nothing is
// enriched; provider may be nil, in which case every operation uses its
// fallback.
func New(profiles ProfileLookup, provider ai.Provider, opts ...Option) *Service {
	s := &Service{
		profiles:    profiles,
		provider:    provider,
		baseURL:     soundcloud.DefaultBaseURL,
		enrichLimit: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Service is safe for concurrent use.
type Service struct {
	profiles    ProfileLookup
	cache       ProfileCache
	provider    ai.Provider
	baseURL     string
	enrichLimit int
}

// lookup scrapes username, falling back to its cached profile when the
// scrape fails. The scrape's error is returned when nothing is cached.
func (s *Service) lookup(ctx context.Context, username string, includeTracks bool, maxTracks int) (*data.ArtistProfile, error) {
	profile, err := s.profiles.ScrapeArtist(ctx, username, includeTracks, maxTracks)
	if err == nil || s.cache == nil {
		return profile, err
	}
	cached, cacheErr := s.cache.GetArtist(ctx, username)
	if cacheErr != nil {
		return nil, err
	}
	logging.Ctx(ctx).Warn().Err(err).Str("username", username).Msg("scrape failed; using cached profile")
	return cached, nil
}

// complete asks the provider and decodes its JSON reply into v.
func (s *Service) complete(ctx context.Context, system, prompt string, v any) error {
	if s.provider == nil {
		return ai.ErrDisabled
	}
	reply, err := s.provider.Complete(ctx, system, prompt)
	if err != nil {
		return err
	}
	return ai.DecodeJSON(reply, v)
}

func validatePlatform(platform string) error {
	return data.OneOf("platform", platform, PlatformSoundCloud, PlatformSpotify)
}

func validateLimit(limit int) error {
	if limit < 1 {
		return &data.InvalidArgumentError{Field: "limit", Value: limit, Reason: "must be at least 1"}
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &data.InvalidArgumentError{Field: field, Reason: "must not be empty"}
	}
	return nil
}
