package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/metrics"
	"golang.org/x/sync/errgroup"
)

// GenreQuery selects artists by genre. Nil follower bounds are unbounded;
// both bounds are inclusive.
type GenreQuery struct {
	Genre        string
	Limit        int
	MinFollowers *int64
	MaxFollowers *int64
	Country      string
}

func (q GenreQuery) validate() error {
	if err := required("genre", q.Genre); err != nil {
		return err
	}
	if err := validateLimit(q.Limit); err != nil {
		return err
	}
	if q.MinFollowers != nil && *q.MinFollowers < 0 {
		return &data.InvalidArgumentError{Field: "min_followers", Value: *q.MinFollowers, Reason: "must not be negative"}
	}
	if q.MinFollowers != nil && q.MaxFollowers != nil && *q.MinFollowers > *q.MaxFollowers {
		return &data.InvalidArgumentError{Field: "max_followers", Value: *q.MaxFollowers, Reason: "must not be less than min_followers"}
	}
	return nil
}

// accepts reports whether p satisfies the follower bounds. A profile
// without a known follower count fails any bound.
func (q GenreQuery) accepts(p data.ArtistProfile) bool {
	if q.MinFollowers == nil && q.MaxFollowers == nil {
		return true
	}
	if p.FollowersCount == nil {
		return false
	}
	followers := *p.FollowersCount
	if q.MinFollowers != nil && followers < *q.MinFollowers {
		return false
	}
	if q.MaxFollowers != nil && followers > *q.MaxFollowers {
		return false
	}
	return true
}

// budget is how many candidates may be drawn while looking for Limit
// artists that pass the follower filter.
func (q GenreQuery) budget() int {
	return min(max(q.Limit*5, 25), 250)
}

// DiscoverByGenre lists up to q.Limit artists in q.Genre. Candidates are
// filtered by follower count before the list is truncated, so a filtered
// candidate never takes a slot. The result may be empty when nothing passes
// the filter.
func (s *Service) DiscoverByGenre(ctx context.Context, q GenreQuery) ([]data.ArtistProfile, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	q.Genre = strings.TrimSpace(q.Genre)
	log := logging.Ctx(ctx)
	log.Info().Str("genre", q.Genre).Int("limit", q.Limit).Str("country", q.Country).Msg("discovering artists by genre")

	names, err := s.aiGenreNames(ctx, q)
	if err != nil {
		log.Warn().Err(err).Str("genre", q.Genre).Msg("ai genre discovery failed; using generated candidates")
		metrics.DiscoveryFallbacks.WithLabelValues("by_genre").Inc()
		return s.generatedByGenre(q), nil
	}

	profiles := s.resolve(ctx, names, q.Genre)
	out := []data.ArtistProfile{}
	for _, p := range profiles {
		if !q.accepts(p) {
			continue
		}
		out = append(out, p)
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *Service) aiGenreNames(ctx context.Context, q GenreQuery) ([]string, error) {
	want := min(q.budget(), q.Limit*2)
	prompt := fmt.Sprintf("List %d independent artists who make %s music", want, q.Genre)
	if q.Country != "" {
		prompt += fmt.Sprintf(" and are based in %s", q.Country)
	}
	prompt += `. Reply as {"artists":[{"name":"..."}]}.`

	var reply candidateReply
	if err := s.complete(ctx, similarSystem, prompt, &reply); err != nil {
		return nil, err
	}
	candidates := reply.candidates(want)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for genre '%s'", ErrNoCandidates, q.Genre)
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	return names, nil
}

// generatedByGenre draws placeholder candidates until q.Limit pass the
// filter or the budget runs out.
func (s *Service) generatedByGenre(q GenreQuery) []data.ArtistProfile {
	out := []data.ArtistProfile{}
	for i := 1; i <= q.budget() && len(out) < q.Limit; i++ {
		name := fmt.Sprintf("%s Artist %d", q.Genre, i)
		if q.Country != "" {
			name += fmt.Sprintf(" (%s)", q.Country)
		}
		p := s.synthesize(name, q.Genre)
		if q.Country != "" {
			p.Location = data.String(q.Country)
		}
		if q.accepts(p) {
			out = append(out, p)
		}
	}
	return out
}

// resolve looks each name up on the platform, synthesizing a profile for
// any name that can't be found. The result is in the order of names.
func (s *Service) resolve(ctx context.Context, names []string, genre string) []data.ArtistProfile {
	profiles := make([]data.ArtistProfile, len(names))
	log := logging.Ctx(ctx)

	var g errgroup.Group
	g.SetLimit(s.enrichLimit)
	for i, name := range names {
		g.Go(func() error {
			if username := Slug(name); s.profiles != nil && username != "" {
				p, err := s.lookup(ctx, username, false, 0)
				if err == nil {
					if p.DisplayName == "" {
						p.DisplayName = name
					}
					profiles[i] = *p
					return nil
				}
				metrics.EnrichmentFailures.Inc()
				log.Warn().Err(err).Str("candidate", name).Msg("could not resolve candidate; synthesizing")
			}
			profiles[i] = s.synthesize(name, genre)
			return nil
		})
	}
	g.Wait()
	return profiles
}

// TrendingArtists lists limit placeholder artists for genre, ranked by
// followers and tagged with timeframe. genre defaults to Electronic.
func (s *Service) TrendingArtists(ctx context.Context, genre string, limit int, timeframe string) ([]data.TrendingArtist, error) {
	if err := data.OneOf("timeframe", timeframe, TimeframeWeek, TimeframeMonth, TimeframeYear); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	genre = strings.TrimSpace(genre)
	if genre == "" {
		genre = "Electronic"
	}
	logging.Ctx(ctx).Info().Str("genre", genre).Str("timeframe", timeframe).Int("limit", limit).Msg("listing trending artists")

	out := make([]data.TrendingArtist, limit)
	for i := range limit {
		name := fmt.Sprintf("Trending %s Artist %d", genre, i+1)
		out[i] = data.TrendingArtist{ArtistProfile: s.synthesize(name, genre), Timeframe: timeframe}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Followers() > out[j].Followers()
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}
