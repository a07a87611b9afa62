package discovery

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	maxFallback    = 5
	fallbackReason = "Genre and style similarity"
)

// fallbackScore is the similarity score of the rank'th (1-based) fallback
// entry: 0.9 for the first, 0.1 less for each after, never under 0.4.
func fallbackScore(rank int) float64 {
	score := math.Max(0.4, 0.9-0.1*float64(rank-1))
	return math.Round(score*100) / 100
}

const similarSystem = `You are a music discovery assistant with encyclopedic knowledge of independent artists. ` +
	`Answer only with a JSON object.`

type candidateReply struct {
	Artists []struct {
		Name            string  `json:"name"`
		SimilarityScore float64 `json:"similarity_score"`
		Reason          string  `json:"reason"`
	} `json:"artists"`
}

// candidates converts a provider reply, dropping blank names, duplicates,
// and anything in exclude.
func (r candidateReply) candidates(limit int, exclude ...string) []data.SimilarArtist {
	seen := map[string]bool{}
	for _, name := range exclude {
		seen[strings.ToLower(strings.TrimSpace(name))] = true
	}
	out := []data.SimilarArtist{}
	for _, a := range r.Artists {
		name := strings.TrimSpace(a.Name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, data.SimilarArtist{
			Name:            name,
			SimilarityScore: math.Min(1, math.Max(0, a.SimilarityScore)),
			Reason:          strings.TrimSpace(a.Reason),
		})
		if len(out) == limit {
			break
		}
	}
	return out
}

// FindSimilarArtists lists up to limit artists similar to name. genre may
// be empty. On soundcloud, each candidate is looked up on the platform; a
// candidate that can't be found is kept without platform fields.
func (s *Service) FindSimilarArtists(ctx context.Context, name, genre string, limit int, platform string) ([]data.SimilarArtist, error) {
	if err := required("artist_name", name); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	if err := validatePlatform(platform); err != nil {
		return nil, err
	}
	log := logging.Ctx(ctx)
	log.Info().Str("artist", name).Str("genre", genre).Int("limit", limit).Msg("finding similar artists")

	similar, err := s.aiSimilar(ctx, name, genre, limit)
	if err != nil {
		log.Warn().Err(err).Str("artist", name).Msg("ai similarity failed; using fallback")
		metrics.DiscoveryFallbacks.WithLabelValues("similar").Inc()
		return fallbackSimilar(name, limit), nil
	}
	if platform == PlatformSoundCloud {
		s.enrich(ctx, similar, genre)
	}
	return similar, nil
}

func (s *Service) aiSimilar(ctx context.Context, name, genre string, limit int) ([]data.SimilarArtist, error) {
	prompt := fmt.Sprintf("List %d artists whose music is similar to %q", limit, name)
	if genre != "" {
		prompt += fmt.Sprintf(", who work in or near the %s genre", genre)
	}
	prompt += `. Reply as {"artists":[{"name":"...","similarity_score":0.0,"reason":"..."}]}, ` +
		`with similarity_score between 0 and 1 and most similar first.`

	var reply candidateReply
	if err := s.complete(ctx, similarSystem, prompt, &reply); err != nil {
		return nil, err
	}
	similar := reply.candidates(limit, name)
	if len(similar) == 0 {
		return nil, fmt.Errorf("%w for '%s'", ErrNoCandidates, name)
	}
	for i := range similar {
		if similar[i].Reason == "" {
			similar[i].Reason = fallbackReason
		}
	}
	return similar, nil
}

func fallbackSimilar(name string, limit int) []data.SimilarArtist {
	n := min(limit, maxFallback)
	out := make([]data.SimilarArtist, n)
	for i := range n {
		out[i] = data.SimilarArtist{
			Name:            fmt.Sprintf("Similar to %s #%d", name, i+1),
			SimilarityScore: fallbackScore(i + 1),
			Reason:          fallbackReason,
		}
	}
	return out
}

// enrich fills in platform fields for every candidate it can find, in
// place. Profiles carry no genre without their tracks, so a found
// candidate is tagged with genre unless it already has one.
func (s *Service) enrich(ctx context.Context, candidates []data.SimilarArtist, genre string) {
	if s.profiles == nil {
		return
	}
	log := logging.Ctx(ctx)

	var g errgroup.Group
	g.SetLimit(s.enrichLimit)
	for i := range candidates {
		g.Go(func() error {
			c := &candidates[i]
			username := Slug(c.Name)
			if username == "" {
				return nil
			}
			profile, err := s.lookup(ctx, username, false, 0)
			if err != nil {
				metrics.EnrichmentFailures.Inc()
				log.Warn().Err(err).Str("candidate", c.Name).Str("username", username).Msg("could not enrich candidate")
				return nil
			}
			c.SoundCloudURL = data.String(profile.URL)
			c.FollowerCount = profile.FollowersCount
			switch {
			case len(profile.Genres) > 0:
				c.Genre = data.String(profile.Genres[0])
			case c.Genre == nil && genre != "":
				c.Genre = data.String(genre)
			}
			c.Verified = profile.Verified
			return nil
		})
	}
	g.Wait()
}
