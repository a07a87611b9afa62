package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/metrics"
)

// GetRecommendations lists up to limit artists for someone who likes every
// artist in liked. With includeSimilar, slots the provider or fallback
// leaves open are filled with artists similar to each liked artist in turn.
// Liked artists are never recommended back.
func (s *Service) GetRecommendations(ctx context.Context, liked []string, limit int, includeSimilar bool) ([]data.SimilarArtist, error) {
	liked = cleanNames(liked)
	if len(liked) == 0 {
		return nil, &data.InvalidArgumentError{Field: "liked_artists", Reason: "must name at least one artist"}
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	log := logging.Ctx(ctx)
	log.Info().Strs("liked", liked).Int("limit", limit).Bool("include_similar", includeSimilar).Msg("getting recommendations")

	basedOn := "Based on your interest in " + strings.Join(liked[:min(2, len(liked))], ", ")

	recs, err := s.aiRecommendations(ctx, liked, limit, basedOn)
	if err != nil {
		log.Warn().Err(err).Msg("ai recommendations failed; using fallback")
		metrics.DiscoveryFallbacks.WithLabelValues("recommendations").Inc()
		recs = fallbackRecommendations(liked, limit, basedOn)
	} else {
		s.enrich(ctx, recs, "")
	}

	if includeSimilar && len(recs) < limit {
		recs = s.fillSimilar(ctx, recs, liked, limit, basedOn)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w for %v", ErrNoCandidates, liked)
	}
	return recs, nil
}

func (s *Service) aiRecommendations(ctx context.Context, liked []string, limit int, basedOn string) ([]data.SimilarArtist, error) {
	quoted := make([]string, len(liked))
	for i, name := range liked {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	prompt := fmt.Sprintf("A listener likes %s. Recommend %d other artists they would enjoy. ", strings.Join(quoted, ", "), limit) +
		`Do not include the artists they already like. ` +
		`Reply as {"artists":[{"name":"...","similarity_score":0.0,"reason":"..."}]}, best match first.`

	var reply candidateReply
	if err := s.complete(ctx, similarSystem, prompt, &reply); err != nil {
		return nil, err
	}
	recs := reply.candidates(limit, liked...)
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w for %v", ErrNoCandidates, liked)
	}
	for i := range recs {
		if recs[i].Reason == "" {
			recs[i].Reason = basedOn
		} else {
			recs[i].Reason = basedOn + ": " + recs[i].Reason
		}
	}
	return recs, nil
}

func fallbackRecommendations(liked []string, limit int, basedOn string) []data.SimilarArtist {
	n := min(limit, maxFallback)
	out := make([]data.SimilarArtist, n)
	for i := range n {
		out[i] = data.SimilarArtist{
			Name:            fmt.Sprintf("Recommended for fans of %s #%d", liked[i%len(liked)], i+1),
			SimilarityScore: fallbackScore(i + 1),
			Reason:          basedOn,
		}
	}
	return out
}

func (s *Service) fillSimilar(ctx context.Context, recs []data.SimilarArtist, liked []string, limit int, basedOn string) []data.SimilarArtist {
	seen := map[string]bool{}
	for _, name := range liked {
		seen[strings.ToLower(name)] = true
	}
	for _, r := range recs {
		seen[strings.ToLower(r.Name)] = true
	}

	for _, name := range liked {
		remaining := limit - len(recs)
		if remaining <= 0 {
			break
		}
		similar, err := s.FindSimilarArtists(ctx, name, "", remaining, PlatformSoundCloud)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("artist", name).Msg("could not fill recommendations with similar artists")
			continue
		}
		for _, sim := range similar {
			key := strings.ToLower(sim.Name)
			if seen[key] || len(recs) == limit {
				continue
			}
			seen[key] = true
			sim.Reason = fmt.Sprintf("%s; similar to %s", basedOn, name)
			recs = append(recs, sim)
		}
	}
	return recs
}

// cleanNames trims names and drops blanks and case-insensitive duplicates.
func cleanNames(names []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	return out
}
