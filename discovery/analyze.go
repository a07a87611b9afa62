package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/extract"
	"github.com/amonks/soundscout/genres"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/metrics"
)

const analyzeSystem = `You are a music industry analyst. Answer only with a JSON object.`

type analysisReply struct {
	Genres          []string           `json:"genres"`
	Mood            map[string]float64 `json:"mood"`
	Recommendations []string           `json:"recommendations"`
	MarketInsights  map[string]string  `json:"market_insights"`
}

// AnalyzeArtist reports on one artist. With a profile url, the artist is
// scraped; otherwise a placeholder profile is synthesized from name.
//
// AnalyzeArtist never returns an error: any failure is reported in the
// result's Error field, and nothing else is set.
func (s *Service) AnalyzeArtist(ctx context.Context, name, profileURL string) data.ArtistAnalysis {
	analysis, err := s.analyze(ctx, strings.TrimSpace(name), strings.TrimSpace(profileURL))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("artist", name).Str("url", profileURL).Msg("artist analysis failed")
		return data.ArtistAnalysis{Error: err.Error()}
	}
	return *analysis
}

func (s *Service) analyze(ctx context.Context, name, profileURL string) (*data.ArtistAnalysis, error) {
	profile, err := s.analysisProfile(ctx, name, profileURL)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = profile.DisplayName
	}

	analysis := &data.ArtistAnalysis{
		Artist:            profile,
		PopularityMetrics: popularity(profile),
		GrowthTrends:      growth(profile, name),
	}

	reply, err := s.aiAnalysis(ctx, profile)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("artist", name).Msg("ai analysis failed; using heuristics")
		metrics.DiscoveryFallbacks.WithLabelValues("analyze").Inc()
		reply = heuristicAnalysis(profile, name)
	}
	analysis.GenreClassification = reply.Genres
	analysis.MoodAnalysis = data.Vector(reply.Mood).Clamp(0, 1)
	analysis.Recommendations = reply.Recommendations
	analysis.MarketInsights = reply.MarketInsights

	firstGenre := ""
	if len(analysis.GenreClassification) > 0 {
		firstGenre = analysis.GenreClassification[0]
	}
	similar, err := s.FindSimilarArtists(ctx, name, firstGenre, 5, PlatformSoundCloud)
	if err != nil {
		return nil, fmt.Errorf("error finding similar artists: %w", err)
	}
	analysis.SimilarArtists = similar
	return analysis, nil
}

func (s *Service) analysisProfile(ctx context.Context, name, profileURL string) (*data.ArtistProfile, error) {
	if profileURL == "" {
		if name == "" {
			return nil, &data.InvalidArgumentError{Field: "artist_name", Reason: "an artist name or profile url is required"}
		}
		p := s.synthesize(name, "Electronic")
		return &p, nil
	}

	username := extract.LastPathSegment(profileURL)
	if username == "" {
		return nil, &data.InvalidArgumentError{Field: "soundcloud_url", Value: profileURL, Reason: "has no username"}
	}
	if s.profiles == nil {
		return nil, errors.New("profile lookup is not configured")
	}
	return s.lookup(ctx, username, true, 50)
}

func (s *Service) aiAnalysis(ctx context.Context, p *data.ArtistProfile) (analysisReply, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the artist %q.\n", p.DisplayName)
	fmt.Fprintf(&b, "Followers: %d. Tracks: %d. Total plays: %d.\n", p.Followers(), len(p.Tracks), p.TotalPlays)
	if len(p.Genres) > 0 {
		fmt.Fprintf(&b, "Tagged genres: %s.\n", strings.Join(p.Genres, ", "))
	}
	if p.Description != nil {
		fmt.Fprintf(&b, "Bio: %s\n", *p.Description)
	}
	b.WriteString(`Reply as {"genres":["..."],"mood":{"energetic":0.0,"melodic":0.0,"dark":0.0,"uplifting":0.0,"chill":0.0},` +
		`"recommendations":["..."],"market_insights":{"target_audience":"...","potential_reach":"..."}} ` +
		`with mood weights between 0 and 1.`)

	var reply analysisReply
	if err := s.complete(ctx, analyzeSystem, b.String(), &reply); err != nil {
		return analysisReply{}, err
	}
	if len(reply.Genres) == 0 {
		return analysisReply{}, fmt.Errorf("%w for '%s'", ErrNoCandidates, p.DisplayName)
	}
	if reply.Mood == nil {
		reply.Mood = synthMood(p.DisplayName)
	}
	return reply, nil
}

// heuristicAnalysis classifies the artist from their own profile data.
func heuristicAnalysis(p *data.ArtistProfile, name string) analysisReply {
	var texts []string
	texts = append(texts, p.Genres...)
	for _, t := range p.Tracks {
		if t.Genre != nil {
			texts = append(texts, *t.Genre)
		}
		texts = append(texts, t.Tags...)
	}
	if p.Description != nil {
		texts = append(texts, *p.Description)
	}

	classified := genres.Classify(texts...)
	mood := heuristicMood(name, classified)
	if len(classified) == 0 {
		classified = []string{"Electronic"}
	}

	return analysisReply{
		Genres:          classified,
		Mood:            mood,
		Recommendations: heuristicRecommendations(p, classified[0]),
		MarketInsights:  heuristicMarket(p, classified[0], mood),
	}
}

// genreMoods are the typical moods of catalogue genres. Moods a genre
// doesn't name weigh 0.
var genreMoods = map[string]data.Vector{
	"Electronic": {"energetic": 0.6, "melodic": 0.5},
	"Hip Hop":    {"energetic": 0.7, "dark": 0.4},
	"Pop":        {"uplifting": 0.8, "melodic": 0.7},
	"Rock":       {"energetic": 0.9},
	"R&B":        {"melodic": 0.8, "chill": 0.5},
	"Jazz":       {"melodic": 0.8, "chill": 0.6},
	"Classical":  {"melodic": 0.9, "chill": 0.5},
	"Folk":       {"melodic": 0.7, "chill": 0.6},
	"Reggae":     {"uplifting": 0.7, "chill": 0.7},
	"House":      {"energetic": 0.8, "uplifting": 0.7},
	"Techno":     {"energetic": 0.9, "dark": 0.7},
	"Dubstep":    {"energetic": 1, "dark": 0.8},
	"Trap":       {"energetic": 0.7, "dark": 0.7},
	"Lo-fi":      {"chill": 0.9, "melodic": 0.6},
	"Ambient":    {"chill": 1, "melodic": 0.5},
}

// heuristicMood averages the moods of the classified genres and blends
// them half and half with the placeholder mood for name. Without any
// known genre, the placeholder is returned as is.
func heuristicMood(name string, classified []string) data.Vector {
	signal := make(data.Vector, len(moods))
	for _, m := range moods {
		signal[m] = 0
	}
	n := 0
	for _, g := range classified {
		if gm, ok := genreMoods[g]; ok {
			signal = signal.Add(gm)
			n++
		}
	}
	mood := synthMood(name)
	if n == 0 {
		return mood
	}
	return mood.Multiply(0.5).Add(signal.Multiply(0.5 / float64(n)))
}

func heuristicRecommendations(p *data.ArtistProfile, genre string) []string {
	var recs []string
	if data.Count(p.TrackCount) < 10 && len(p.Tracks) < 10 {
		recs = append(recs, "Release more tracks to build out a catalogue")
	}
	if p.Description == nil {
		recs = append(recs, "Add a profile description so listeners know what to expect")
	}
	if followers := p.Followers(); followers > 0 && p.TotalPlays > 0 && p.TotalPlays/followers < 5 {
		recs = append(recs, "Promote new releases to existing followers")
	}
	recs = append(recs, fmt.Sprintf("Collaborate with other %s artists", genre))
	return recs
}

func heuristicMarket(p *data.ArtistProfile, genre string, mood data.Vector) map[string]string {
	reach := "small"
	switch followers := p.Followers(); {
	case followers >= 100_000:
		reach = "large"
	case followers >= 10_000:
		reach = "medium"
	}
	insights := map[string]string{
		"target_audience": fmt.Sprintf("%s music fans", strings.ToLower(genre)),
		"potential_reach": reach,
		"dominant_moods":  strings.Join(mood.Top(2), ", "),
	}
	if p.Location != nil {
		insights["home_market"] = *p.Location
	}
	return insights
}

// popularity scores followers on a log scale: a million followers is 1.
func popularity(p *data.ArtistProfile) *data.PopularityMetrics {
	followers := p.Followers()
	trackCount := len(p.Tracks)
	if trackCount == 0 {
		trackCount = int(data.Count(p.TrackCount))
	}
	return &data.PopularityMetrics{
		Score:      math.Min(1, math.Log10(float64(followers)+1)/6),
		Followers:  followers,
		TotalPlays: p.TotalPlays,
		TrackCount: trackCount,
	}
}

// growth scores plays per follower, where 100 plays per follower is 1.
// Without plays to go on, the score is a placeholder.
func growth(p *data.ArtistProfile, name string) *data.GrowthTrends {
	var score float64
	if followers := p.Followers(); followers > 0 && p.TotalPlays > 0 {
		score = math.Min(1, float64(p.TotalPlays)/float64(followers)/100)
	} else {
		score = synthGrowth(name)
	}
	score = math.Round(score*100) / 100

	trend := "emerging"
	switch {
	case score >= 0.66:
		trend = "rising"
	case score >= 0.33:
		trend = "steady"
	}
	return &data.GrowthTrends{Score: score, Trend: trend}
}
