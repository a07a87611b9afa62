package discovery

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/amonks/soundscout/data"
)

// The functions in this file produce placeholder data. They are used when
// neither the AI provider nor the platform can supply real artists, and
// they are deterministic: the same inputs always give the same output.

// moods are the dimensions of a mood analysis.
var moods = []string{"energetic", "melodic", "dark", "uplifting", "chill"}

// seeded returns a generator seeded from parts.
func seeded(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum^0x9e3779b97f4a7c15))
}

const (
	minSynthFollowers  = 1000
	synthFollowerRange = 50000
)

// synthesize builds a placeholder profile for name.
func (s *Service) synthesize(name, genre string) data.ArtistProfile {
	r := seeded("profile", name)

	username := Slug(name)
	if username == "" {
		username = fmt.Sprintf("artist-%d", r.IntN(1_000_000))
	}
	description := fmt.Sprintf("%s is a %s artist", name, genre)
	return data.ArtistProfile{
		ID:             "synthetic-" + username,
		Username:       username,
		DisplayName:    name,
		URL:            s.baseURL + "/" + username,
		FollowersCount: data.Int64(int64(minSynthFollowers + r.IntN(synthFollowerRange))),
		FollowingCount: data.Int64(int64(500 + r.IntN(2000))),
		TrackCount:     data.Int64(int64(10 + r.IntN(100))),
		Description:    &description,
		Genres:         []string{genre},
		Verified:       r.IntN(10) == 0,
		Tracks:         []data.TrackInfo{},
	}
}

// synthMood is a placeholder mood analysis for name, every weight in [0, 1].
func synthMood(name string) data.Vector {
	r := seeded("mood", name)
	v := make(data.Vector, len(moods))
	for _, m := range moods {
		v[m] = float64(r.IntN(101)) / 100
	}
	return v
}

// synthGrowth is a placeholder growth score in [0, 1].
func synthGrowth(name string) float64 {
	return float64(seeded("growth", name).IntN(101)) / 100
}
