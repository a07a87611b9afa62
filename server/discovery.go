package server

import (
	"net/http"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/discovery"
	"github.com/amonks/soundscout/genres"
)

type similarRequest struct {
	ArtistName string `json:"artist_name" validate:"required,max=200"`
	Genre      string `json:"genre" validate:"max=100"`
	Limit      int    `json:"limit" validate:"min=1,max=50"`
	Platform   string `json:"platform"`
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	req := similarRequest{Limit: 10, Platform: discovery.PlatformSoundCloud}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	similar, err := s.deps.Discovery.FindSimilarArtists(r.Context(), req.ArtistName, req.Genre, req.Limit, req.Platform)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, nonNil(similar))
}

type byGenreRequest struct {
	Genre        string `json:"genre" validate:"required,max=100"`
	Limit        int    `json:"limit" validate:"min=1,max=100"`
	MinFollowers *int64 `json:"min_followers" validate:"omitnil,gte=0"`
	MaxFollowers *int64 `json:"max_followers" validate:"omitnil,gte=0"`
	Country      string `json:"country" validate:"max=100"`
}

func (s *Server) handleByGenre(w http.ResponseWriter, r *http.Request) {
	req := byGenreRequest{Limit: 20}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	artists, err := s.deps.Discovery.DiscoverByGenre(r.Context(), discovery.GenreQuery{
		Genre:        req.Genre,
		Limit:        req.Limit,
		MinFollowers: req.MinFollowers,
		MaxFollowers: req.MaxFollowers,
		Country:      req.Country,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, nonNil(artists))
}

type analyzeRequest struct {
	ArtistName    string `json:"artist_name" validate:"required,max=200"`
	SoundCloudURL string `json:"soundcloud_url" validate:"omitempty,url"`
}

// handleAnalyze always answers 200 once the request is valid; analysis
// failures are reported in the body's error field.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, s.deps.Discovery.AnalyzeArtist(r.Context(), req.ArtistName, req.SoundCloudURL))
}

type recommendationsRequest struct {
	LikedArtists   []string `json:"liked_artists" validate:"min=1,max=20,dive,required"`
	Limit          int      `json:"limit" validate:"min=1,max=50"`
	IncludeSimilar bool     `json:"include_similar"`
}

type recommendationsResponse struct {
	Recommendations []data.SimilarArtist `json:"recommendations"`
	BasedOn         []string             `json:"based_on"`
	Count           int                  `json:"count"`
}

// handleRecommendations accepts either an object body or a bare array of
// liked artists with limit and include_similar as query parameters.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	req := recommendationsRequest{Limit: 15, IncludeSimilar: true}
	if err := decodeListOrObject(r, &req.LikedArtists, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := queryInt(r, "limit", &req.Limit); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := queryBool(r, "include_similar", &req.IncludeSimilar); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := getValidator().Struct(&req); err != nil {
		s.fail(w, r, err)
		return
	}

	recs, err := s.deps.Discovery.GetRecommendations(r.Context(), req.LikedArtists, req.Limit, req.IncludeSimilar)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	recs = nonNil(recs)
	s.respond(w, r, http.StatusOK, recommendationsResponse{
		Recommendations: recs,
		BasedOn:         req.LikedArtists,
		Count:           len(recs),
	})
}

type trendingRequest struct {
	Genre     string `json:"genre" validate:"max=100"`
	Limit     int    `json:"limit" validate:"min=1,max=100"`
	Timeframe string `json:"timeframe"`
}

type trendingResponse struct {
	TrendingArtists []data.TrendingArtist `json:"trending_artists"`
	Timeframe       string                `json:"timeframe"`
}

// handleTrending reads its parameters from the query string, a JSON body,
// or both; query parameters win.
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	req := trendingRequest{Limit: 20, Timeframe: discovery.TimeframeWeek}
	body, err := readBody(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(body) > 0 {
		if err := unmarshal(body, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	queryString(r, "genre", &req.Genre)
	queryString(r, "timeframe", &req.Timeframe)
	if err := queryInt(r, "limit", &req.Limit); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := getValidator().Struct(&req); err != nil {
		s.fail(w, r, err)
		return
	}

	trending, err := s.deps.Discovery.TrendingArtists(r.Context(), req.Genre, req.Limit, req.Timeframe)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, trendingResponse{TrendingArtists: nonNil(trending), Timeframe: req.Timeframe})
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, map[string][]string{"genres": genres.All()})
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
