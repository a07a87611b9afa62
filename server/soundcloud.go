package server

import (
	"fmt"
	"net/http"

	"github.com/amonks/soundscout/data"
	"github.com/go-chi/chi/v5"
)

type artistRequest struct {
	Username      string `json:"username" validate:"required,max=255"`
	IncludeTracks bool   `json:"include_tracks"`
	MaxTracks     int    `json:"max_tracks" validate:"gte=0,lte=200"`
}

func (s *Server) handleScrapeArtist(w http.ResponseWriter, r *http.Request) {
	req := artistRequest{IncludeTracks: true, MaxTracks: 50}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	artist, err := s.deps.Scraper.ScrapeArtist(r.Context(), req.Username, req.IncludeTracks, req.MaxTracks)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, artist)
}

type trackRequest struct {
	TrackURL string `json:"track_url" validate:"required,url"`
}

func (s *Server) handleScrapeTrack(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	track, err := s.deps.Scraper.ScrapeTrack(r.Context(), req.TrackURL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, track)
}

type searchRequest struct {
	Query      string `json:"query" validate:"required,max=200"`
	Limit      int    `json:"limit" validate:"gte=0,lte=100"`
	SearchType string `json:"search_type"`
}

type searchResponse struct {
	Results []data.SearchResult `json:"results"`
	Query   string              `json:"query"`
	Count   int                 `json:"count"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req := searchRequest{Limit: 20, SearchType: "artists"}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	results, err := s.deps.Scraper.Search(r.Context(), req.Query, req.Limit, req.SearchType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if results == nil {
		results = []data.SearchResult{}
	}
	s.respond(w, r, http.StatusOK, searchResponse{Results: results, Query: req.Query, Count: len(results)})
}

type batchRequest struct {
	Usernames     []string `json:"usernames" validate:"min=1"`
	IncludeTracks bool     `json:"include_tracks"`
	MaxTracks     int      `json:"max_tracks" validate:"gte=0,lte=200"`
}

type batchResponse struct {
	TaskID        string   `json:"task_id"`
	Status        string   `json:"status"`
	Usernames     []string `json:"usernames"`
	EstimatedTime string   `json:"estimated_time"`
}

// handleBatchScrape accepts either {"usernames": [...], ...} or a bare
// array of usernames, with include_tracks and max_tracks optionally
// given as query parameters.
func (s *Server) handleBatchScrape(w http.ResponseWriter, r *http.Request) {
	req := batchRequest{IncludeTracks: true, MaxTracks: 20}
	if err := decodeListOrObject(r, &req.Usernames, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := queryBool(r, "include_tracks", &req.IncludeTracks); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := queryInt(r, "max_tracks", &req.MaxTracks); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := getValidator().Struct(&req); err != nil {
		s.fail(w, r, err)
		return
	}

	task, err := s.deps.Tasks.Enqueue(r.Context(), req.Usernames, req.IncludeTracks, req.MaxTracks)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusAccepted, batchResponse{
		TaskID:        task.TaskID,
		Status:        "started",
		Usernames:     req.Usernames,
		EstimatedTime: fmt.Sprintf("%d seconds", 2*len(req.Usernames)),
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.deps.TaskStore.GetTask(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, task)
}
