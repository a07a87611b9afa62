package soundcloud

import (
	"context"
	"net/url"
	"strings"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/extract"
)

// Search types.
const (
	SearchArtists   = "artists"
	SearchTracks    = "tracks"
	SearchPlaylists = "playlists"
)

var searchPaths = map[string]struct{ path, resultType string }{
	SearchArtists:   {"people", extract.ResultArtist},
	SearchTracks:    {"sounds", extract.ResultTrack},
	SearchPlaylists: {"sets", extract.ResultPlaylist},
}

// Search returns at most limit results for query. A limit of zero returns
// no results without fetching anything.
func (s *Scraper) Search(ctx context.Context, query string, limit int, searchType string) ([]data.SearchResult, error) {
	if err := data.OneOf("search_type", searchType, SearchArtists, SearchTracks, SearchPlaylists); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, &data.InvalidArgumentError{Field: "limit", Value: limit, Reason: "must not be negative"}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &data.InvalidArgumentError{Field: "query", Reason: "must not be empty"}
	}
	if limit == 0 {
		return []data.SearchResult{}, nil
	}

	kind := searchPaths[searchType]
	searchURL := s.baseURL + "/search/" + kind.path + "?q=" + url.QueryEscape(query)
	bs, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, &ScrapeError{Op: "search", Target: query, Err: err}
	}

	results, err := extract.SearchResults(bs, searchURL, kind.resultType)
	if err != nil {
		return nil, &ScrapeError{Op: "search", Target: query, Err: err}
	}
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []data.SearchResult{}
	}
	return results, nil
}
