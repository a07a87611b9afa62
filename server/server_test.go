package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/db"
	"github.com/amonks/soundscout/discovery"
	"github.com/amonks/soundscout/request"
	"github.com/amonks/soundscout/soundcloud"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	artist func(ctx context.Context, username string, includeTracks bool, maxTracks int) (*data.ArtistProfile, error)
	track  func(ctx context.Context, trackURL string) (*data.TrackInfo, error)
	search func(ctx context.Context, query string, limit int, searchType string) ([]data.SearchResult, error)
}

func (f *fakeScraper) ScrapeArtist(ctx context.Context, username string, includeTracks bool, maxTracks int) (*data.ArtistProfile, error) {
	return f.artist(ctx, username, includeTracks, maxTracks)
}

func (f *fakeScraper) ScrapeTrack(ctx context.Context, trackURL string) (*data.TrackInfo, error) {
	return f.track(ctx, trackURL)
}

func (f *fakeScraper) Search(ctx context.Context, query string, limit int, searchType string) ([]data.SearchResult, error) {
	return f.search(ctx, query, limit, searchType)
}

type fakeDiscovery struct {
	similar   func(name, genre string, limit int, platform string) ([]data.SimilarArtist, error)
	byGenre   func(q discovery.GenreQuery) ([]data.ArtistProfile, error)
	trending  func(genre string, limit int, timeframe string) ([]data.TrendingArtist, error)
	analyze   func(name, url string) data.ArtistAnalysis
	recommend func(liked []string, limit int, includeSimilar bool) ([]data.SimilarArtist, error)
}

func (f *fakeDiscovery) FindSimilarArtists(_ context.Context, name, genre string, limit int, platform string) ([]data.SimilarArtist, error) {
	return f.similar(name, genre, limit, platform)
}

func (f *fakeDiscovery) DiscoverByGenre(_ context.Context, q discovery.GenreQuery) ([]data.ArtistProfile, error) {
	return f.byGenre(q)
}

func (f *fakeDiscovery) TrendingArtists(_ context.Context, genre string, limit int, timeframe string) ([]data.TrendingArtist, error) {
	return f.trending(genre, limit, timeframe)
}

func (f *fakeDiscovery) AnalyzeArtist(_ context.Context, name, url string) data.ArtistAnalysis {
	return f.analyze(name, url)
}

func (f *fakeDiscovery) GetRecommendations(_ context.Context, liked []string, limit int, includeSimilar bool) ([]data.SimilarArtist, error) {
	return f.recommend(liked, limit, includeSimilar)
}

type fakeTasks struct {
	enqueue func(usernames []string, includeTracks bool, maxTracks int) (*data.DiscoveryTask, error)
	get     func(id string) (*data.DiscoveryTask, error)
}

func (f *fakeTasks) Enqueue(_ context.Context, usernames []string, includeTracks bool, maxTracks int) (*data.DiscoveryTask, error) {
	return f.enqueue(usernames, includeTracks, maxTracks)
}

func (f *fakeTasks) GetTask(_ context.Context, id string) (*data.DiscoveryTask, error) {
	return f.get(id)
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    *APIError       `json:"error"`
	Metadata Metadata        `json:"metadata"`
}

func newTestServer(deps Deps, cfg Config) http.Handler {
	if deps.Scraper == nil {
		deps.Scraper = &fakeScraper{}
	}
	if deps.Discovery == nil {
		deps.Discovery = &fakeDiscovery{}
	}
	if deps.Tasks == nil {
		deps.Tasks = &fakeTasks{}
	}
	if deps.TaskStore == nil {
		deps.TaskStore = &fakeTasks{}
	}
	return New(deps, cfg)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestScrapeArtist(t *testing.T) {
	var gotInclude bool
	var gotMax int
	h := newTestServer(Deps{Scraper: &fakeScraper{
		artist: func(_ context.Context, username string, includeTracks bool, maxTracks int) (*data.ArtistProfile, error) {
			gotInclude, gotMax = includeTracks, maxTracks
			return &data.ArtistProfile{ID: "1", Username: username}, nil
		},
	}}, Config{})

	rec, env := do(t, h, "POST", "/api/soundcloud/artist", `{"username":"someone"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	assert.NotEmpty(t, env.Metadata.RequestID)
	assert.Equal(t, env.Metadata.RequestID, rec.Header().Get("X-Request-ID"))
	assert.True(t, gotInclude)
	assert.Equal(t, 50, gotMax)

	var artist data.ArtistProfile
	require.NoError(t, json.Unmarshal(env.Data, &artist))
	assert.Equal(t, "someone", artist.Username)

	_, _ = do(t, h, "POST", "/api/soundcloud/artist", `{"username":"someone","include_tracks":false,"max_tracks":3}`)
	assert.False(t, gotInclude)
	assert.Equal(t, 3, gotMax)
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newTestServer(Deps{}, Config{})
	req := httptest.NewRequest("GET", "/api/discovery/genres", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "abc-123", env.Metadata.RequestID)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", fmt.Errorf("%w: ghost", soundcloud.ErrArtistNotFound), 404, codeNotFound, "artist not found: ghost"},
		{"invalid argument", &data.InvalidArgumentError{Field: "username", Value: "a b", Reason: "bad characters"}, 400, codeInvalidArgument, "invalid username 'a b': bad characters"},
		{"scrape error", &soundcloud.ScrapeError{Op: "artist", Target: "x", Err: &request.FetchError{Status: 500, URL: "u"}}, 502, codeScrapeFailed, ""},
		{"timeout", &request.TimeoutError{URL: "u", Timeout: time.Second}, 502, codeScrapeFailed, ""},
		{"unknown", errors.New("database exploded"), 500, codeInternal, "internal error"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(Deps{Scraper: &fakeScraper{
				artist: func(context.Context, string, bool, int) (*data.ArtistProfile, error) {
					return nil, tc.err
				},
			}}, Config{})

			rec, env := do(t, h, "POST", "/api/soundcloud/artist", `{"username":"x"}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, env.Error.Message)
			}
			assert.NotContains(t, env.Error.Message, "goroutine")
		})
	}
}

func TestValidationErrors(t *testing.T) {
	called := false
	h := newTestServer(Deps{Scraper: &fakeScraper{
		artist: func(context.Context, string, bool, int) (*data.ArtistProfile, error) {
			called = true
			return nil, nil
		},
	}}, Config{})

	for _, tc := range []struct {
		name, body, message string
	}{
		{"missing username", `{}`, "username is required"},
		{"empty body", ``, "username is required"},
		{"max tracks too high", `{"username":"x","max_tracks":500}`, "max_tracks must be at most 200"},
		{"malformed json", `{"username":`, ""},
		{"wrong type", `{"username":7}`, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, h, "POST", "/api/soundcloud/artist", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, codeValidation, env.Error.Code)
			if tc.message != "" {
				assert.Equal(t, tc.message, env.Error.Message)
			}
		})
	}
	assert.False(t, called)
}

func TestScrapeTrackRequiresURL(t *testing.T) {
	h := newTestServer(Deps{Scraper: &fakeScraper{
		track: func(_ context.Context, u string) (*data.TrackInfo, error) {
			return &data.TrackInfo{URL: u}, nil
		},
	}}, Config{})

	rec, env := do(t, h, "POST", "/api/soundcloud/track", `{"track_url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeValidation, env.Error.Code)

	rec, env = do(t, h, "POST", "/api/soundcloud/track", `{"track_url":"https://soundcloud.com/a/b"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
}

func TestSearch(t *testing.T) {
	h := newTestServer(Deps{Scraper: &fakeScraper{
		search: func(_ context.Context, query string, limit int, searchType string) ([]data.SearchResult, error) {
			assert.Equal(t, 20, limit)
			if err := data.OneOf("search_type", searchType, "artists", "tracks", "playlists"); err != nil {
				return nil, err
			}
			return []data.SearchResult{{Type: "artist", Title: query, URL: "https://soundcloud.com/" + query}}, nil
		},
	}}, Config{})

	rec, env := do(t, h, "POST", "/api/soundcloud/search", `{"query":"deep"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "deep", resp.Query)
	assert.Equal(t, 1, resp.Count)
	assert.Len(t, resp.Results, 1)

	rec, env = do(t, h, "POST", "/api/soundcloud/search", `{"query":"deep","search_type":"albums"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidArgument, env.Error.Code)
}

func TestBatchScrape(t *testing.T) {
	type call struct {
		usernames     []string
		includeTracks bool
		maxTracks     int
	}
	var got call
	tasks := &fakeTasks{
		enqueue: func(usernames []string, includeTracks bool, maxTracks int) (*data.DiscoveryTask, error) {
			got = call{usernames, includeTracks, maxTracks}
			if len(usernames) > soundcloud.MaxBatchSize {
				return nil, soundcloud.ValidateBatch(usernames)
			}
			return &data.DiscoveryTask{TaskID: "task-1", Status: data.TaskPending}, nil
		},
	}
	h := newTestServer(Deps{Tasks: tasks}, Config{})

	t.Run("bare array with query params", func(t *testing.T) {
		rec, env := do(t, h, "POST", "/api/soundcloud/batch-scrape?include_tracks=false&max_tracks=5", `["a","b","c"]`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		var resp batchResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, batchResponse{
			TaskID:        "task-1",
			Status:        "started",
			Usernames:     []string{"a", "b", "c"},
			EstimatedTime: "6 seconds",
		}, resp)
		assert.Equal(t, call{[]string{"a", "b", "c"}, false, 5}, got)
	})

	t.Run("object with defaults", func(t *testing.T) {
		rec, _ := do(t, h, "POST", "/api/soundcloud/batch-scrape", `{"usernames":["a"]}`)
		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, call{[]string{"a"}, true, 20}, got)
	})

	t.Run("empty", func(t *testing.T) {
		got = call{}
		rec, env := do(t, h, "POST", "/api/soundcloud/batch-scrape", `[]`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeValidation, env.Error.Code)
		assert.Nil(t, got.usernames)
	})

	t.Run("too large", func(t *testing.T) {
		names := make([]string, 51)
		for i := range names {
			names[i] = fmt.Sprintf("%q", fmt.Sprintf("user%d", i))
		}
		rec, env := do(t, h, "POST", "/api/soundcloud/batch-scrape", "["+strings.Join(names, ",")+"]")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeInvalidArgument, env.Error.Code)
	})

	t.Run("bad query param", func(t *testing.T) {
		rec, env := do(t, h, "POST", "/api/soundcloud/batch-scrape?max_tracks=lots", `["a"]`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeValidation, env.Error.Code)
	})
}

func TestGetTask(t *testing.T) {
	tasks := &fakeTasks{
		get: func(id string) (*data.DiscoveryTask, error) {
			if id != "known" {
				return nil, fmt.Errorf("%w: %s", db.ErrTaskNotFound, id)
			}
			return &data.DiscoveryTask{TaskID: id, Status: data.TaskInProgress, Progress: 0.5}, nil
		},
	}
	h := newTestServer(Deps{TaskStore: tasks}, Config{})

	rec, env := do(t, h, "GET", "/api/soundcloud/task/known", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var task data.DiscoveryTask
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, data.TaskInProgress, task.Status)
	assert.InDelta(t, 0.5, task.Progress, 1e-9)

	rec, env = do(t, h, "GET", "/api/soundcloud/task/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, env.Error.Code)
}

func TestDiscoveryRoutes(t *testing.T) {
	disc := &fakeDiscovery{
		similar: func(name, genre string, limit int, platform string) ([]data.SimilarArtist, error) {
			assert.Equal(t, 10, limit)
			assert.Equal(t, discovery.PlatformSoundCloud, platform)
			return []data.SimilarArtist{{Name: "Similar to " + name + " #1", SimilarityScore: 0.9}}, nil
		},
		byGenre: func(q discovery.GenreQuery) ([]data.ArtistProfile, error) {
			assert.Equal(t, 20, q.Limit)
			require.NotNil(t, q.MinFollowers)
			assert.Equal(t, int64(100), *q.MinFollowers)
			assert.Nil(t, q.MaxFollowers)
			return nil, nil
		},
		trending: func(genre string, limit int, timeframe string) ([]data.TrendingArtist, error) {
			assert.Equal(t, "House", genre)
			assert.Equal(t, 3, limit)
			return []data.TrendingArtist{{Rank: 1, Timeframe: timeframe}}, nil
		},
		analyze: func(name, url string) data.ArtistAnalysis {
			return data.ArtistAnalysis{Error: "artist not found: " + name}
		},
		recommend: func(liked []string, limit int, includeSimilar bool) ([]data.SimilarArtist, error) {
			assert.Equal(t, 15, limit)
			assert.False(t, includeSimilar)
			return []data.SimilarArtist{{Name: "R1"}, {Name: "R2"}}, nil
		},
	}
	h := newTestServer(Deps{Discovery: disc}, Config{})

	t.Run("similar", func(t *testing.T) {
		rec, env := do(t, h, "POST", "/api/discovery/similar", `{"artist_name":"Bonobo"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var similar []data.SimilarArtist
		require.NoError(t, json.Unmarshal(env.Data, &similar))
		assert.Equal(t, "Similar to Bonobo #1", similar[0].Name)
	})

	t.Run("similar limit out of range", func(t *testing.T) {
		rec, env := do(t, h, "POST", "/api/discovery/similar", `{"artist_name":"Bonobo","limit":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeValidation, env.Error.Code)
	})

	t.Run("by genre returns an empty list", func(t *testing.T) {
		rec, env := do(t, h, "POST", "/api/discovery/by-genre", `{"genre":"House","min_followers":100}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, string(env.Data))
	})

	t.Run("trending from query", func(t *testing.T) {
		rec, env := do(t, h, "POST", "/api/discovery/trending?genre=House&limit=3&timeframe=month", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp trendingResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "month", resp.Timeframe)
		require.Len(t, resp.TrendingArtists, 1)
		assert.Equal(t, "month", resp.TrendingArtists[0].Timeframe)
	})

	t.Run("analyze reports failures in the body", func(t *testing.T) {
		rec, env := do(t, h, "POST", "/api/discovery/analyze", `{"artist_name":"ghost"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
		var analysis data.ArtistAnalysis
		require.NoError(t, json.Unmarshal(env.Data, &analysis))
		assert.Equal(t, "artist not found: ghost", analysis.Error)
	})

	t.Run("recommendations from bare array", func(t *testing.T) {
		rec, env := do(t, h, "POST", "/api/discovery/recommendations?include_similar=false", `["A","B"]`)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp recommendationsResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, 2, resp.Count)
		assert.Equal(t, []string{"A", "B"}, resp.BasedOn)
	})

	t.Run("recommendations need liked artists", func(t *testing.T) {
		rec, env := do(t, h, "POST", "/api/discovery/recommendations", `{"liked_artists":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeValidation, env.Error.Code)
	})

	t.Run("genres", func(t *testing.T) {
		rec, env := do(t, h, "GET", "/api/discovery/genres", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string][]string
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Len(t, resp["genres"], 19)
		assert.Equal(t, "Electronic", resp["genres"][0])
	})
}

func TestHealth(t *testing.T) {
	h := newTestServer(Deps{}, Config{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "scraper", resp.Service)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Nil(t, resp.Dependencies)
}

func TestHealthDetailed(t *testing.T) {
	check := func(err error) Check {
		return func(context.Context) error { return err }
	}

	t.Run("healthy", func(t *testing.T) {
		h := newTestServer(Deps{Checks: map[string]Check{
			"database": check(nil),
			"ai":       check(fmt.Errorf("no api key: %w", ErrNotConfigured)),
		}}, Config{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/health/detailed", nil))

		var resp healthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, map[string]string{"database": "healthy", "ai": "disabled"}, resp.Dependencies)
	})

	t.Run("degraded", func(t *testing.T) {
		h := newTestServer(Deps{Checks: map[string]Check{
			"database": check(errors.New("disk full")),
			"ai":       check(nil),
		}}, Config{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/health/detailed", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp healthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unhealthy: disk full", resp.Dependencies["database"])
		assert.Equal(t, "healthy", resp.Dependencies["ai"])
	})
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(Deps{}, Config{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	for range 2 {
		rec, _ := do(t, h, "GET", "/api/discovery/genres", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := do(t, h, "GET", "/api/discovery/genres", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, codeRateLimited, env.Error.Code)

	// Health is outside the limited group.
	rec, _ = do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverer(t *testing.T) {
	h := newTestServer(Deps{Scraper: &fakeScraper{
		artist: func(context.Context, string, bool, int) (*data.ArtistProfile, error) {
			panic("boom")
		},
	}}, Config{})

	rec, env := do(t, h, "POST", "/api/soundcloud/artist", `{"username":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, codeInternal, env.Error.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestUnknownRoute(t *testing.T) {
	h := newTestServer(Deps{}, Config{})
	rec, env := do(t, h, "GET", "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, env.Error.Code)

	rec, env = do(t, h, "GET", "/api/soundcloud/artist", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, codeMethodNotAllowed, env.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(Deps{}, Config{})
	_, _ = do(t, h, "GET", "/api/discovery/genres", "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `soundscout_api_requests_total{method="GET",route="/api/discovery/genres",status="200"}`)
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- Run(ctx, http.NotFoundHandler(), "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
