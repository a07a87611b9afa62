// Package soundcloud scrapes artist profiles, tracks, and search results from
// SoundCloud's public pages.
package soundcloud

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/extract"
	"github.com/amonks/soundscout/logging"
	"github.com/amonks/soundscout/request"
)

const DefaultBaseURL = "https://soundcloud.com"

// Fetcher fetches raw pages. *request.Client is the production Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// New creates a Scraper for the site at baseURL, like
// "https://soundcloud.com".
func New(fetcher Fetcher, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/")}
}

// Scraper holds no per-request state and is safe for concurrent use.
type Scraper struct {
	fetcher Fetcher
	baseURL string
}

func (s *Scraper) BaseURL() string { return s.baseURL }

// ProfileURL is the canonical url of a user's profile page.
func (s *Scraper) ProfileURL(username string) string {
	return s.baseURL + "/" + url.PathEscape(username)
}

// ScrapeArtist fetches username's profile. If includeTracks is set, it also
// fetches up to maxTracks tracks from their track listing and totals their
// plays and likes. A failure on the track listing is logged and leaves the
// profile with no tracks; it doesn't fail the scrape.
func (s *Scraper) ScrapeArtist(ctx context.Context, username string, includeTracks bool, maxTracks int) (*data.ArtistProfile, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}

	profileURL := s.ProfileURL(username)
	bs, err := s.fetcher.Fetch(ctx, profileURL)
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: '%s'", ErrArtistNotFound, username)
	} else if err != nil {
		return nil, &ScrapeError{Op: "artist", Target: username, Err: err}
	}

	artist, err := extract.Artist(bs, profileURL)
	if err != nil {
		return nil, &ScrapeError{Op: "artist", Target: username, Err: err}
	}
	if artist.Username == "" {
		artist.Username = username
	}
	if artist.DisplayName == "" {
		artist.DisplayName = artist.Username
	}
	if artist.URL == "" {
		artist.URL = profileURL
	}
	if artist.ID == "" {
		artist.ID = artist.Username
	}

	artist.Tracks = []data.TrackInfo{}
	if includeTracks && maxTracks > 0 {
		tracks, err := s.ArtistTracks(ctx, username, maxTracks)
		if err != nil && ctx.Err() != nil {
			return nil, &ScrapeError{Op: "artist", Target: username, Err: ctx.Err()}
		} else if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("username", username).Msg("track listing failed; returning profile without tracks")
		} else {
			artist.Tracks = tracks
		}
	}

	artist.Genres = mergeGenres(artist.Genres, artist.Tracks)
	artist.Aggregate()
	return artist, nil
}

// ArtistTracks fetches up to max tracks from username's track listing.
func (s *Scraper) ArtistTracks(ctx context.Context, username string, max int) ([]data.TrackInfo, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}

	listingURL := s.ProfileURL(username) + "/tracks"
	bs, err := s.fetcher.Fetch(ctx, listingURL)
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: '%s'", ErrArtistNotFound, username)
	} else if err != nil {
		return nil, &ScrapeError{Op: "tracks", Target: username, Err: err}
	}

	tracks, err := extract.Tracks(bs, listingURL, max)
	if err != nil {
		return nil, &ScrapeError{Op: "tracks", Target: username, Err: err}
	}
	if tracks == nil {
		tracks = []data.TrackInfo{}
	}
	return tracks, nil
}

// ScrapeTrack fetches a single track page.
func (s *Scraper) ScrapeTrack(ctx context.Context, trackURL string) (*data.TrackInfo, error) {
	trackURL, err := s.validateTrackURL(trackURL)
	if err != nil {
		return nil, err
	}

	bs, err := s.fetcher.Fetch(ctx, trackURL)
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: '%s'", ErrTrackNotFound, trackURL)
	} else if err != nil {
		return nil, &ScrapeError{Op: "track", Target: trackURL, Err: err}
	}

	track, err := extract.Track(bs, trackURL)
	if err != nil {
		return nil, &ScrapeError{Op: "track", Target: trackURL, Err: err}
	}
	if track.ID == "" {
		if u, err := url.Parse(track.URL); err == nil {
			track.ID = strings.Trim(u.Path, "/")
		}
	}
	return track, nil
}

func isNotFound(err error) bool {
	var fetchErr *request.FetchError
	return errors.As(err, &fetchErr) && fetchErr.NotFound()
}

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_-]{1,255}$`)

// normalizeUsername accepts a bare username or a profile url.
func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if strings.Contains(username, "/") {
		username = extract.LastPathSegment(username)
	}
	if !usernameRE.MatchString(username) {
		return "", &data.InvalidArgumentError{
			Field:  "username",
			Value:  username,
			Reason: "must be letters, digits, underscores, or hyphens",
		}
	}
	return username, nil
}

func (s *Scraper) validateTrackURL(raw string) (string, error) {
	invalid := func(reason string) error {
		return &data.InvalidArgumentError{Field: "track_url", Value: raw, Reason: reason}
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", invalid(err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalid("must be an http or https url")
	}
	base, _ := url.Parse(s.baseURL)
	if !sameHost(base.Hostname(), u.Hostname()) {
		return "", invalid(fmt.Sprintf("must be on %s", base.Hostname()))
	}
	if strings.Count(strings.Trim(u.Path, "/"), "/") < 1 {
		return "", invalid("must point at a track, like /artist/track")
	}
	u.RawQuery, u.Fragment = "", ""
	return u.String(), nil
}

// sameHost treats "m." and "www." variants of the base host as the same
// site.
func sameHost(base, host string) bool {
	trim := func(h string) string {
		h = strings.ToLower(h)
		h = strings.TrimPrefix(h, "www.")
		return strings.TrimPrefix(h, "m.")
	}
	return trim(base) == trim(host)
}

// mergeGenres adds each distinct track genre to the artist's genres,
// preserving first-seen order.
func mergeGenres(genres []string, tracks []data.TrackInfo) []string {
	seen := map[string]bool{}
	merged := []string{}
	add := func(g string) {
		g = strings.TrimSpace(g)
		if g == "" || seen[strings.ToLower(g)] {
			return
		}
		seen[strings.ToLower(g)] = true
		merged = append(merged, g)
	}
	for _, g := range genres {
		add(g)
	}
	for _, track := range tracks {
		if track.Genre != nil {
			add(*track.Genre)
		}
	}
	return merged
}
