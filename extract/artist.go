package extract

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/amonks/soundscout/data"
)

// scUser is a "user" hydration payload.
type scUser struct {
	ID              *int64  `json:"id"`
	Username        *string `json:"username"`
	Permalink       *string `json:"permalink"`
	PermalinkURL    *string `json:"permalink_url"`
	FullName        *string `json:"full_name"`
	AvatarURL       *string `json:"avatar_url"`
	Description     *string `json:"description"`
	City            *string `json:"city"`
	CountryCode     *string `json:"country_code"`
	FollowersCount  *int64  `json:"followers_count"`
	FollowingsCount *int64  `json:"followings_count"`
	TrackCount      *int64  `json:"track_count"`
	PlaylistCount   *int64  `json:"playlist_count"`
	Verified        *bool   `json:"verified"`
	CreatedAt       *string `json:"created_at"`
	LastModified    *string `json:"last_modified"`

	Badges *struct {
		Verified bool `json:"verified"`
	} `json:"badges"`

	Visuals *struct {
		Visuals []struct {
			VisualURL string `json:"visual_url"`
		} `json:"visuals"`
	} `json:"visuals"`
}

// Artist extracts whatever profile fields the page exposes. Tracks, totals,
// and genres are left for the caller, which gets them from the track
// listing.
func Artist(bs []byte, sourceURL string) (*data.ArtistProfile, error) {
	p, err := parse(bs, sourceURL)
	if err != nil {
		return nil, err
	}

	artist := &data.ArtistProfile{}
	var user scUser
	if p.hydrated("user", &user) {
		applyUser(artist, &user)
	}
	if node, ok := p.findLD("Person", "MusicGroup"); ok {
		applyArtistLD(artist, node)
	}
	if el := p.Find(`noscript [itemtype$="schema.org/MusicGroup"], noscript [itemtype$="schema.org/Person"]`).First(); el.Length() > 0 {
		artistElement{el}.apply(artist)
	}
	applyArtistMeta(artist, p)

	if artist.URL != "" {
		artist.URL = p.resolve(artist.URL)
	}
	return artist, nil
}

func applyUser(artist *data.ArtistProfile, user *scUser) {
	if user.ID != nil {
		artist.ID = strconv.FormatInt(*user.ID, 10)
	}
	if user.Permalink != nil {
		artist.Username = *user.Permalink
	}
	if name := nonEmpty(user.Username); name != nil {
		artist.DisplayName = *name
	} else if name := nonEmpty(user.FullName); name != nil {
		artist.DisplayName = *name
	}
	if user.PermalinkURL != nil {
		artist.URL = *user.PermalinkURL
	}
	if avatar := nonEmpty(user.AvatarURL); avatar != nil {
		artist.AvatarURL = data.String(upgradeArtwork(*avatar))
	}
	if user.Visuals != nil && len(user.Visuals.Visuals) > 0 && user.Visuals.Visuals[0].VisualURL != "" {
		artist.BannerURL = data.String(user.Visuals.Visuals[0].VisualURL)
	}
	artist.Description = nonEmpty(user.Description)
	artist.Location = location(user.City, user.CountryCode)
	artist.FollowersCount = nonNegative(user.FollowersCount)
	artist.FollowingCount = nonNegative(user.FollowingsCount)
	artist.TrackCount = nonNegative(user.TrackCount)
	artist.PlaylistCount = nonNegative(user.PlaylistCount)
	if user.Verified != nil {
		artist.Verified = *user.Verified
	} else if user.Badges != nil {
		artist.Verified = user.Badges.Verified
	}
	if user.CreatedAt != nil {
		artist.CreatedAt, _ = parseTime(*user.CreatedAt)
	}
	if user.LastModified != nil {
		artist.LastActivity, _ = parseTime(*user.LastModified)
	}
}

func location(city, country *string) *string {
	var parts []string
	if c := nonEmpty(city); c != nil {
		parts = append(parts, *c)
	}
	if c := nonEmpty(country); c != nil {
		parts = append(parts, *c)
	}
	if len(parts) == 0 {
		return nil
	}
	return data.String(strings.Join(parts, ", "))
}

func applyArtistLD(artist *data.ArtistProfile, node ldNode) {
	if artist.DisplayName == "" && node.Name != "" {
		artist.DisplayName = node.Name
	}
	if artist.URL == "" && node.URL != "" {
		artist.URL = node.URL
	}
	if artist.Description == nil {
		artist.Description = nonEmpty(&node.Description)
	}
	if artist.AvatarURL == nil {
		if img := node.image(); img != "" {
			artist.AvatarURL = data.String(upgradeArtwork(img))
		}
	}
	if artist.FollowersCount == nil {
		if n, ok := node.interaction("FollowAction"); ok && n >= 0 {
			artist.FollowersCount = data.Int64(n)
		}
	}
}

// An artistElement is the server-rendered profile in a page's <noscript>
// block.
type artistElement struct{ *goquery.Selection }

func (el artistElement) apply(artist *data.ArtistProfile) {
	if artist.DisplayName == "" {
		if name := strings.TrimSpace(el.Find(`[itemprop="name"]`).First().Text()); name != "" {
			artist.DisplayName = name
		}
	}
	if artist.URL == "" {
		if href, ok := el.Find(`[itemprop="name"] a, a[itemprop="url"]`).First().Attr("href"); ok {
			artist.URL = href
		}
	}
	if artist.Description == nil {
		desc := el.Find(`[itemprop="description"]`).First().Text()
		artist.Description = nonEmpty(&desc)
	}
	if artist.AvatarURL == nil {
		if src, ok := el.Find(`img[itemprop="image"]`).First().Attr("src"); ok && src != "" {
			artist.AvatarURL = data.String(upgradeArtwork(src))
		}
	}
	counts := interactionCounts(el.Selection)
	if artist.FollowersCount == nil {
		if n, ok := counts["UserFollowers"]; ok {
			artist.FollowersCount = data.Int64(n)
		}
	}
	if artist.TrackCount == nil {
		if n, ok := counts["UserTracks"]; ok {
			artist.TrackCount = data.Int64(n)
		}
	}
}

func applyArtistMeta(artist *data.ArtistProfile, p *page) {
	if artist.ID == "" {
		if id, ok := p.appLinkID("users"); ok {
			artist.ID = id
		}
	}
	if artist.DisplayName == "" {
		if title, ok := p.meta("og:title"); ok {
			artist.DisplayName = title
		}
	}
	if artist.URL == "" {
		if u, ok := p.meta("og:url"); ok {
			artist.URL = u
		}
	}
	if artist.Description == nil {
		if desc, ok := p.meta("og:description"); ok {
			artist.Description = data.String(desc)
		}
	}
	if artist.AvatarURL == nil {
		if img, ok := p.meta("og:image"); ok {
			artist.AvatarURL = data.String(upgradeArtwork(img))
		}
	}
	if artist.FollowersCount == nil {
		if s, ok := p.meta("soundcloud:follower_count"); ok {
			if n, ok := parseCount(s); ok {
				artist.FollowersCount = data.Int64(n)
			}
		}
	}
	if artist.Username == "" && artist.URL != "" {
		artist.Username = LastPathSegment(p.resolve(artist.URL))
	}
}

// interactionCounts reads microdata like
//
//	<meta itemprop="interactionCount" content="UserPlays:1234">
func interactionCounts(sel *goquery.Selection) map[string]int64 {
	counts := map[string]int64{}
	sel.Find(`meta[itemprop="interactionCount"]`).Each(func(_ int, m *goquery.Selection) {
		content, _ := m.Attr("content")
		kind, value, found := strings.Cut(content, ":")
		if !found {
			return
		}
		if n, ok := parseCount(value); ok {
			counts[strings.TrimSpace(kind)] = n
		}
	})
	return counts
}

// LastPathSegment returns the final non-empty segment of a url's path, with
// any query or fragment dropped: "https://soundcloud.com/someone/?ref=x"
// gives "someone".
func LastPathSegment(raw string) string {
	path := raw
	if u, err := url.Parse(strings.TrimSpace(raw)); err == nil {
		path = u.Path
	}
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
