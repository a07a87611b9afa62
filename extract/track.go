package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/amonks/soundscout/data"
	"github.com/goccy/go-json"
)

// scTrack is a "sound" hydration payload.
type scTrack struct {
	ID               *int64  `json:"id"`
	Title            *string `json:"title"`
	PermalinkURL     *string `json:"permalink_url"`
	Duration         *int64  `json:"duration"`
	FullDuration     *int64  `json:"full_duration"`
	PlaybackCount    *int64  `json:"playback_count"`
	LikesCount       *int64  `json:"likes_count"`
	FavoritingsCount *int64  `json:"favoritings_count"`
	RepostsCount     *int64  `json:"reposts_count"`
	CommentCount     *int64  `json:"comment_count"`
	Genre            *string `json:"genre"`
	TagList          *string `json:"tag_list"`
	Description      *string `json:"description"`
	Downloadable     *bool   `json:"downloadable"`
	ArtworkURL       *string `json:"artwork_url"`
	CreatedAt        *string `json:"created_at"`
}

// Track extracts a single track page.
func Track(bs []byte, sourceURL string) (*data.TrackInfo, error) {
	p, err := parse(bs, sourceURL)
	if err != nil {
		return nil, err
	}

	track := &data.TrackInfo{}
	var sound scTrack
	if p.hydrated("sound", &sound) {
		applySound(track, &sound)
	}
	if node, ok := p.findLD("MusicRecording"); ok {
		applyTrackLD(track, node)
	}
	if el := p.Find(`noscript [itemtype$="schema.org/MusicRecording"]`).First(); el.Length() > 0 {
		trackElement{el}.apply(track)
	}
	applyTrackMeta(track, p)

	if track.URL != "" {
		track.URL = p.resolve(track.URL)
	} else {
		track.URL = sourceURL
	}
	return track, nil
}

// Tracks extracts up to max tracks from an artist's track listing page. A
// max of zero or less means no limit.
func Tracks(bs []byte, sourceURL string, max int) ([]data.TrackInfo, error) {
	p, err := parse(bs, sourceURL)
	if err != nil {
		return nil, err
	}

	var tracks []data.TrackInfo
	seen := map[string]bool{}
	add := func(track data.TrackInfo) bool {
		if track.URL != "" {
			track.URL = p.resolve(track.URL)
		}
		key := track.URL
		if key == "" {
			key = track.ID
		}
		if key == "" || seen[key] {
			return true
		}
		seen[key] = true
		tracks = append(tracks, track)
		return max <= 0 || len(tracks) < max
	}

	for _, raw := range p.hydration["sound"] {
		var sound scTrack
		if err := json.Unmarshal(raw, &sound); err != nil {
			continue
		}
		var track data.TrackInfo
		applySound(&track, &sound)
		if !add(track) {
			return tracks, nil
		}
	}

	more := true
	p.Find(`noscript article[itemprop="track"], noscript [itemtype$="schema.org/MusicRecording"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var track data.TrackInfo
		trackElement{sel}.apply(&track)
		more = add(track)
		return more
	})
	return tracks, nil
}

func applySound(track *data.TrackInfo, sound *scTrack) {
	if sound.ID != nil {
		track.ID = strconv.FormatInt(*sound.ID, 10)
	}
	if sound.Title != nil {
		track.Title = strings.TrimSpace(*sound.Title)
	}
	if sound.PermalinkURL != nil {
		track.URL = *sound.PermalinkURL
	}
	ms := sound.FullDuration
	if ms == nil {
		ms = sound.Duration
	}
	if ms = nonNegative(ms); ms != nil {
		track.Duration = data.Int64(*ms / 1000)
	}
	track.PlayCount = nonNegative(sound.PlaybackCount)
	track.LikeCount = nonNegative(sound.LikesCount)
	if track.LikeCount == nil {
		track.LikeCount = nonNegative(sound.FavoritingsCount)
	}
	track.RepostCount = nonNegative(sound.RepostsCount)
	track.CommentCount = nonNegative(sound.CommentCount)
	track.Genre = nonEmpty(sound.Genre)
	if sound.TagList != nil {
		track.Tags = parseTags(*sound.TagList)
	}
	track.Description = nonEmpty(sound.Description)
	if sound.Downloadable != nil {
		track.Downloadable = *sound.Downloadable
	}
	if art := nonEmpty(sound.ArtworkURL); art != nil {
		track.ArtworkURL = data.String(upgradeArtwork(*art))
	}
	if sound.CreatedAt != nil {
		track.CreatedAt, _ = parseTime(*sound.CreatedAt)
	}
}

func applyTrackLD(track *data.TrackInfo, node ldNode) {
	if track.Title == "" {
		track.Title = strings.TrimSpace(node.Name)
	}
	if track.URL == "" {
		track.URL = node.URL
	}
	if track.Duration == nil {
		if secs, ok := parseISODuration(node.Duration); ok {
			track.Duration = data.Int64(secs)
		}
	}
	if track.Genre == nil {
		g := node.genre()
		track.Genre = nonEmpty(&g)
	}
	if track.Description == nil {
		track.Description = nonEmpty(&node.Description)
	}
	if track.ArtworkURL == nil {
		if img := node.image(); img != "" {
			track.ArtworkURL = data.String(upgradeArtwork(img))
		}
	}
	if track.Tags == nil && node.Keywords != "" {
		for _, kw := range strings.Split(node.Keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				track.Tags = append(track.Tags, kw)
			}
		}
	}
	if track.PlayCount == nil {
		if n, ok := node.interaction("ListenAction"); ok && n >= 0 {
			track.PlayCount = data.Int64(n)
		}
	}
	if track.LikeCount == nil {
		if n, ok := node.interaction("LikeAction"); ok && n >= 0 {
			track.LikeCount = data.Int64(n)
		}
	}
	if track.CreatedAt == nil && node.DateCreated != "" {
		track.CreatedAt, _ = parseTime(node.DateCreated)
	}
}

// A trackElement is a server-rendered track: either the main article on a
// track page or one entry in a track listing.
type trackElement struct{ *goquery.Selection }

func (el trackElement) apply(track *data.TrackInfo) {
	link := el.Find(`[itemprop="name"] a, a[itemprop="url"]`).First()
	if track.Title == "" {
		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = strings.TrimSpace(el.Find(`[itemprop="name"]`).First().Text())
		}
		track.Title = title
	}
	if track.URL == "" {
		if href, ok := link.Attr("href"); ok {
			track.URL = href
		}
	}
	if track.Duration == nil {
		if content, ok := el.Find(`meta[itemprop="duration"]`).First().Attr("content"); ok {
			if secs, ok := parseISODuration(content); ok {
				track.Duration = data.Int64(secs)
			}
		}
	}
	if track.Genre == nil {
		content, _ := el.Find(`meta[itemprop="genre"]`).First().Attr("content")
		track.Genre = nonEmpty(&content)
	}
	if track.CreatedAt == nil {
		track.CreatedAt, _ = parseTime(el.Find(`time`).First().Text())
	}
	counts := interactionCounts(el.Selection)
	for kind, dst := range map[string]**int64{
		"UserPlays":    &track.PlayCount,
		"UserLikes":    &track.LikeCount,
		"UserComments": &track.CommentCount,
		"UserReposts":  &track.RepostCount,
	} {
		if *dst != nil {
			continue
		}
		if n, ok := counts[kind]; ok {
			*dst = data.Int64(n)
		}
	}
}

func applyTrackMeta(track *data.TrackInfo, p *page) {
	if track.ID == "" {
		if id, ok := p.appLinkID("sounds"); ok {
			track.ID = id
		}
	}
	if track.Title == "" {
		if title, ok := p.meta("og:title"); ok {
			track.Title = title
		}
	}
	if track.URL == "" {
		if u, ok := p.meta("og:url"); ok {
			track.URL = u
		}
	}
	if track.Description == nil {
		if desc, ok := p.meta("og:description"); ok {
			track.Description = data.String(desc)
		}
	}
	if track.ArtworkURL == nil {
		if img, ok := p.meta("og:image"); ok {
			track.ArtworkURL = data.String(upgradeArtwork(img))
		}
	}
	for key, dst := range map[string]**int64{
		"soundcloud:play_count":     &track.PlayCount,
		"soundcloud:like_count":     &track.LikeCount,
		"soundcloud:comments_count": &track.CommentCount,
	} {
		if *dst != nil {
			continue
		}
		if s, ok := p.meta(key); ok {
			if n, ok := parseCount(s); ok {
				*dst = data.Int64(n)
			}
		}
	}
}
