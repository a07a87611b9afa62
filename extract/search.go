package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/amonks/soundscout/data"
)

// Result types, by the search they came from.
const (
	ResultArtist   = "artist"
	ResultTrack    = "track"
	ResultPlaylist = "playlist"
)

// SearchResults extracts the result list from a search page, in page order.
// resultType labels each result; it doesn't affect parsing.
func SearchResults(bs []byte, sourceURL, resultType string) ([]data.SearchResult, error) {
	p, err := parse(bs, sourceURL)
	if err != nil {
		return nil, err
	}

	var results []data.SearchResult
	seen := map[string]bool{}
	p.Find(`noscript ul li h2 a[href], noscript ul li a[itemprop="url"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		title := strings.TrimSpace(a.Text())
		if href == "" || title == "" {
			return
		}
		u := p.resolve(href)
		if seen[u] || !sameSite(p.url, u) {
			return
		}
		seen[u] = true

		result := data.SearchResult{Type: resultType, Title: title, URL: u}
		if resultType != ResultArtist {
			result.Artist = firstSegment(u)
		}
		results = append(results, result)
	})
	return results, nil
}

func sameSite(base *url.URL, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return base.Host == "" || u.Host == base.Host
}

func firstSegment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	seg, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	return seg
}
