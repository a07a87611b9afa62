// Package extract turns SoundCloud pages into records.
//
// This is the only package that knows what SoundCloud's markup looks like.
// Each field is looked up in several places, most structured first:
//
//  1. the window.__sc_hydration script payload
//  2. application/ld+json blocks
//  3. the server-rendered <noscript> markup and its microdata
//  4. OpenGraph and app-link meta tags
//
// A field that can't be found anywhere is left nil. Nothing is guessed.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MalformedDocumentError means the input couldn't be read as markup at all.
type MalformedDocumentError struct {
	URL    string
	Reason string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed document at '%s': %s: %s", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed document at '%s': %s", e.URL, e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// page is a parsed document plus the structured payloads found in it.
type page struct {
	*goquery.Document
	url       *url.URL
	hydration map[string][]json.RawMessage
	ld        []ldNode
}

func parse(bs []byte, sourceURL string) (*page, error) {
	if len(bytes.TrimSpace(bs)) == 0 {
		return nil, &MalformedDocumentError{URL: sourceURL, Reason: "empty document"}
	}

	// Scripting is off so that <noscript> content parses as elements.
	root, err := html.ParseWithOptions(bytes.NewReader(bs), html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, &MalformedDocumentError{URL: sourceURL, Reason: "unparseable markup", Err: err}
	}
	if !hasContentElement(root) {
		return nil, &MalformedDocumentError{URL: sourceURL, Reason: "no elements"}
	}

	base, err := url.Parse(sourceURL)
	if err != nil {
		base = &url.URL{}
	}

	p := &page{
		Document:  goquery.NewDocumentFromNode(root),
		url:       base,
		hydration: map[string][]json.RawMessage{},
	}
	p.readScripts()
	return p, nil
}

// hasContentElement reports whether the tree has any element other than the
// html, head, and body elements the parser inserts on its own.
func hasContentElement(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.DataAtom {
			case atom.Html, atom.Head, atom.Body:
			default:
				return true
			}
		}
		if hasContentElement(c) {
			return true
		}
	}
	return false
}

type hydratable struct {
	Hydratable string          `json:"hydratable"`
	Data       json.RawMessage `json:"data"`
}

func (p *page) readScripts() {
	p.Find("script").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Text()
		if typ, _ := sel.Attr("type"); typ == "application/ld+json" {
			p.ld = append(p.ld, parseLD(text)...)
			return
		}
		if !strings.Contains(text, "__sc_hydration") {
			return
		}
		start := strings.Index(text, "[")
		end := strings.LastIndex(text, "]")
		if start < 0 || end < start {
			return
		}
		var entries []hydratable
		if err := json.Unmarshal([]byte(text[start:end+1]), &entries); err != nil {
			return
		}
		for _, entry := range entries {
			p.hydration[entry.Hydratable] = append(p.hydration[entry.Hydratable], entry.Data)
		}
	})
}

// hydrated decodes the first hydration entry of the given kind into v.
func (p *page) hydrated(kind string, v any) bool {
	for _, raw := range p.hydration[kind] {
		if err := json.Unmarshal(raw, v); err == nil {
			return true
		}
	}
	return false
}

// meta returns the content of the first meta tag whose property or name is
// key.
func (p *page) meta(key string) (string, bool) {
	sel := p.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)).First()
	content, ok := sel.Attr("content")
	content = strings.TrimSpace(content)
	return content, ok && content != ""
}

func (p *page) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return p.url.ResolveReference(ref).String()
}

// appLinkID pulls a numeric id out of links like "soundcloud://users:1234".
func (p *page) appLinkID(kind string) (string, bool) {
	for _, key := range []string{"al:android:url", "al:ios:url", "twitter:app:url:googleplay", "twitter:app:url:iphone"} {
		link, ok := p.meta(key)
		if !ok {
			continue
		}
		prefix := "soundcloud://" + kind + ":"
		if id, found := strings.CutPrefix(link, prefix); found && id != "" {
			return id, true
		}
	}
	return "", false
}
