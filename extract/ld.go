package extract

import (
	"strings"

	"github.com/goccy/go-json"
)

// ldNode is the subset of schema.org JSON-LD that SoundCloud pages use.
type ldNode struct {
	Type        any    `json:"@type"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Image       any    `json:"image"`
	Genre       any    `json:"genre"`
	Duration    string `json:"duration"`
	DateCreated string `json:"dateCreated"`
	Keywords    string `json:"keywords"`

	InteractionStatistic []struct {
		InteractionType      any   `json:"interactionType"`
		UserInteractionCount int64 `json:"userInteractionCount"`
	} `json:"interactionStatistic"`

	Graph []ldNode `json:"@graph"`
}

func parseLD(text string) []ldNode {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var nodes []ldNode
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &nodes); err != nil {
			return nil
		}
	} else {
		var node ldNode
		if err := json.Unmarshal([]byte(text), &node); err != nil {
			return nil
		}
		nodes = []ldNode{node}
	}

	var flat []ldNode
	for _, node := range nodes {
		flat = append(flat, node)
		flat = append(flat, node.Graph...)
	}
	return flat
}

func (n ldNode) is(types ...string) bool {
	var have []string
	switch t := n.Type.(type) {
	case string:
		have = []string{t}
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				have = append(have, s)
			}
		}
	}
	for _, h := range have {
		for _, want := range types {
			if strings.EqualFold(h, want) {
				return true
			}
		}
	}
	return false
}

func (n ldNode) image() string {
	switch img := n.Image.(type) {
	case string:
		return img
	case map[string]any:
		if u, ok := img["url"].(string); ok {
			return u
		}
	}
	return ""
}

func (n ldNode) genre() string {
	switch g := n.Genre.(type) {
	case string:
		return g
	case []any:
		if len(g) > 0 {
			if s, ok := g[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// interaction returns the count for a statistic like "ListenAction".
func (n ldNode) interaction(kind string) (int64, bool) {
	for _, stat := range n.InteractionStatistic {
		var typ string
		switch t := stat.InteractionType.(type) {
		case string:
			typ = t
		case map[string]any:
			typ, _ = t["@type"].(string)
		}
		if strings.HasSuffix(typ, kind) {
			return stat.UserInteractionCount, true
		}
	}
	return 0, false
}

func (p *page) findLD(types ...string) (ldNode, bool) {
	for _, node := range p.ld {
		if node.is(types...) {
			return node, true
		}
	}
	return ldNode{}, false
}
