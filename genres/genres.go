// Package genres is the fixed genre catalogue offered to clients, plus a
// keyword classifier that maps free text onto it.
package genres

import (
	"strings"
	"unicode"
)

// Genre is one catalogue entry.
type Genre struct {
	Name string

	// Lowercase words or phrases that indicate this genre in free text.
	Keywords []string
}

var catalogue = []Genre{
	{"Electronic", []string{"electronic", "electronica", "edm", "electro", "synth", "idm"}},
	{"Hip Hop", []string{"hip hop", "hip-hop", "hiphop", "rap", "boom bap"}},
	{"Pop", []string{"pop", "synthpop", "k-pop", "kpop"}},
	{"Rock", []string{"rock", "punk", "metal", "grunge"}},
	{"Indie", []string{"indie", "alternative", "shoegaze"}},
	{"R&B", []string{"r&b", "rnb", "soul", "neo-soul"}},
	{"Jazz", []string{"jazz", "bebop", "swing"}},
	{"Classical", []string{"classical", "orchestral", "piano", "symphony"}},
	{"Country", []string{"country", "americana", "bluegrass"}},
	{"Folk", []string{"folk", "acoustic", "singer-songwriter"}},
	{"Reggae", []string{"reggae", "dub", "dancehall", "ska"}},
	{"Latin", []string{"latin", "reggaeton", "salsa", "cumbia", "bachata"}},
	{"World", []string{"world", "afrobeat", "afrobeats", "amapiano"}},
	{"House", []string{"house", "deep house", "tech house"}},
	{"Techno", []string{"techno", "minimal techno"}},
	{"Dubstep", []string{"dubstep", "riddim", "brostep"}},
	{"Trap", []string{"trap", "drill"}},
	{"Lo-fi", []string{"lo-fi", "lofi", "chillhop"}},
	{"Ambient", []string{"ambient", "drone", "downtempo", "chillout"}},
}

// All returns the catalogue's genre names in display order.
func All() []string {
	names := make([]string, len(catalogue))
	for i, g := range catalogue {
		names[i] = g.Name
	}
	return names
}

// Canonical returns the catalogue spelling of name, matching case-
// insensitively against names and keywords.
func Canonical(name string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, g := range catalogue {
		if strings.ToLower(g.Name) == want {
			return g.Name, true
		}
	}
	for _, g := range catalogue {
		for _, kw := range g.Keywords {
			if kw == want {
				return g.Name, true
			}
		}
	}
	return "", false
}

// Classify returns the catalogue genres mentioned in texts, in catalogue
// order, each at most once.
func Classify(texts ...string) []string {
	haystack := " " + normalize(strings.Join(texts, " ")) + " "
	var found []string
	for _, g := range catalogue {
		for _, kw := range g.Keywords {
			if strings.Contains(haystack, " "+kw+" ") {
				found = append(found, g.Name)
				break
			}
		}
	}
	return found
}

// normalize lowercases s and turns punctuation into spaces, keeping the
// characters that appear inside keywords.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '&', r == '-':
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)), " ")
}
