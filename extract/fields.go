package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var tagRE = regexp.MustCompile(`"([^"]+)"|(\S+)`)

// parseTags splits SoundCloud's tag_list, where multi-word tags are quoted:
//
//	electronic "deep house" chill
func parseTags(list string) []string {
	seen := map[string]bool{}
	var tags []string
	for _, match := range tagRE.FindAllStringSubmatch(list, -1) {
		tag := strings.TrimSpace(match[1] + match[2])
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		tags = append(tags, tag)
	}
	return tags
}

var isoDurationRE = regexp.MustCompile(`^P(?:\d+D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// parseISODuration reads durations like PT00H04M12S into seconds.
func parseISODuration(s string) (int64, bool) {
	match := isoDurationRE.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil || (match[1] == "" && match[2] == "" && match[3] == "") {
		return 0, false
	}
	var total float64
	for i, unit := range []float64{3600, 60, 1} {
		if match[i+1] == "" {
			continue
		}
		n, err := strconv.ParseFloat(match[i+1], 64)
		if err != nil {
			return 0, false
		}
		total += n * unit
	}
	return int64(total), true
}

// upgradeArtwork swaps SoundCloud's default 100px artwork for the 500px
// variant.
func upgradeArtwork(u string) string {
	return strings.Replace(u, "-large.", "-t500x500.", 1)
}

func parseTime(s string) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006/01/02 15:04:05 -0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// parseCount reads counters as SoundCloud renders them, like "1,234".
func parseCount(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nonNegative(n *int64) *int64 {
	if n == nil || *n < 0 {
		return nil
	}
	return n
}
