package postlabel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spaolacci/murmur3"
)

var linkRe = regexp.MustCompile(`(?i)https?://\S+`)

// linkTrailer is trailing punctuation that belongs to the sentence, not the link.
const linkTrailer = `.,;:!?'")]}>`

// ExtractLinks returns every whitespace-delimited http(s) link in text, in
// order of appearance, with trailing sentence punctuation removed.
// No URL grammar validation is done.
func ExtractLinks(text string) []string {
	found := linkRe.FindAllString(text, -1)
	out := make([]string, 0, len(found))
	for _, l := range found {
		l = strings.TrimRight(l, linkTrailer)
		if _, rest, _ := strings.Cut(l, "://"); rest != "" {
			out = append(out, l)
		}
	}
	return out
}

// DedupeStrings returns in without repeated values, keeping first occurrences.
func DedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

// hashKey returns a compact cache key: prefix plus the murmur3 digest of value.
func hashKey(prefix, value string) string {
	return fmt.Sprintf("%s:%016x", prefix, murmur3.Sum64([]byte(value)))
}
