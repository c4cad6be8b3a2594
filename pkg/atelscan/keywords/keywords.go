// Package keywords matches free text against the fixed keyword
// vocabulary. Matching is case-insensitive and boundary-safe: an entry
// never matches as a substring of a longer word, and a longer vocabulary
// entry consumes its span so the shorter entries it contains are not
// reported alongside it.
package keywords

import (
	"regexp"
	"sort"
	"strings"

	"github.com/astrocat/atelscan/pkg/atelscan/patterns"
)

type entry struct {
	label string
	re    *regexp.Regexp
}

var (
	// byVocabulary holds one matcher per entry in definition order.
	byVocabulary []entry
	// byLength holds the same matchers, longest pattern first, so
	// compound entries claim their span before the tokens they contain.
	byLength []entry
)

func init() {
	vocab := patterns.Vocabulary()
	byVocabulary = make([]entry, len(vocab))
	for i, label := range vocab {
		byVocabulary[i] = entry{label: label, re: regexp.MustCompile(patterns.KeywordPattern(label))}
	}

	byLength = make([]entry, len(byVocabulary))
	copy(byLength, byVocabulary)
	sort.SliceStable(byLength, func(i, j int) bool {
		return len(byLength[i].label) > len(byLength[j].label)
	})
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Extract returns the canonical labels of every vocabulary entry found in
// the text, in vocabulary definition order, never more than once per
// label. Presence is boolean, not a count.
func Extract(text string) []string {
	padded := " " + strings.ToLower(text) + " "

	matched := make(map[string]struct{})
	var consumed []span

	for _, e := range byLength {
		for _, loc := range e.re.FindAllStringIndex(padded, -1) {
			s := span{start: loc[0], end: loc[1]}
			if !boundaryOK(padded, s) {
				continue
			}
			if overlapsAny(consumed, s) {
				continue
			}
			consumed = append(consumed, s)
			matched[e.label] = struct{}{}
		}
	}

	var out []string
	for _, e := range byVocabulary {
		if _, ok := matched[e.label]; ok {
			out = append(out, e.label)
		}
	}
	return out
}

// ExtractRaw returns every vocabulary entry found in the text in first
// occurrence order, without the span consumption Extract applies. It is
// the lighter scan used for keyword suggestions on free-text queries.
func ExtractRaw(text string) []string {
	padded := " " + strings.ToLower(text) + " "

	type hit struct {
		pos   int
		label string
	}
	var hits []hit
	for _, e := range byVocabulary {
		for _, loc := range e.re.FindAllStringIndex(padded, -1) {
			if !boundaryOK(padded, span{start: loc[0], end: loc[1]}) {
				continue
			}
			hits = append(hits, hit{pos: loc[0], label: e.label})
			break
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.label)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// boundaryOK reports whether the match is bounded by non-letter
// characters on both sides, so an entry cannot match inside a longer
// word.
func boundaryOK(padded string, s span) bool {
	if s.start > 0 && isLetter(padded[s.start-1]) {
		return false
	}
	if s.end < len(padded) && isLetter(padded[s.end]) {
		return false
	}
	return true
}

func overlapsAny(spans []span, s span) bool {
	for _, c := range spans {
		if c.overlaps(s) {
			return true
		}
	}
	return false
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
