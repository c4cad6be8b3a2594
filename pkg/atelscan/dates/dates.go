// Package dates finds date-like substrings in free text and converts each
// to an absolute timestamp using the static grammar tables in patterns.
package dates

import (
	"regexp"
	"strings"
	"time"

	"github.com/astrocat/atelscan/pkg/atelscan/patterns"
)

// Extract scans the text with every date grammar in priority order and
// returns the raw candidate strings, de-duplicated preserving first
// occurrence across the pooled sequence (grammar order, then position
// order). The text is lower-cased and padded with a sentinel non-digit
// character on each side so a date is only recognized when it is not
// embedded inside a longer digit run.
func Extract(text string) []string {
	padded := " " + strings.ToLower(text) + " "

	var candidates []string
	seen := make(map[string]struct{})
	for _, g := range patterns.DateGrammars() {
		for _, match := range g.Bounded.FindAllString(padded, -1) {
			raw := g.Bare.FindString(match)
			if raw == "" {
				continue
			}
			if _, ok := seen[raw]; ok {
				continue
			}
			seen[raw] = struct{}{}
			candidates = append(candidates, raw)
		}
	}
	return candidates
}

// Normalize parses each raw candidate against the ordered timestamp
// layouts, keeping the first layout that succeeds. Candidates that match
// no layout are dropped; completeness is sacrificed for precision, and
// the number of dropped candidates is returned so callers can observe
// the loss. The resulting timestamps are de-duplicated by value,
// preserving first-occurrence order.
func Normalize(raw []string) ([]time.Time, int) {
	var out []time.Time
	seen := make(map[time.Time]struct{})
	rejected := 0

	for _, candidate := range raw {
		ts, ok := parse(candidate)
		if !ok {
			rejected++
			continue
		}
		if _, dup := seen[ts]; dup {
			continue
		}
		seen[ts] = struct{}{}
		out = append(out, ts)
	}
	return out, rejected
}

var singleDigitHour = regexp.MustCompile(`(^|[^\d])(\d):(\d\d)`)

func parse(raw string) (time.Time, bool) {
	// Go's hour layout token is fixed-width and its month names are
	// capitalized, so normalize the lower-cased candidate first.
	normalized := singleDigitHour.ReplaceAllString(capitalizeWords(raw), "${1}0${2}:${3}")

	for _, layout := range patterns.TimestampLayouts() {
		if ts, err := time.Parse(layout, normalized); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// capitalizeWords upper-cases the first letter of every alphabetic run,
// turning "3 february 1999" into "3 February 1999".
func capitalizeWords(s string) string {
	b := []byte(s)
	prevLetter := false
	for i, c := range b {
		isLetter := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
		if isLetter && !prevLetter && c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
		prevLetter = isLetter
	}
	return string(b)
}
