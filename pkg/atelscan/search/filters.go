// Package search defines the filter criteria used to query stored
// reports and the evaluation of those criteria against a report.
package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
	"github.com/astrocat/atelscan/pkg/atelscan/patterns"
	"github.com/astrocat/atelscan/pkg/atelscan/report"
)

// KeywordMode selects how the keyword list is applied.
type KeywordMode int

const (
	// Any matches reports tagged with at least one of the keywords.
	Any KeywordMode = iota
	// All matches reports tagged with every keyword.
	All
	// None matches reports tagged with none of the keywords.
	None
)

// ParseKeywordMode converts a wire-level mode name to a KeywordMode.
func ParseKeywordMode(raw string) (KeywordMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "any":
		return Any, nil
	case "all":
		return All, nil
	case "none":
		return None, nil
	}
	return Any, fmt.Errorf("%w: unknown keyword mode %q", internalerr.ErrInvalidInput, raw)
}

// Filters carries common search criteria. Either Term or Keywords must be
// set for the filters to be valid.
type Filters struct {
	Term        string
	Keywords    []string
	KeywordMode KeywordMode
	StartDate   time.Time
	EndDate     time.Time
}

// Validate checks that the criteria are usable: a term or a non-empty
// keyword list is required, and every keyword must belong to the fixed
// vocabulary.
func (f Filters) Validate() error {
	if strings.TrimSpace(f.Term) == "" && len(f.Keywords) == 0 {
		return fmt.Errorf("%w: either term or keywords must be specified", internalerr.ErrInvalidInput)
	}
	for _, kw := range f.Keywords {
		if !patterns.ValidKeyword(kw) {
			return fmt.Errorf("%w: %q is not a fixed keyword", internalerr.ErrInvalidInput, kw)
		}
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", internalerr.ErrInvalidInput)
	}
	return nil
}

// Matches reports whether the report satisfies every criterion.
func (f Filters) Matches(r report.Report) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Term)); term != "" {
		title := strings.ToLower(r.Title)
		body := strings.ToLower(r.Body)
		if !strings.Contains(title, term) && !strings.Contains(body, term) {
			return false
		}
	}

	if len(f.Keywords) > 0 && !f.matchKeywords(r.Keywords) {
		return false
	}

	if !f.StartDate.IsZero() && r.SubmissionTime.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && r.SubmissionTime.After(f.EndDate) {
		return false
	}
	return true
}

func (f Filters) matchKeywords(tagged []string) bool {
	set := make(map[string]struct{}, len(tagged))
	for _, kw := range tagged {
		set[strings.ToLower(kw)] = struct{}{}
	}

	hits := 0
	for _, kw := range f.Keywords {
		if _, ok := set[strings.ToLower(kw)]; ok {
			hits++
		}
	}

	switch f.KeywordMode {
	case All:
		return hits == len(f.Keywords)
	case None:
		return hits == 0
	default:
		return hits > 0
	}
}
