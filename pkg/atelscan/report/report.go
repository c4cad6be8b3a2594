package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Report is the normalized record produced for one ingested bulletin.
// A Report is assembled once per raw document and never mutated afterwards.
type Report struct {
	// ID is the bulletin number assigned by the source system.
	ID int

	Title   string
	Authors string

	// Body is normalized plain text: paragraph boundaries are single
	// newlines and there is no leading or trailing whitespace.
	Body string

	// SubmissionTime is the declared submission timestamp, minute precision.
	SubmissionTime time.Time

	// ReferencedReports holds ids of other bulletins this report's body
	// links to. Disjoint from ReferencedBy.
	ReferencedReports []int

	// ReferencedBy holds ids of bulletins whose citation of this report is
	// declared in the citation section of the source document.
	ReferencedBy []int

	// ObservationDates are timestamps found in the free text, distinct
	// from the submission time.
	ObservationDates []time.Time

	// Keywords are canonical vocabulary labels in vocabulary order.
	Keywords []string

	// Objects are canonical object identifiers resolved via the alias table.
	Objects []string

	// Coordinates is an extension point and is always empty in the
	// current scope.
	Coordinates []Coordinate
}

// Coordinate is a celestial position candidate. Extraction is not
// implemented; the type exists so the record shape is stable.
type Coordinate struct {
	RA  float64
	Dec float64
}

// Validate checks the invariants every assembled report must satisfy.
func (r *Report) Validate() error {
	if r.ID <= 0 {
		return fmt.Errorf("report id must be positive, got %d", r.ID)
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("report title is required")
	}
	if strings.TrimSpace(r.Authors) == "" {
		return errors.New("report authors are required")
	}
	if r.SubmissionTime.IsZero() {
		return errors.New("report submission time is required")
	}

	if err := noDuplicateInts("referenced_reports", r.ReferencedReports); err != nil {
		return err
	}
	if err := noDuplicateInts("referenced_by", r.ReferencedBy); err != nil {
		return err
	}
	if err := noDuplicateStrings("keywords", r.Keywords); err != nil {
		return err
	}
	if err := noDuplicateStrings("objects", r.Objects); err != nil {
		return err
	}

	refBy := make(map[int]struct{}, len(r.ReferencedBy))
	for _, id := range r.ReferencedBy {
		refBy[id] = struct{}{}
	}
	for _, id := range r.ReferencedReports {
		if _, ok := refBy[id]; ok {
			return fmt.Errorf("report %d appears in both referenced_reports and referenced_by", id)
		}
	}

	seen := make(map[time.Time]struct{}, len(r.ObservationDates))
	for _, ts := range r.ObservationDates {
		if _, ok := seen[ts]; ok {
			return fmt.Errorf("duplicate observation date %s", ts)
		}
		seen[ts] = struct{}{}
	}

	return nil
}

func noDuplicateInts(field string, vals []int) error {
	seen := make(map[int]struct{}, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("duplicate value %d in %s", v, field)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func noDuplicateStrings(field string, vals []string) error {
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("duplicate value %q in %s", v, field)
		}
		seen[v] = struct{}{}
	}
	return nil
}
