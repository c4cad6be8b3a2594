// Package assemble orchestrates the extraction pipeline over one
// document: segmentation, then date, keyword and alias extraction, then
// assembly of the final report record.
package assemble

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/astrocat/atelscan/pkg/atelscan/alias"
	"github.com/astrocat/atelscan/pkg/atelscan/dates"
	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
	"github.com/astrocat/atelscan/pkg/atelscan/keywords"
	"github.com/astrocat/atelscan/pkg/atelscan/patterns"
	"github.com/astrocat/atelscan/pkg/atelscan/report"
	"github.com/astrocat/atelscan/pkg/atelscan/segment"
)

// Assembler builds report records from raw documents. It holds no state
// across invocations; the same assembler can process any number of
// documents concurrently.
type Assembler struct {
	log *slog.Logger
}

// New creates an Assembler. A nil logger falls back to slog's default.
func New(log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{log: log}
}

// Assemble extracts a full report record from one rendered document. The
// alias snapshot must stay unchanged for the duration of the call; the
// engine builds one per batch. Assembly either runs to a complete record
// or fails for this one document only.
func (a *Assembler) Assemble(id int, page string, aliases *alias.Snapshot) (report.Report, error) {
	if id <= 0 {
		return report.Report{}, fmt.Errorf("%w: report id must be positive, got %d", internalerr.ErrInvalidInput, id)
	}

	seg, err := segment.Parse(page)
	if err != nil {
		return report.Report{}, err
	}

	submitted, err := time.Parse(patterns.SubmissionLayout, seg.RawSubmissionDate)
	if err != nil {
		return report.Report{}, &internalerr.MissingElementError{Element: "submission date"}
	}

	text := seg.Title + " " + seg.Body

	rawDates := dates.Extract(text)
	observed, rejected := dates.Normalize(rawDates)
	if rejected > 0 {
		a.log.Debug("dropped unparseable date candidates",
			slog.Int("report", id), slog.Int("rejected", rejected))
	}

	r := report.Report{
		ID:                id,
		Title:             seg.Title,
		Authors:           seg.Authors,
		Body:              seg.Body,
		SubmissionTime:    submitted,
		ReferencedReports: dropSelf(seg.ReferenceIDs, id),
		ReferencedBy:      seg.ReferencedByIDs,
		ObservationDates:  observed,
		Keywords:          keywords.Extract(seg.Title + " " + seg.Subjects + " " + seg.Body),
		Objects:           aliases.Resolve(text),
		Coordinates:       ParseCoords(ExtractCoords(text)),
	}

	if err := r.Validate(); err != nil {
		return report.Report{}, err
	}
	return r, nil
}

// ExtractCoords finds coordinate candidates in the text. Coordinate
// extraction is a declared extension point and currently finds nothing.
func ExtractCoords(text string) []string {
	return nil
}

// ParseCoords converts coordinate candidates into celestial positions.
// Extension point; currently returns nothing.
func ParseCoords(coords []string) []report.Coordinate {
	return nil
}

// dropSelf removes the report's own id from its reference list.
func dropSelf(ids []int, self int) []int {
	out := ids[:0:0]
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}
