package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no dates",
			text: "We report on a new optical transient.",
			want: nil,
		},
		{
			name: "long month form",
			text: "Observations were taken on 3 February 1999 at the site.",
			want: []string{"3 february 1999"},
		},
		{
			name: "with time of day",
			text: "The burst occurred on 11 Feb 2007 09:48 exactly.",
			want: []string{"11 feb 2007 09:48"},
		},
		{
			name: "multiple grammars pooled in priority order",
			text: "First seen 1999-02-01, confirmed 3 march 1999.",
			want: []string{"3 march 1999", "1999-02-01"},
		},
		{
			name: "duplicate raw strings collapse",
			text: "Seen on 3 feb 1999 and again on 3 feb 1999.",
			want: []string{"3 feb 1999"},
		},
		{
			name: "embedded in a longer digit run is not a date",
			text: "Catalog id 51999-02-013 is unrelated.",
			want: nil,
		},
		{
			name: "date at the start and end of text",
			text: "1999-02-01 marked the start, ending 1999-03-02",
			want: []string{"1999-02-01", "1999-03-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestExtractAdjacentCandidatesShareNoBoundary(t *testing.T) {
	// A regexp scan resumes after each match, so two candidates separated
	// by a single non-digit character are both found only when the
	// separator is wide enough. Two spaces is the realistic minimum.
	got := Extract("between 1999-02-01  1999-03-02 nights")
	assert.Equal(t, []string{"1999-02-01", "1999-03-02"}, got)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		raw          []string
		want         []time.Time
		wantRejected int
	}{
		{
			name: "empty",
			raw:  nil,
			want: nil,
		},
		{
			name: "long month",
			raw:  []string{"3 february 1999"},
			want: []time.Time{time.Date(1999, 2, 3, 0, 0, 0, 0, time.UTC)},
		},
		{
			name: "short month with time",
			raw:  []string{"11 feb 2007 09:48"},
			want: []time.Time{time.Date(2007, 2, 11, 9, 48, 0, 0, time.UTC)},
		},
		{
			name: "single digit hour",
			raw:  []string{"11 feb 2007 9:48"},
			want: []time.Time{time.Date(2007, 2, 11, 9, 48, 0, 0, time.UTC)},
		},
		{
			name: "semicolon separated time with seconds",
			raw:  []string{"11 feb 2007; 09:48:30"},
			want: []time.Time{time.Date(2007, 2, 11, 9, 48, 30, 0, time.UTC)},
		},
		{
			name: "day-first slash form wins over month-first",
			raw:  []string{"2/3/1999"},
			want: []time.Time{time.Date(1999, 3, 2, 0, 0, 0, 0, time.UTC)},
		},
		{
			name: "two digit year this century",
			raw:  []string{"3-feb-07"},
			want: []time.Time{time.Date(2007, 2, 3, 0, 0, 0, 0, time.UTC)},
		},
		{
			name: "two digit year last century",
			raw:  []string{"3-feb-99"},
			want: []time.Time{time.Date(1999, 2, 3, 0, 0, 0, 0, time.UTC)},
		},
		{
			name:         "unparseable candidate is dropped and counted",
			raw:          []string{"31 february 1999", "3 march 1999"},
			want:         []time.Time{time.Date(1999, 3, 3, 0, 0, 0, 0, time.UTC)},
			wantRejected: 1,
		},
		{
			name: "distinct raw strings for the same instant collapse",
			raw:  []string{"3 february 1999", "1999-2-3"},
			want: []time.Time{time.Date(1999, 2, 3, 0, 0, 0, 0, time.UTC)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rejected := Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRejected, rejected)
		})
	}
}

func TestExtractThenNormalize(t *testing.T) {
	text := "We observed the source on 11 Feb 2007; 09:48 and again on 12 Feb 2007."
	raw := Extract(text)
	require.Len(t, raw, 2)

	got, rejected := Normalize(raw)
	assert.Zero(t, rejected)
	assert.Equal(t, []time.Time{
		time.Date(2007, 2, 11, 9, 48, 0, 0, time.UTC),
		time.Date(2007, 2, 12, 0, 0, 0, 0, time.UTC),
	}, got)
}
