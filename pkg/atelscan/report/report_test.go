package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validReport() Report {
	return Report{
		ID:                1000,
		Title:             "A transient brightening",
		Authors:           "A. Observer",
		Body:              "We report a detection.",
		SubmissionTime:    time.Date(2007, 2, 11, 9, 48, 0, 0, time.UTC),
		ReferencedReports: []int{438},
		ReferencedBy:      []int{1001},
		ObservationDates:  []time.Time{time.Date(2007, 2, 3, 0, 0, 0, 0, time.UTC)},
		Keywords:          []string{"optical", "transient"},
		Objects:           []string{"gx 339-4"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Report)
		wantErr string
	}{
		{name: "valid", mutate: func(r *Report) {}},
		{
			name:    "zero id",
			mutate:  func(r *Report) { r.ID = 0 },
			wantErr: "id must be positive",
		},
		{
			name:    "blank title",
			mutate:  func(r *Report) { r.Title = "  " },
			wantErr: "title is required",
		},
		{
			name:    "blank authors",
			mutate:  func(r *Report) { r.Authors = "" },
			wantErr: "authors are required",
		},
		{
			name:    "zero submission time",
			mutate:  func(r *Report) { r.SubmissionTime = time.Time{} },
			wantErr: "submission time is required",
		},
		{
			name:    "duplicate reference",
			mutate:  func(r *Report) { r.ReferencedReports = []int{438, 438} },
			wantErr: "duplicate value 438",
		},
		{
			name:    "duplicate keyword",
			mutate:  func(r *Report) { r.Keywords = []string{"nova", "nova"} },
			wantErr: `duplicate value "nova"`,
		},
		{
			name:    "reference sets overlap",
			mutate:  func(r *Report) { r.ReferencedReports = []int{1001} },
			wantErr: "both referenced_reports and referenced_by",
		},
		{
			name: "duplicate observation date",
			mutate: func(r *Report) {
				ts := time.Date(2007, 2, 3, 0, 0, 0, 0, time.UTC)
				r.ObservationDates = []time.Time{ts, ts}
			},
			wantErr: "duplicate observation date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReport()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmptyCollections(t *testing.T) {
	r := Report{
		ID:             1,
		Title:          "T",
		Authors:        "A",
		SubmissionTime: time.Date(2007, 2, 11, 9, 48, 0, 0, time.UTC),
	}
	assert.NoError(t, r.Validate())
}
