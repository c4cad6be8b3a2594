// Package store defines the persistence interface for assembled reports
// and the alias table. The pipeline itself owns no long-lived state; all
// of it lives behind this interface.
package store

import (
	"context"
	"time"

	"github.com/astrocat/atelscan/pkg/atelscan/alias"
	"github.com/astrocat/atelscan/pkg/atelscan/report"
	"github.com/astrocat/atelscan/pkg/atelscan/search"
)

// Store persists reports, aliases and import metadata.
//
// AddReport must make "check existence, then insert" effectively atomic
// for a given report id: of two concurrent inserts for the same id,
// exactly one succeeds and the other returns internalerr.ErrReportExists.
type Store interface {
	Close() error

	// Reports
	ReportExists(ctx context.Context, id int) (bool, error)
	AddReport(ctx context.Context, r report.Report) error
	GetReport(ctx context.Context, id int) (report.Report, bool, error)
	FindReports(ctx context.Context, f search.Filters) ([]report.Report, error)
	ReportCount(ctx context.Context) (int, error)

	// Alias table
	AllAliases(ctx context.Context) ([]alias.Alias, error)
	AddAliases(ctx context.Context, objectID string, names []string) error

	// Import metadata
	NextReportNumber(ctx context.Context) (int, error)
	SetNextReportNumber(ctx context.Context, n int) error
	LastUpdated(ctx context.Context) (time.Time, error)
}
