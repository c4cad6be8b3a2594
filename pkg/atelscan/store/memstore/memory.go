// Package memstore is an in-memory implementation of store.Store for
// tests and local experiments.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/astrocat/atelscan/pkg/atelscan/alias"
	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
	"github.com/astrocat/atelscan/pkg/atelscan/report"
	"github.com/astrocat/atelscan/pkg/atelscan/search"
)

// Store is an in-memory store.Store. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	reports     map[int]report.Report
	aliases     []alias.Alias
	nextNum     int
	lastUpdated time.Time
}

// New creates an empty in-memory store. The auto-import watermark starts
// at report number one.
func New() *Store {
	return &Store{
		reports: make(map[int]report.Report),
		nextNum: 1,
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ReportExists reports whether a report with the given id is stored.
func (s *Store) ReportExists(ctx context.Context, id int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.reports[id]
	return ok, nil
}

// AddReport stores a new report. The existence check and the insert
// happen under one lock, so concurrent inserts for the same id cannot
// both succeed.
func (s *Store) AddReport(ctx context.Context, r report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.ID]; ok {
		return internalerr.ErrReportExists
	}
	s.reports[r.ID] = copyReport(r)
	s.lastUpdated = time.Now().UTC()
	return nil
}

// GetReport returns a stored report by id.
func (s *Store) GetReport(ctx context.Context, id int) (report.Report, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return report.Report{}, false, nil
	}
	return copyReport(r), true, nil
}

// FindReports returns every stored report matching the filters, ordered
// by report id.
func (s *Store) FindReports(ctx context.Context, f search.Filters) ([]report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []report.Report
	for _, r := range s.reports {
		if f.Matches(r) {
			out = append(out, copyReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ReportCount returns the number of stored reports.
func (s *Store) ReportCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports), nil
}

// AllAliases returns a snapshot copy of the alias table.
func (s *Store) AllAliases(ctx context.Context) ([]alias.Alias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]alias.Alias, len(s.aliases))
	copy(out, s.aliases)
	return out, nil
}

// AddAliases appends alias entries for the given object id.
func (s *Store) AddAliases(ctx context.Context, objectID string, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		s.aliases = append(s.aliases, alias.Alias{Name: name, ObjectID: objectID})
	}
	return nil
}

// NextReportNumber returns the auto-import watermark.
func (s *Store) NextReportNumber(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextNum, nil
}

// SetNextReportNumber sets the auto-import watermark.
func (s *Store) SetNextReportNumber(ctx context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextNum = n
	return nil
}

// LastUpdated returns the time the store last accepted a report.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated, nil
}

func copyReport(r report.Report) report.Report {
	out := r
	out.ReferencedReports = append([]int(nil), r.ReferencedReports...)
	out.ReferencedBy = append([]int(nil), r.ReferencedBy...)
	out.ObservationDates = append([]time.Time(nil), r.ObservationDates...)
	out.Keywords = append([]string(nil), r.Keywords...)
	out.Objects = append([]string(nil), r.Objects...)
	out.Coordinates = append([]report.Coordinate(nil), r.Coordinates...)
	return out
}
