// Package sqlite implements store.Store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/astrocat/atelscan/pkg/atelscan/alias"
	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
	"github.com/astrocat/atelscan/pkg/atelscan/report"
	"github.com/astrocat/atelscan/pkg/atelscan/search"
	"github.com/astrocat/atelscan/pkg/atelscan/store"
)

type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS reports (
	num INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	authors TEXT NOT NULL,
	body TEXT NOT NULL,
	submitted_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS report_refs (
	num INTEGER NOT NULL,
	ref INTEGER NOT NULL,
	direction TEXT NOT NULL CHECK(direction IN ('out', 'in')),
	position INTEGER NOT NULL,
	PRIMARY KEY(num, ref, direction),
	FOREIGN KEY(num) REFERENCES reports(num) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS report_dates (
	num INTEGER NOT NULL,
	observed_at TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY(num, observed_at),
	FOREIGN KEY(num) REFERENCES reports(num) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS report_keywords (
	num INTEGER NOT NULL,
	keyword TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY(num, keyword),
	FOREIGN KEY(num) REFERENCES reports(num) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS report_objects (
	num INTEGER NOT NULL,
	object_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY(num, object_id),
	FOREIGN KEY(num) REFERENCES reports(num) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS aliases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	object_id TEXT NOT NULL,
	UNIQUE(name, object_id)
);

CREATE TABLE IF NOT EXISTS metadata (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	next_num INTEGER NOT NULL,
	last_updated TEXT
);

INSERT OR IGNORE INTO metadata (id, next_num, last_updated) VALUES (1, 1, NULL);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// ReportExists reports whether a report with the given id is stored.
func (s *sqliteStore) ReportExists(ctx context.Context, id int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE num=?`, id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddReport inserts a new report in one transaction. The primary-key
// constraint makes the check-then-insert atomic: a concurrent insert for
// the same id leaves exactly one winner, the loser gets ErrReportExists.
func (s *sqliteStore) AddReport(ctx context.Context, r report.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO reports (num, title, authors, body, submitted_at)
VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Authors, r.Body, r.SubmissionTime.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if inserted == 0 {
		return internalerr.ErrReportExists
	}

	for i, ref := range r.ReferencedReports {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_refs (num, ref, direction, position) VALUES (?, ?, 'out', ?)`,
			r.ID, ref, i); err != nil {
			return err
		}
	}
	for i, ref := range r.ReferencedBy {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_refs (num, ref, direction, position) VALUES (?, ?, 'in', ?)`,
			r.ID, ref, i); err != nil {
			return err
		}
	}
	for i, ts := range r.ObservationDates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_dates (num, observed_at, position) VALUES (?, ?, ?)`,
			r.ID, ts.UTC().Format(time.RFC3339), i); err != nil {
			return err
		}
	}
	for i, kw := range r.Keywords {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_keywords (num, keyword, position) VALUES (?, ?, ?)`,
			r.ID, kw, i); err != nil {
			return err
		}
	}
	for i, obj := range r.Objects {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_objects (num, object_id, position) VALUES (?, ?, ?)`,
			r.ID, obj, i); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE metadata SET last_updated=? WHERE id=1`,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}

// GetReport loads one report with all of its side tables.
func (s *sqliteStore) GetReport(ctx context.Context, id int) (report.Report, bool, error) {
	var r report.Report
	var submitted string
	err := s.db.QueryRowContext(ctx,
		`SELECT num, title, authors, body, submitted_at FROM reports WHERE num=?`, id).
		Scan(&r.ID, &r.Title, &r.Authors, &r.Body, &submitted)
	if err == sql.ErrNoRows {
		return report.Report{}, false, nil
	}
	if err != nil {
		return report.Report{}, false, err
	}

	r.SubmissionTime, err = time.Parse(time.RFC3339, submitted)
	if err != nil {
		return report.Report{}, false, err
	}

	if err := s.loadRelations(ctx, &r); err != nil {
		return report.Report{}, false, err
	}
	return r, true, nil
}

func (s *sqliteStore) loadRelations(ctx context.Context, r *report.Report) error {
	refs := func(direction string) ([]int, error) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT ref FROM report_refs WHERE num=? AND direction=? ORDER BY position`,
			r.ID, direction)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []int
		for rows.Next() {
			var ref int
			if err := rows.Scan(&ref); err != nil {
				return nil, err
			}
			out = append(out, ref)
		}
		return out, rows.Err()
	}

	var err error
	if r.ReferencedReports, err = refs("out"); err != nil {
		return err
	}
	if r.ReferencedBy, err = refs("in"); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT observed_at FROM report_dates WHERE num=? ORDER BY position`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return err
		}
		r.ObservationDates = append(r.ObservationDates, ts)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if r.Keywords, err = s.stringColumn(ctx,
		`SELECT keyword FROM report_keywords WHERE num=? ORDER BY position`, r.ID); err != nil {
		return err
	}
	if r.Objects, err = s.stringColumn(ctx,
		`SELECT object_id FROM report_objects WHERE num=? ORDER BY position`, r.ID); err != nil {
		return err
	}
	return nil
}

func (s *sqliteStore) stringColumn(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// FindReports loads candidates inside the submission-date range and
// evaluates the remaining filters in Go, so the matching semantics are
// shared with every other store implementation.
func (s *sqliteStore) FindReports(ctx context.Context, f search.Filters) ([]report.Report, error) {
	query := `SELECT num FROM reports`
	var (
		conds []string
		args  []any
	)
	if !f.StartDate.IsZero() {
		conds = append(conds, `submitted_at >= ?`)
		args = append(args, f.StartDate.UTC().Format(time.RFC3339))
	}
	if !f.EndDate.IsZero() {
		conds = append(conds, `submitted_at <= ?`)
		args = append(args, f.EndDate.UTC().Format(time.RFC3339))
	}
	for i, cond := range conds {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY num`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nums []int
	for rows.Next() {
		var num int
		if err := rows.Scan(&num); err != nil {
			return nil, err
		}
		nums = append(nums, num)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []report.Report
	for _, num := range nums {
		r, ok, err := s.GetReport(ctx, num)
		if err != nil {
			return nil, err
		}
		if ok && f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ReportCount returns the number of stored reports.
func (s *sqliteStore) ReportCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&count)
	return count, err
}

// AllAliases returns the alias table in insertion order.
func (s *sqliteStore) AllAliases(ctx context.Context) ([]alias.Alias, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, object_id FROM aliases ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alias.Alias
	for rows.Next() {
		var a alias.Alias
		if err := rows.Scan(&a.Name, &a.ObjectID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddAliases stores alias entries for the given object id. Entries
// already present are ignored.
func (s *sqliteStore) AddAliases(ctx context.Context, objectID string, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO aliases (name, object_id) VALUES (?, ?)`,
			name, objectID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// NextReportNumber returns the auto-import watermark.
func (s *sqliteStore) NextReportNumber(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT next_num FROM metadata WHERE id=1`).Scan(&n)
	return n, err
}

// SetNextReportNumber sets the auto-import watermark.
func (s *sqliteStore) SetNextReportNumber(ctx context.Context, n int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE metadata SET next_num=? WHERE id=1`, n)
	return err
}

// LastUpdated returns the time the store last accepted a report, or the
// zero time if it never has.
func (s *sqliteStore) LastUpdated(ctx context.Context) (time.Time, error) {
	var raw sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT last_updated FROM metadata WHERE id=1`).Scan(&raw); err != nil {
		return time.Time{}, err
	}
	if !raw.Valid || raw.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw.String)
}
