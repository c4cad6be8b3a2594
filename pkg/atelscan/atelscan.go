// Package atelscan is the main facade over the bulletin extraction
// pipeline: it wires the fetcher, the assembler and the store into the
// import and search flows.
package atelscan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/astrocat/atelscan/pkg/atelscan/alias"
	"github.com/astrocat/atelscan/pkg/atelscan/assemble"
	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
	"github.com/astrocat/atelscan/pkg/atelscan/report"
	"github.com/astrocat/atelscan/pkg/atelscan/search"
	"github.com/astrocat/atelscan/pkg/atelscan/store"
)

// Fetcher downloads the rendered page for one bulletin number.
type Fetcher interface {
	Download(ctx context.Context, id int) (string, error)
}

// Engine coordinates imports and searches.
type Engine struct {
	store   store.Store
	fetcher Fetcher
	asm     *assemble.Assembler
	log     *slog.Logger
}

// Options configures an Engine.
type Options struct {
	Store   store.Store
	Fetcher Fetcher
	Logger  *slog.Logger
}

// New creates an Engine with the given dependencies.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:   opts.Store,
		fetcher: opts.Fetcher,
		asm:     assemble.New(log),
		log:     log,
	}
}

// Close cleanly shuts down the engine.
func (e *Engine) Close() error {
	return e.store.Close()
}

// ImportReport downloads, extracts and stores one bulletin. Expected
// outcomes surface as internalerr sentinels: ErrReportExists when the id
// is already stored and ErrReportNotFound when the source declares the
// number unknown. Retrieval errors propagate unchanged.
func (e *Engine) ImportReport(ctx context.Context, id int) error {
	aliases, err := e.store.AllAliases(ctx)
	if err != nil {
		return err
	}
	return e.importOne(ctx, id, alias.NewSnapshot(aliases))
}

func (e *Engine) importOne(ctx context.Context, id int, snap *alias.Snapshot) error {
	exists, err := e.store.ReportExists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return internalerr.ErrReportExists
	}

	page, err := e.fetcher.Download(ctx, id)
	if err != nil {
		return err
	}

	rep, err := e.asm.Assemble(id, page, snap)
	if err != nil {
		return err
	}

	return e.store.AddReport(ctx, rep)
}

// Summary describes the outcome of one auto-import batch.
type Summary struct {
	// Batch identifies the run in logs.
	Batch string
	// Imported counts newly stored reports.
	Imported int
	// Skipped counts reports that were already stored.
	Skipped int
	// Failed counts documents whose extraction failed; the batch
	// continues past them.
	Failed int
	// Next is the watermark the next batch will resume from.
	Next int
}

// ImportAll imports every new bulletin starting from the stored
// watermark. The batch stops at the first number the source does not
// know, records that number as the next watermark and returns. A single
// malformed document aborts only its own extraction; retrieval errors
// abort the batch after the watermark is recorded, so a rerun resumes at
// the failed number.
func (e *Engine) ImportAll(ctx context.Context) (Summary, error) {
	sum := Summary{Batch: ulid.Make().String()}
	log := e.log.With(slog.String("batch", sum.Batch))

	aliases, err := e.store.AllAliases(ctx)
	if err != nil {
		return sum, err
	}
	snap := alias.NewSnapshot(aliases)

	num, err := e.store.NextReportNumber(ctx)
	if err != nil {
		return sum, err
	}
	log.Info("auto import starting", slog.Int("from", num), slog.Int("aliases", snap.Len()))

	for ; ; num++ {
		if err := ctx.Err(); err != nil {
			sum.Next = num
			e.recordWatermark(ctx, log, num)
			return sum, err
		}

		err := e.importOne(ctx, num, snap)
		switch {
		case err == nil:
			sum.Imported++
		case errors.Is(err, internalerr.ErrReportExists):
			sum.Skipped++
		case errors.Is(err, internalerr.ErrReportNotFound):
			sum.Next = num
			if err := e.store.SetNextReportNumber(ctx, num); err != nil {
				return sum, err
			}
			log.Info("auto import finished",
				slog.Int("imported", sum.Imported),
				slog.Int("skipped", sum.Skipped),
				slog.Int("failed", sum.Failed),
				slog.Int("next", sum.Next))
			return sum, nil
		case internalerr.IsMissingElement(err):
			sum.Failed++
			log.Warn("skipping malformed report", slog.Int("report", num), slog.Any("err", err))
		default:
			sum.Next = num
			e.recordWatermark(ctx, log, num)
			return sum, err
		}
	}
}

func (e *Engine) recordWatermark(ctx context.Context, log *slog.Logger, num int) {
	// Best effort; the import error is the one the caller needs to see.
	if err := e.store.SetNextReportNumber(context.WithoutCancel(ctx), num); err != nil {
		log.Error("recording import watermark", slog.Int("next", num), slog.Any("err", err))
	}
}

// Search returns the stored reports matching the filters.
func (e *Engine) Search(ctx context.Context, f search.Filters) ([]report.Report, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return e.store.FindReports(ctx, f)
}

// Metadata describes the state of the catalog.
type Metadata struct {
	LastUpdated time.Time
	ReportCount int
}

// Metadata returns when the catalog last changed and how many reports it
// holds.
func (e *Engine) Metadata(ctx context.Context) (Metadata, error) {
	updated, err := e.store.LastUpdated(ctx)
	if err != nil {
		return Metadata{}, err
	}
	count, err := e.store.ReportCount(ctx)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{LastUpdated: updated, ReportCount: count}, nil
}
