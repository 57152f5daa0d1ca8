package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tickstore/internal/domain"
	"tickstore/internal/engine"
)

// Catalog produces dataset health reports. It always re-resolves and
// re-consolidates, bypassing the cache: this is a diagnostic pass, not
// a hot path, and it must see the directory as it is right now.
type Catalog struct {
	index       domain.FileResolver
	reader      domain.TickReader
	store       domain.CatalogStore // Optional ledger; nil disables persistence
	concurrency int
	log         *slog.Logger
}

// NewCatalog creates a catalog reporter. store may be nil.
func NewCatalog(index domain.FileResolver, reader domain.TickReader, store domain.CatalogStore, concurrency int, log *slog.Logger) *Catalog {
	if concurrency < 1 {
		concurrency = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{
		index:       index,
		reader:      reader,
		store:       store,
		concurrency: concurrency,
		log:         log,
	}
}

// ListSymbols returns every symbol with at least one well-named data file
func (c *Catalog) ListSymbols() ([]string, error) {
	return c.index.ListSymbols()
}

// Describe summarizes one symbol's dataset. Data absence becomes an
// error payload, never a returned error: this surface is meant to
// degrade gracefully for reporting consumers.
func (c *Catalog) Describe(ctx context.Context, symbol string) *domain.SymbolReport {
	summary, err := c.describe(ctx, symbol)
	if err != nil {
		c.log.Warn("describe failed", slog.String("symbol", symbol), slog.Any("error", err))
		return &domain.SymbolReport{Error: err.Error()}
	}

	if c.store != nil {
		rec := &domain.SymbolRecord{
			Symbol:         summary.Symbol,
			FileCount:      summary.FileCount,
			TickCount:      summary.TickCount,
			TotalBytes:     summary.TotalBytes,
			FirstTick:      summary.DateRange.Start,
			LastTick:       summary.DateRange.End,
			TickRatePerSec: summary.TickRatePerSec,
			DescribedAt:    summary.GeneratedAt,
		}
		if serr := c.store.UpsertSymbol(rec); serr != nil {
			c.log.Error("failed to persist symbol record", slog.String("symbol", symbol), slog.Any("error", serr))
		}
	}

	return &domain.SymbolReport{Summary: summary}
}

// DescribeAll summarizes every known symbol. Symbols are independent,
// so the fan-out is parallel; a failed symbol occupies its slot with an
// error payload and never fails the mapping.
func (c *Catalog) DescribeAll(ctx context.Context) (map[string]*domain.SymbolReport, error) {
	symbols, err := c.ListSymbols()
	if err != nil {
		return nil, err
	}

	reports := make(map[string]*domain.SymbolReport, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			report := c.Describe(gctx, symbol)
			mu.Lock()
			reports[symbol] = report
			mu.Unlock()
			return nil
		})
	}
	g.Wait() // Per-symbol failures are payloads; nothing to propagate

	if c.store != nil {
		if serr := c.store.SaveMeta("last_summary_at", time.Now().UTC().Format(time.RFC3339)); serr != nil {
			c.log.Error("failed to persist summary timestamp", slog.Any("error", serr))
		}
	}

	return reports, nil
}

func (c *Catalog) describe(ctx context.Context, symbol string) (*domain.SymbolSummary, error) {
	handles, err := c.index.Resolve(symbol)
	if err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, &domain.NoDataError{Symbol: symbol}
	}

	var totalBytes int64
	tables := make([]*domain.TickSeries, 0, len(handles))
	for _, h := range handles {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		s, derr := c.reader.Decode(h.Path)
		if derr != nil {
			if !domain.IsRecoverable(derr) {
				return nil, derr
			}
			c.log.Warn("skipping undecodable file",
				slog.String("symbol", symbol),
				slog.String("file", h.Path),
				slog.Any("error", derr))
			continue
		}
		tables = append(tables, s)
		totalBytes += h.Size
	}
	if len(tables) == 0 {
		return nil, &domain.NoDataError{Symbol: symbol}
	}

	series := engine.Consolidate(tables, nil, nil)

	summary := &domain.SymbolSummary{
		Symbol:      symbol,
		FileCount:   len(handles),
		TickCount:   series.Len(),
		TotalBytes:  totalBytes,
		GeneratedAt: time.Now().UTC(),
	}
	if series.IsEmpty() {
		return summary, nil
	}

	summary.DateRange = domain.DateRange{Start: series.Start(), End: series.End()}
	summary.SpanDays = summary.DateRange.Days()

	if elapsed := series.End().Sub(series.Start()).Seconds(); elapsed > 0 {
		summary.TickRatePerSec = float64(series.Len()) / elapsed
	}

	c.spreadStats(series, summary)

	if series.Columns.Session {
		sessions := make(map[string]int)
		for i := range series.Ticks {
			if label := series.Ticks[i].Session; label != "" {
				sessions[label]++
			}
		}
		summary.Sessions = sessions
	}

	return summary, nil
}

// spreadStats fills the optional spread statistics; they stay nil when
// the source files carry no spread columns
func (c *Catalog) spreadStats(series *domain.TickSeries, summary *domain.SymbolSummary) {
	if series.Columns.SpreadPoints {
		points := make([]float64, series.Len())
		for i := range series.Ticks {
			points[i] = series.Ticks[i].SpreadPoints
		}
		if mean, err := stats.Mean(points); err == nil {
			d := decimal.NewFromFloat(mean)
			summary.AvgSpreadPoints = &d
		}
		if median, err := stats.Median(points); err == nil {
			d := decimal.NewFromFloat(median)
			summary.MedianSpreadPoints = &d
		}
	}

	if series.Columns.SpreadPct {
		pcts := make([]float64, series.Len())
		for i := range series.Ticks {
			pcts[i] = series.Ticks[i].SpreadPct
		}
		if mean, err := stats.Mean(pcts); err == nil {
			d := decimal.NewFromFloat(mean)
			summary.AvgSpreadPct = &d
		}
	}
}
