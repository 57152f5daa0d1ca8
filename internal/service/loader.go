package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tickstore/internal/cache"
	"tickstore/internal/domain"
	"tickstore/internal/engine"
	"tickstore/internal/infra"
)

// SkippedFile records one file excluded from a load and why
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// LoadReport carries the diagnostics of one load call, so callers and
// tests can assert on which files were skipped instead of grepping logs
type LoadReport struct {
	Symbol    string        `json:"symbol"`
	Files     int           `json:"files"`   // Candidate files resolved
	Decoded   int           `json:"decoded"` // Files that decoded successfully
	Skipped   []SkippedFile `json:"skipped,omitempty"`
	FromCache bool          `json:"from_cache"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Loader orchestrates the load pipeline: file resolution, parallel
// decode, consolidation and caching
type Loader struct {
	index       domain.FileResolver
	reader      domain.TickReader
	cache       *cache.Cache
	concurrency int
	log         *slog.Logger
	metrics     *infra.Metrics
}

// NewLoader creates a loader. concurrency bounds parallel file decodes
// within one load call; values below 1 default to 4.
func NewLoader(index domain.FileResolver, reader domain.TickReader, c *cache.Cache, concurrency int, log *slog.Logger) *Loader {
	if concurrency < 1 {
		concurrency = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Loader{
		index:       index,
		reader:      reader,
		cache:       c,
		concurrency: concurrency,
		log:         log,
		metrics:     infra.GlobalMetrics,
	}
}

// Load returns the consolidated series for a symbol, optionally
// narrowed to an inclusive [start, end] range. With useCache the result
// is served from, and stored into, the keyed cache. The returned series
// is always the caller's to mutate.
func (l *Loader) Load(ctx context.Context, symbol string, start, end *time.Time, useCache bool) (*domain.TickSeries, *LoadReport, error) {
	began := time.Now()
	report := &LoadReport{Symbol: symbol}

	var series *domain.TickSeries
	var err error

	if useCache && l.cache != nil {
		executed := false
		series, err = l.cache.GetOrLoad(ctx, cache.NewKey(symbol, start, end), func(ctx context.Context) (*domain.TickSeries, error) {
			executed = true
			return l.loadDirect(ctx, symbol, start, end, report)
		})
		report.FromCache = !executed
	} else {
		series, err = l.loadDirect(ctx, symbol, start, end, report)
	}

	report.Elapsed = time.Since(began)
	if err != nil {
		return nil, report, err
	}

	l.metrics.RecordLoad(series.Len())
	l.log.Debug("load completed",
		slog.String("symbol", symbol),
		slog.Int("ticks", series.Len()),
		slog.Bool("from_cache", report.FromCache),
		slog.Duration("elapsed", report.Elapsed))

	return series, report, nil
}

// ClearCache evicts every cached series, regardless of key
func (l *Loader) ClearCache() {
	if l.cache != nil {
		l.cache.Clear()
	}
}

// loadDirect runs the uncached pipeline. Files that fail to decode are
// skipped with a diagnostic; the load fails with NoDataError only when
// no file decodes at all.
func (l *Loader) loadDirect(ctx context.Context, symbol string, start, end *time.Time, report *LoadReport) (*domain.TickSeries, error) {
	handles, err := l.index.Resolve(symbol)
	if err != nil {
		return nil, err
	}
	report.Files = len(handles)

	if len(handles) == 0 {
		return nil, &domain.NoDataError{Symbol: symbol}
	}

	// Parallel decode into per-file slots keeps the merge input order
	// identical to the handle order, so last-write-wins stays stable.
	tables := make([]*domain.TickSeries, len(handles))
	skips := make([]*SkippedFile, len(handles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, h := range handles {
		i, h := i, h
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			began := time.Now()
			s, derr := l.reader.Decode(h.Path)
			if derr != nil {
				if !domain.IsRecoverable(derr) {
					return derr
				}
				l.metrics.RecordDecodeFailure()
				l.log.Warn("skipping undecodable file",
					slog.String("symbol", symbol),
					slog.String("file", h.Path),
					slog.Any("error", derr))
				skips[i] = &SkippedFile{Path: h.Path, Reason: derr.Error()}
				return nil
			}

			l.metrics.RecordDecode(time.Since(began).Nanoseconds())
			tables[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	decoded := make([]*domain.TickSeries, 0, len(tables))
	for i, tb := range tables {
		if tb != nil {
			decoded = append(decoded, tb)
		} else if skips[i] != nil {
			report.Skipped = append(report.Skipped, *skips[i])
		}
	}
	report.Decoded = len(decoded)

	if len(decoded) == 0 {
		return nil, &domain.NoDataError{Symbol: symbol}
	}

	series := engine.Consolidate(decoded, start, end)
	series.Symbol = symbol
	return series, nil
}
