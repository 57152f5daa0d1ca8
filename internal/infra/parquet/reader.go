package parquet

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"tickstore/internal/domain"
)

// tickRow is the on-disk columnar schema. Only timestamp, bid and ask
// are required; the rest degrade gracefully when a file lacks them.
type tickRow struct {
	Timestamp    int64    `parquet:"timestamp"` // Microseconds since epoch, UTC
	Bid          float64  `parquet:"bid"`
	Ask          float64  `parquet:"ask"`
	Volume       *float64 `parquet:"volume,optional"`
	SpreadPoints *float64 `parquet:"spread_points,optional"`
	SpreadPct    *float64 `parquet:"spread_pct,optional"`
	Session      *string  `parquet:"session,optional"`
}

// Reader decodes one partitioned tick file into an in-memory series
type Reader struct {
	log *slog.Logger
}

// NewReader creates a parquet tick file reader
func NewReader(log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{log: log}
}

// Decode reads a tick file. It fails with DecodeError on malformed
// content and never partially succeeds.
func (r *Reader) Decode(path string) (*domain.TickSeries, error) {
	rows, err := parquet.ReadFile[tickRow](path)
	if err != nil {
		return nil, domain.NewDecodeError(path, err)
	}

	symbol := symbolFromPath(path)
	series := domain.NewTickSeries(symbol)
	series.Ticks = make([]domain.Tick, 0, len(rows))

	for _, row := range rows {
		tick := domain.Tick{
			Timestamp: time.UnixMicro(row.Timestamp).UTC(),
			Symbol:    symbol,
			Bid:       row.Bid,
			Ask:       row.Ask,
		}
		if row.Volume != nil {
			tick.Volume = *row.Volume
			series.Columns.Volume = true
		}
		if row.SpreadPoints != nil {
			tick.SpreadPoints = *row.SpreadPoints
			series.Columns.SpreadPoints = true
		}
		if row.SpreadPct != nil {
			tick.SpreadPct = *row.SpreadPct
			series.Columns.SpreadPct = true
		}
		if row.Session != nil {
			tick.Session = *row.Session
			series.Columns.Session = true
		}
		series.Ticks = append(series.Ticks, tick)
	}

	r.log.Debug("decoded tick file",
		slog.String("file", filepath.Base(path)),
		slog.Int("ticks", series.Len()))

	return series, nil
}

// WriteSeries writes a series to a tick file. Used by fixtures and the
// import tooling; the loader itself never writes.
func WriteSeries(path string, s *domain.TickSeries) error {
	rows := make([]tickRow, 0, s.Len())
	for i := range s.Ticks {
		t := &s.Ticks[i]
		row := tickRow{
			Timestamp: t.Timestamp.UTC().UnixMicro(),
			Bid:       t.Bid,
			Ask:       t.Ask,
		}
		if s.Columns.Volume {
			v := t.Volume
			row.Volume = &v
		}
		if s.Columns.SpreadPoints {
			v := t.SpreadPoints
			row.SpreadPoints = &v
		}
		if s.Columns.SpreadPct {
			v := t.SpreadPct
			row.SpreadPct = &v
		}
		if s.Columns.Session {
			v := t.Session
			row.Session = &v
		}
		rows = append(rows, row)
	}

	return parquet.WriteFile(path, rows)
}

// symbolFromPath derives the symbol from the filename's leading token
func symbolFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.Index(stem, "_"); idx > 0 {
		return stem[:idx]
	}
	return stem
}
