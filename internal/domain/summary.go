package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange is the inclusive timestamp span of a dataset
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the span in calendar days between the start and end dates
func (r DateRange) Days() int {
	if r.Start.IsZero() || r.End.IsZero() {
		return 0
	}
	start := r.Start.UTC().Truncate(24 * time.Hour)
	end := r.End.UTC().Truncate(24 * time.Hour)
	return int(end.Sub(start) / (24 * time.Hour))
}

// SymbolSummary is a recomputable health report for one symbol's dataset.
// Spread statistics are nil when the source files carry no spread columns.
type SymbolSummary struct {
	Symbol         string    `json:"symbol"`
	FileCount      int       `json:"file_count"`
	TickCount      int       `json:"tick_count"`
	DateRange      DateRange `json:"date_range"`
	SpanDays       int       `json:"span_days"`
	TotalBytes     int64     `json:"total_bytes"`
	TickRatePerSec float64   `json:"tick_rate_per_sec"`

	AvgSpreadPoints    *decimal.Decimal `json:"avg_spread_points,omitempty"`
	MedianSpreadPoints *decimal.Decimal `json:"median_spread_points,omitempty"`
	AvgSpreadPct       *decimal.Decimal `json:"avg_spread_pct,omitempty"`

	Sessions map[string]int `json:"sessions,omitempty"` // Session-label frequency, if the column exists

	GeneratedAt time.Time `json:"generated_at"`
}

// SymbolReport wraps a summary or the reason it could not be produced.
// The reporter degrades per symbol instead of failing a whole mapping.
type SymbolReport struct {
	Summary *SymbolSummary `json:"summary,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// OK reports whether the report carries a summary
func (r *SymbolReport) OK() bool {
	return r != nil && r.Summary != nil && r.Error == ""
}
