package domain

import "time"

// Tick represents a single bid/ask quote observation at an instant
type Tick struct {
	Timestamp time.Time `json:"timestamp"` // Quote time (UTC)
	Symbol    string    `json:"symbol"`    // Instrument symbol (e.g., "EURUSD")
	Bid       float64   `json:"bid"`       // Best bid price
	Ask       float64   `json:"ask"`       // Best ask price
	Volume    float64   `json:"volume"`    // Traded volume, 0 when the source has none

	// Optional columns; meaningful only when the owning series flags them present
	SpreadPoints float64 `json:"spread_points,omitempty"`
	SpreadPct    float64 `json:"spread_pct,omitempty"`
	Session      string  `json:"session,omitempty"`
}

// Mid returns the mid price: (bid + ask) / 2
func (t *Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// Columns tracks which optional source columns were present in the
// decoded files. Statistics degrade to absent when a column is missing.
type Columns struct {
	Volume       bool `json:"volume"`
	SpreadPoints bool `json:"spread_points"`
	SpreadPct    bool `json:"spread_pct"`
	Session      bool `json:"session"`
}

// Merge returns the union of two column sets
func (c Columns) Merge(other Columns) Columns {
	return Columns{
		Volume:       c.Volume || other.Volume,
		SpreadPoints: c.SpreadPoints || other.SpreadPoints,
		SpreadPct:    c.SpreadPct || other.SpreadPct,
		Session:      c.Session || other.Session,
	}
}

// TickSeries is an ordered sequence of ticks for exactly one symbol.
// After consolidation it is strictly increasing by timestamp with no
// duplicate timestamps.
type TickSeries struct {
	Symbol  string  `json:"symbol"`
	Ticks   []Tick  `json:"ticks"`
	Columns Columns `json:"columns"`
}

// NewTickSeries creates an empty series for a symbol
func NewTickSeries(symbol string) *TickSeries {
	return &TickSeries{Symbol: symbol}
}

// Len returns the number of ticks in the series
func (s *TickSeries) Len() int {
	return len(s.Ticks)
}

// IsEmpty reports whether the series holds no ticks
func (s *TickSeries) IsEmpty() bool {
	return len(s.Ticks) == 0
}

// Start returns the timestamp of the first tick (zero time when empty)
func (s *TickSeries) Start() time.Time {
	if len(s.Ticks) == 0 {
		return time.Time{}
	}
	return s.Ticks[0].Timestamp
}

// End returns the timestamp of the last tick (zero time when empty)
func (s *TickSeries) End() time.Time {
	if len(s.Ticks) == 0 {
		return time.Time{}
	}
	return s.Ticks[len(s.Ticks)-1].Timestamp
}

// Clone returns a deep copy. Ticks hold only value fields, so copying
// the backing slice is enough to sever all aliasing with the original.
func (s *TickSeries) Clone() *TickSeries {
	if s == nil {
		return nil
	}
	out := &TickSeries{Symbol: s.Symbol, Columns: s.Columns}
	if s.Ticks != nil {
		out.Ticks = make([]Tick, len(s.Ticks))
		copy(out.Ticks, s.Ticks)
	}
	return out
}

// FileHandle identifies one partitioned data file backing a symbol
type FileHandle struct {
	Path         string `json:"path"`          // Absolute or dir-relative path
	Symbol       string `json:"symbol"`        // Leading filename token
	PartitionKey string `json:"partition_key"` // Chronological suffix (e.g., "20240101_000000")
	Size         int64  `json:"size"`          // On-disk bytes
}
