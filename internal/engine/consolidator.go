package engine

import (
	"sort"
	"time"

	"tickstore/internal/domain"
)

// Consolidate merges per-file tick tables for one symbol into a single
// series sorted ascending by timestamp with no duplicate timestamps.
//
// Individual tables are assumed internally sorted but inter-table order
// is not; the combined sequence is stable-sorted regardless. When
// several ticks share a timestamp the one from the latest table in
// input order wins: stable sort preserves input order among ties, and
// later tables come from more recently written files.
//
// Bounds are inclusive; nil means unbounded. An empty result is valid,
// never an error.
func Consolidate(tables []*domain.TickSeries, start, end *time.Time) *domain.TickSeries {
	out := &domain.TickSeries{}

	total := 0
	for _, tb := range tables {
		if tb == nil {
			continue
		}
		total += len(tb.Ticks)
		if out.Symbol == "" {
			out.Symbol = tb.Symbol
		}
		out.Columns = out.Columns.Merge(tb.Columns)
	}

	merged := make([]domain.Tick, 0, total)
	for _, tb := range tables {
		if tb != nil {
			merged = append(merged, tb.Ticks...)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	// Last-write-wins: keep only the final tick of each equal-timestamp run
	dst := 0
	for i := range merged {
		if i+1 < len(merged) && merged[i+1].Timestamp.Equal(merged[i].Timestamp) {
			continue
		}
		merged[dst] = merged[i]
		dst++
	}
	merged = merged[:dst]

	lo, hi := 0, len(merged)
	if start != nil {
		lo = sort.Search(len(merged), func(i int) bool {
			return !merged[i].Timestamp.Before(*start)
		})
	}
	if end != nil {
		hi = sort.Search(len(merged), func(i int) bool {
			return merged[i].Timestamp.After(*end)
		})
	}
	if lo > hi {
		lo = hi
	}

	out.Ticks = merged[lo:hi]
	return out
}
