package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tickstore/internal/cache"
	"tickstore/internal/domain"
	"tickstore/internal/infra"
	"tickstore/internal/infra/fsindex"
	"tickstore/internal/infra/parquet"
)

// fakeIndex serves canned handles without touching the filesystem
type fakeIndex struct {
	handles map[string][]domain.FileHandle
	symbols []string
}

func (f *fakeIndex) Resolve(symbol string) ([]domain.FileHandle, error) {
	return f.handles[symbol], nil
}

func (f *fakeIndex) ListSymbols() ([]string, error) {
	return f.symbols, nil
}

// fakeReader counts decode calls so tests can assert cache hits do no I/O
type fakeReader struct {
	mu    sync.Mutex
	calls int
	files map[string]*domain.TickSeries
	fail  map[string]bool
}

func (f *fakeReader) Decode(path string) (*domain.TickSeries, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.fail[path] {
		return nil, domain.NewDecodeError(path, errors.New("corrupt file"))
	}
	s, ok := f.files[path]
	if !ok {
		return nil, domain.NewDecodeError(path, errors.New("not found"))
	}
	return s.Clone(), nil
}

func (f *fakeReader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func tickAt(sec int, bid float64) domain.Tick {
	return domain.Tick{
		Timestamp: time.Date(2024, 1, 1, 9, 0, sec, 0, time.UTC),
		Symbol:    "EURUSD",
		Bid:       bid,
		Ask:       bid + 0.0002,
	}
}

func scenarioFixtures() (*fakeIndex, *fakeReader) {
	index := &fakeIndex{
		handles: map[string][]domain.FileHandle{
			"EURUSD": {
				{Path: "EURUSD_20240101_000000.parquet", Symbol: "EURUSD", PartitionKey: "20240101_000000", Size: 100},
				{Path: "EURUSD_20240101_010000.parquet", Symbol: "EURUSD", PartitionKey: "20240101_010000", Size: 100},
			},
		},
		symbols: []string{"EURUSD"},
	}
	reader := &fakeReader{
		files: map[string]*domain.TickSeries{
			"EURUSD_20240101_000000.parquet": {
				Symbol: "EURUSD",
				Ticks:  []domain.Tick{tickAt(0, 1.1000), tickAt(5, 1.1002)},
			},
			"EURUSD_20240101_010000.parquet": {
				Symbol: "EURUSD",
				Ticks:  []domain.Tick{tickAt(5, 1.1003), tickAt(10, 1.1005)},
			},
		},
		fail: map[string]bool{},
	}
	return index, reader
}

func TestLoad_ConsolidatesAcrossPartitions(t *testing.T) {
	index, reader := scenarioFixtures()
	loader := NewLoader(index, reader, cache.New(&infra.Metrics{}), 2, nil)

	series, report, err := loader.Load(context.Background(), "EURUSD", nil, nil, true)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if series.Len() != 3 {
		t.Fatalf("expected 3 ticks, got %d", series.Len())
	}
	wantBids := []float64{1.1000, 1.1003, 1.1005} // 09:00:05 comes from the later partition
	for i, want := range wantBids {
		if series.Ticks[i].Bid != want {
			t.Errorf("tick %d: bid = %v, want %v", i, series.Ticks[i].Bid, want)
		}
	}

	if report.Files != 2 || report.Decoded != 2 || len(report.Skipped) != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.FromCache {
		t.Error("first load cannot come from cache")
	}
}

func TestLoad_CachedSecondCallDoesNoIO(t *testing.T) {
	index, reader := scenarioFixtures()
	loader := NewLoader(index, reader, cache.New(&infra.Metrics{}), 2, nil)

	first, _, err := loader.Load(context.Background(), "EURUSD", nil, nil, true)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	callsAfterFirst := reader.callCount()

	second, report, err := loader.Load(context.Background(), "EURUSD", nil, nil, true)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	if reader.callCount() != callsAfterFirst {
		t.Errorf("cache hit performed file I/O: %d -> %d decodes", callsAfterFirst, reader.callCount())
	}
	if !report.FromCache {
		t.Error("second load should report a cache hit")
	}
	if second.Len() != first.Len() {
		t.Errorf("hit returned %d ticks, want %d", second.Len(), first.Len())
	}
	for i := range first.Ticks {
		if first.Ticks[i] != second.Ticks[i] {
			t.Errorf("tick %d differs between loads", i)
		}
	}
}

func TestLoad_CacheIsolation(t *testing.T) {
	index, reader := scenarioFixtures()
	loader := NewLoader(index, reader, cache.New(&infra.Metrics{}), 2, nil)

	series, _, err := loader.Load(context.Background(), "EURUSD", nil, nil, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	series.Ticks[0].Bid = -99

	again, _, err := loader.Load(context.Background(), "EURUSD", nil, nil, true)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Ticks[0].Bid != 1.1000 {
		t.Errorf("cached series corrupted by caller mutation: bid = %v", again.Ticks[0].Bid)
	}
}

func TestLoad_RangeNarrowing(t *testing.T) {
	index, reader := scenarioFixtures()
	loader := NewLoader(index, reader, cache.New(&infra.Metrics{}), 2, nil)

	start := time.Date(2024, 1, 1, 9, 0, 5, 0, time.UTC)
	end := time.Date(2024, 1, 1, 9, 0, 10, 0, time.UTC)

	series, _, err := loader.Load(context.Background(), "EURUSD", &start, &end, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected 2 ticks in range, got %d", series.Len())
	}
	for _, tick := range series.Ticks {
		if tick.Timestamp.Before(start) || tick.Timestamp.After(end) {
			t.Errorf("tick %v outside [%v, %v]", tick.Timestamp, start, end)
		}
	}

	t.Run("Empty Intersection Is Not An Error", func(t *testing.T) {
		farStart := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		series, _, err := loader.Load(context.Background(), "EURUSD", &farStart, nil, true)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if !series.IsEmpty() {
			t.Errorf("expected empty series, got %d ticks", series.Len())
		}
	})

	t.Run("Distinct Keys For Bounded And Unbounded", func(t *testing.T) {
		c := cache.New(&infra.Metrics{})
		loader := NewLoader(index, reader, c, 2, nil)

		loader.Load(context.Background(), "EURUSD", nil, nil, true)
		loader.Load(context.Background(), "EURUSD", &start, &end, true)
		if c.Len() != 2 {
			t.Errorf("expected 2 cache entries, got %d", c.Len())
		}
	})
}

func TestLoad_SkipsUndecodableFiles(t *testing.T) {
	index, reader := scenarioFixtures()
	reader.fail["EURUSD_20240101_000000.parquet"] = true
	loader := NewLoader(index, reader, cache.New(&infra.Metrics{}), 2, nil)

	series, report, err := loader.Load(context.Background(), "EURUSD", nil, nil, true)
	if err != nil {
		t.Fatalf("load should tolerate one bad file: %v", err)
	}

	if series.Len() != 2 {
		t.Errorf("expected 2 ticks from the surviving file, got %d", series.Len())
	}
	if report.Decoded != 1 || len(report.Skipped) != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.Skipped[0].Path != "EURUSD_20240101_000000.parquet" {
		t.Errorf("wrong file reported skipped: %s", report.Skipped[0].Path)
	}
}

func TestLoad_NoDataErrors(t *testing.T) {
	t.Run("No Files Resolve", func(t *testing.T) {
		index, reader := scenarioFixtures()
		loader := NewLoader(index, reader, cache.New(&infra.Metrics{}), 2, nil)

		_, _, err := loader.Load(context.Background(), "XAUUSD", nil, nil, true)
		if !errors.Is(err, domain.ErrNoData) {
			t.Errorf("expected ErrNoData, got %v", err)
		}
	})

	t.Run("Every File Fails To Decode", func(t *testing.T) {
		index, reader := scenarioFixtures()
		reader.fail["EURUSD_20240101_000000.parquet"] = true
		reader.fail["EURUSD_20240101_010000.parquet"] = true
		loader := NewLoader(index, reader, cache.New(&infra.Metrics{}), 2, nil)

		_, report, err := loader.Load(context.Background(), "EURUSD", nil, nil, true)
		if !errors.Is(err, domain.ErrNoData) {
			t.Errorf("expected ErrNoData, got %v", err)
		}
		if len(report.Skipped) != 2 {
			t.Errorf("expected both files reported skipped, got %+v", report.Skipped)
		}
	})
}

func TestLoad_BypassingCache(t *testing.T) {
	index, reader := scenarioFixtures()
	c := cache.New(&infra.Metrics{})
	loader := NewLoader(index, reader, c, 2, nil)

	loader.Load(context.Background(), "EURUSD", nil, nil, false)
	if c.Len() != 0 {
		t.Error("use_cache=false must not populate the cache")
	}

	callsAfterFirst := reader.callCount()
	loader.Load(context.Background(), "EURUSD", nil, nil, false)
	if reader.callCount() == callsAfterFirst {
		t.Error("use_cache=false must re-read files")
	}
}

func TestLoad_ClearCache(t *testing.T) {
	index, reader := scenarioFixtures()
	c := cache.New(&infra.Metrics{})
	loader := NewLoader(index, reader, c, 2, nil)

	loader.Load(context.Background(), "EURUSD", nil, nil, true)
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}

	loader.ClearCache()
	if c.Len() != 0 {
		t.Error("ClearCache should evict everything")
	}

	callsBefore := reader.callCount()
	loader.Load(context.Background(), "EURUSD", nil, nil, true)
	if reader.callCount() == callsBefore {
		t.Error("load after ClearCache should hit the files again")
	}
}

// TestLoad_EndToEnd runs the two-partition duplicate scenario over real
// parquet files on disk, through the real index and reader.
func TestLoad_EndToEnd(t *testing.T) {
	dir := t.TempDir()

	writeFixture := func(name string, ticks []domain.Tick) {
		t.Helper()
		s := &domain.TickSeries{Symbol: "EURUSD", Ticks: ticks}
		if err := parquet.WriteSeries(filepath.Join(dir, name), s); err != nil {
			t.Fatalf("fixture %s: %v", name, err)
		}
	}

	writeFixture("EURUSD_20240101_000000.parquet", []domain.Tick{tickAt(0, 1.1000), tickAt(5, 1.1002)})
	writeFixture("EURUSD_20240101_010000.parquet", []domain.Tick{tickAt(5, 1.1003), tickAt(10, 1.1005)})

	index, err := fsindex.New(dir, ".parquet", nil)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	loader := NewLoader(index, parquet.NewReader(nil), cache.New(&infra.Metrics{}), 2, nil)

	series, _, err := loader.Load(context.Background(), "EURUSD", nil, nil, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if series.Len() != 3 {
		t.Fatalf("expected exactly 3 ticks, got %d", series.Len())
	}
	if series.Ticks[1].Bid != 1.1003 {
		t.Errorf("duplicate at 09:00:05: bid = %v, want 1.1003 (second file wins)", series.Ticks[1].Bid)
	}
	if series.Ticks[0].Bid != 1.1000 || series.Ticks[2].Bid != 1.1005 {
		t.Errorf("unexpected bids: %v, %v", series.Ticks[0].Bid, series.Ticks[2].Bid)
	}
}
