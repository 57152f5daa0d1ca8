package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	loadsTotal        atomic.Uint64
	cacheHits         atomic.Uint64
	cacheMisses       atomic.Uint64
	filesDecoded      atomic.Uint64
	decodeFailures    atomic.Uint64
	ticksConsolidated atomic.Uint64

	// Decode latency tracking
	decodeSumNs atomic.Int64
	decodeCount atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordLoad records a completed load call with the consolidated tick count.
func (m *Metrics) RecordLoad(ticks int) {
	m.loadsTotal.Add(1)
	m.ticksConsolidated.Add(uint64(ticks))
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordDecode records a successful file decode with its latency.
func (m *Metrics) RecordDecode(latencyNs int64) {
	m.filesDecoded.Add(1)
	m.decodeSumNs.Add(latencyNs)
	m.decodeCount.Add(1)
}

// RecordDecodeFailure records a skipped file.
func (m *Metrics) RecordDecodeFailure() {
	m.decodeFailures.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	LoadsTotal        uint64
	CacheHits         uint64
	CacheMisses       uint64
	FilesDecoded      uint64
	DecodeFailures    uint64
	TicksConsolidated uint64
	AvgDecodeNs       int64
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgDecode int64
	count := m.decodeCount.Load()
	if count > 0 {
		avgDecode = m.decodeSumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		LoadsTotal:        m.loadsTotal.Load(),
		CacheHits:         m.cacheHits.Load(),
		CacheMisses:       m.cacheMisses.Load(),
		FilesDecoded:      m.filesDecoded.Load(),
		DecodeFailures:    m.decodeFailures.Load(),
		TicksConsolidated: m.ticksConsolidated.Load(),
		AvgDecodeNs:       avgDecode,
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.loadsTotal.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.filesDecoded.Store(0)
	m.decodeFailures.Store(0)
	m.ticksConsolidated.Store(0)
	m.decodeSumNs.Store(0)
	m.decodeCount.Store(0)
}
