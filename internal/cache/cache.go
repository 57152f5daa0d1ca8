package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tickstore/internal/domain"
	"tickstore/internal/infra"
)

// Key identifies a reusable consolidated result. Bounds are normalized
// to UTC nanoseconds so equal instants in different textual forms share
// a key, while a request with an absent bound is never satisfied by one
// with an explicit bound covering the same data.
type Key struct {
	Symbol   string
	Start    int64 // Meaningful only when HasStart
	End      int64 // Meaningful only when HasEnd
	HasStart bool
	HasEnd   bool
}

// NewKey builds the cache key for a symbol and optional bounds
func NewKey(symbol string, start, end *time.Time) Key {
	k := Key{Symbol: symbol}
	if start != nil {
		k.Start = start.UTC().UnixNano()
		k.HasStart = true
	}
	if end != nil {
		k.End = end.UTC().UnixNano()
		k.HasEnd = true
	}
	return k
}

// String returns a canonical textual form, used to group in-flight loads
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Symbol)
	b.WriteByte('|')
	if k.HasStart {
		b.WriteString(strconv.FormatInt(k.Start, 10))
	} else {
		b.WriteByte('-')
	}
	b.WriteByte('|')
	if k.HasEnd {
		b.WriteString(strconv.FormatInt(k.End, 10))
	} else {
		b.WriteByte('-')
	}
	return b.String()
}

type entry struct {
	series    *domain.TickSeries
	createdAt time.Time
}

// LoaderFunc produces the series for a key on a miss. It is the
// file-index + reader + consolidator pipeline in practice.
type LoaderFunc func(ctx context.Context) (*domain.TickSeries, error)

// Cache stores consolidated series by key. Stored series are never
// handed out directly: every hit returns a deep copy, so a caller
// mutating its result cannot corrupt later hits. Racing misses for the
// same key execute the loader at most once.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	group   singleflight.Group
	metrics *infra.Metrics
}

// New creates an empty cache
func New(metrics *infra.Metrics) *Cache {
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	return &Cache{
		entries: make(map[Key]*entry),
		metrics: metrics,
	}
}

// GetOrLoad returns the cached series for key, invoking loader on a
// miss. The returned series is always a private copy.
func (c *Cache) GetOrLoad(ctx context.Context, key Key, loader LoaderFunc) (*domain.TickSeries, error) {
	if key.Symbol == "" {
		return nil, domain.ErrEmptyKey
	}

	if s, ok := c.get(key); ok {
		c.metrics.RecordCacheHit()
		return s.Clone(), nil
	}
	c.metrics.RecordCacheMiss()

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		// A racing caller may have populated the entry already
		if s, ok := c.get(key); ok {
			return s, nil
		}

		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		stored := loaded.Clone() // sever from whatever the loader still references
		c.put(key, stored)
		return stored, nil
	})
	if err != nil {
		return nil, err
	}

	// The singleflight result is shared by every waiter; each caller
	// gets its own copy of the canonical stored series.
	return v.(*domain.TickSeries).Clone(), nil
}

// Clear evicts all entries; subsequent lookups are misses
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[Key]*entry)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) get(key Key) (*domain.TickSeries, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.series, true
}

func (c *Cache) put(key Key, s *domain.TickSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{series: s, createdAt: time.Now()}
}
