package geoip

import (
	"net/netip"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rdwr-valentineg/geoip-enrich/internal/metrics"
)

// cacheKey identifies one cached record. Addresses are stored unmapped so
// an IPv4 address and its 4-in-6 form share an entry; the kind keeps
// records of different database families apart.
type cacheKey struct {
	addr netip.Addr
	kind Kind
}

// Cache is a bounded LRU of decoded records, shared by every database a
// resolver serves.
type Cache struct {
	lru *lru.Cache[cacheKey, Record]
}

// NewCache builds a cache holding at most size records. Size must be
// positive.
func NewCache(size int) (*Cache, error) {
	l, err := lru.New[cacheKey, Record](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// GetOrDecode returns the cached record for (addr, kind), or runs decode
// and caches its result. The decode runs outside any lock, so concurrent
// misses on one key may decode more than once and the last write wins.
// Decode failures are returned as-is and never cached.
func (c *Cache) GetOrDecode(addr netip.Addr, kind Kind, decode func() (Record, error)) (Record, error) {
	key := cacheKey{addr: addr, kind: kind}
	if rec, ok := c.lru.Get(key); ok {
		metrics.CacheHits.Inc()
		return rec, nil
	}
	metrics.CacheMisses.Inc()

	rec, err := decode()
	if err != nil {
		return nil, err
	}
	if evicted := c.lru.Add(key, rec); evicted {
		metrics.CacheEvictions.Inc()
	}
	return rec, nil
}

// Len reports the number of cached records.
func (c *Cache) Len() int {
	return c.lru.Len()
}
