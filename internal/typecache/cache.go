// Package typecache caches parsed TypeDescriptors keyed by the xxHash64
// of their source type string, avoiding re-lexing and re-parsing the same
// column type string across many rows or blocks. A collision.Tracker
// guards against hash collisions silently returning the wrong type.
package typecache

import (
	"sync"

	"github.com/clickhouse-explorer/wirecore/internal/collision"
	"github.com/clickhouse-explorer/wirecore/internal/hash"
	"github.com/clickhouse-explorer/wirecore/typelang"
)

// Cache is a concurrency-safe cache of parsed type descriptors keyed by
// type string.
type Cache struct {
	mu      sync.Mutex
	entries map[uint64]*typelang.TypeDescriptor
	tracker *collision.Tracker
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[uint64]*typelang.TypeDescriptor),
		tracker: collision.NewTracker(),
	}
}

// Parse returns the TypeDescriptor for s, parsing and caching it on first
// use. A hash collision (a different string already cached under the
// same hash) bypasses the cache entirely and reparses s directly, so a
// collision costs performance, never correctness.
func (c *Cache) Parse(s string) (*typelang.TypeDescriptor, error) {
	h := hash.ID(s)

	c.mu.Lock()
	collided := c.tracker.Verify(h, s)
	desc, ok := c.entries[h]
	c.mu.Unlock()

	if ok && !collided {
		return desc, nil
	}

	desc, err := typelang.Parse(s)
	if err != nil {
		return nil, err
	}

	if !collided {
		c.mu.Lock()
		c.entries[h] = desc
		c.mu.Unlock()
	}

	return desc, nil
}

// Len returns the number of distinct type strings currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
