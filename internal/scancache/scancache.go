// Package scancache keeps a running set of scan results merged by BSSID,
// replacing older sightings of the same AP and pruning entries past a maximum
// age. Timestamps are elapsed-since-boot milliseconds from a monotonic
// source.
package scancache

import (
	"fmt"
	"sync"
)

// Result is one scan sighting of a BSSID.
type Result struct {
	BSSID string
	// Timestamp in elapsed-since-boot milliseconds.
	Timestamp int64
	// Payload is the opaque frame contents; the cache never inspects it.
	Payload []byte
}

// Cache maps BSSID to the latest Result. Thread-safe; a single mutex guards
// both operations and snapshots return copies.
type Cache struct {
	mu        sync.Mutex
	results   map[string]Result
	maxAgeMs  int64
	elapsedMs func() int64
}

// New creates a cache whose entries expire after maxAgeMs. elapsedMs must be
// a monotonic elapsed-since-boot millisecond source.
func New(maxAgeMs int64, elapsedMs func() int64) *Cache {
	return &Cache{
		results:   make(map[string]Result),
		maxAgeMs:  maxAgeMs,
		elapsedMs: elapsedMs,
	}
}

// Update prunes expired entries, then merges the batch. A stored entry is
// replaced only when the incoming timestamp is strictly greater, which keeps
// behavior deterministic under duplicate frames.
func (c *Cache) Update(batch []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictOldLocked()

	for _, result := range batch {
		prev, ok := c.results[result.BSSID]
		if !ok || prev.Timestamp < result.Timestamp {
			c.results[result.BSSID] = result
		}
	}
}

// Snapshot returns copies of all entries no older than maxAgeMs. maxAgeMs
// must not exceed the cache's configured maximum age.
func (c *Cache) Snapshot(maxAgeMs int64) ([]Result, error) {
	if maxAgeMs > c.maxAgeMs {
		return nil, fmt.Errorf("max age %dms exceeds configured %dms", maxAgeMs, c.maxAgeMs)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.elapsedMs()
	var out []Result
	for _, result := range c.results {
		if now-result.Timestamp <= maxAgeMs {
			out = append(out, copyResult(result))
		}
	}
	return out, nil
}

// All returns copies of every unexpired entry.
func (c *Cache) All() []Result {
	out, _ := c.Snapshot(c.maxAgeMs)
	return out
}

func (c *Cache) evictOldLocked() {
	now := c.elapsedMs()
	for bssid, result := range c.results {
		if now-result.Timestamp > c.maxAgeMs {
			delete(c.results, bssid)
		}
	}
}

func copyResult(r Result) Result {
	r.Payload = append([]byte(nil), r.Payload...)
	return r
}
