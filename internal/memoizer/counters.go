package memoizer

import "sync/atomic"

type counters struct {
	hits         atomic.Int64
	misses       atomic.Int64
	bypasses     atomic.Int64
	degradedKeys atomic.Int64
	writeErrors  atomic.Int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() (hits, misses, bypasses, degradedKeys, writeErrors int64) {
	return c.hits.Load(), c.misses.Load(), c.bypasses.Load(), c.degradedKeys.Load(), c.writeErrors.Load()
}
