package telemetry

// MemoMetrics is the slice of the memoizer sampled by telemetry.
type MemoMetrics interface {
	Metrics() (hits, misses, bypasses, degradedKeys, writeErrors int64)
}

// StorageUsage reports resident store size; only the disk backend has one.
type StorageUsage interface {
	Usage() (bytes int64, entries int64)
}

type sampler struct {
	memo MemoMetrics
}

func newSampler(m MemoMetrics) sampler {
	return sampler{memo: m}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	hits         uint64
	misses       uint64
	bypasses     uint64
	degradedKeys uint64
	writeErrors  uint64
}

func (s sampler) snapshot() snapshot {
	hits, misses, bypasses, degraded, writeErrs := s.memo.Metrics()
	return snapshot{
		hits:         uint64(max(hits, 0)),
		misses:       uint64(max(misses, 0)),
		bypasses:     uint64(max(bypasses, 0)),
		degradedKeys: uint64(max(degraded, 0)),
		writeErrors:  uint64(max(writeErrs, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		hits:         delta(prev.hits, cur.hits),
		misses:       delta(prev.misses, cur.misses),
		bypasses:     delta(prev.bypasses, cur.bypasses),
		degradedKeys: delta(prev.degradedKeys, cur.degradedKeys),
		writeErrors:  delta(prev.writeErrors, cur.writeErrors),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
