package config

import "time"

type MemoryCfg struct {
	// MaxEntries bounds the in-process recency cache. When an insert pushes
	// the cache past this size, the least-recently-used entry is evicted.
	MaxEntries int `yaml:"max_entries"`

	// Timeout is the maximum age of an in-memory entry. An entry older than
	// Timeout is treated as absent on the next read. Zero disables aging.
	Timeout time.Duration `yaml:"timeout"`
}

func (cfg *MemoryCfg) Enabled() bool {
	return cfg != nil
}
