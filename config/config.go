package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache groups configuration of all caching subsystems.
// Optional components can be disabled by setting them to nil.
type Cache struct {
	// Enabled globally toggles memoization. When false every wrapped
	// operation calls straight through: no key derivation, no storage access.
	Enabled bool `yaml:"enabled"`

	// TTL is the default freshness window applied to backing-store entries
	// when an adapter does not override it. Zero means entries never expire.
	// Example: "1h".
	TTL time.Duration `yaml:"ttl"`

	// Coalescing opts into per-key deduplication of concurrent misses.
	// When false (the default) two racing misses for the same key both
	// invoke the origin and the last write wins.
	Coalescing bool `yaml:"coalescing"`

	// Store configures the durable backing store shared by all partitions.
	Store StoreCfg `yaml:"store"`

	// Memory configures the shared in-process recency cache.
	// If nil, the memory cache is sized with defaults.
	Memory *MemoryCfg `yaml:"memory"`

	// Telemetry configures periodic counter logging and prometheus metrics.
	// If nil, telemetry is disabled.
	Telemetry *TelemetryCfg `yaml:"telemetry"`

	// Origins configures the external content-API adapters.
	// If nil, adapters cannot be constructed but the kernel works as usual.
	Origins *OriginsCfg `yaml:"origins"`
}

// Default returns a configuration equivalent to the reference deployment:
// caching on, one hour TTL, disk store under ./cache/data.
func Default() *Cache {
	cfg := &Cache{
		Enabled: true,
		TTL:     time.Hour,
		Store: StoreCfg{
			Backend: BackendDisk,
			Dir:     "cache/data",
		},
		Memory: &MemoryCfg{
			MaxEntries: 1000,
			Timeout:    time.Hour,
		},
	}
	cfg.AdjustConfig()
	return cfg
}

// AdjustConfig normalizes derived and defaulted fields after loading.
func (cfg *Cache) AdjustConfig() {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendDisk
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "cache/data"
	}
	if cfg.Memory.Enabled() && cfg.Memory.MaxEntries <= 0 {
		cfg.Memory.MaxEntries = 1000
	}
	if cfg.Telemetry.Enabled() && cfg.Telemetry.LogsInterval <= 0 {
		cfg.Telemetry.LogsInterval = 5 * time.Second
	}
	if cfg.Origins.Enabled() {
		cfg.Origins.adjust()
	}
}

func LoadConfig(path string) (*Cache, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Cache
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	cfg.FromEnv()
	cfg.AdjustConfig()

	return cfg, nil
}

// FromEnv overlays the environment surface of the reference deployment on
// top of the loaded configuration. Unset variables leave fields untouched.
func (cfg *Cache) FromEnv() {
	if v, ok := os.LookupEnv("ENABLE_CACHE"); ok {
		cfg.Enabled = v == "1"
	}
	if v, ok := lookupInt("CACHE_TIMEOUT"); ok {
		cfg.TTL = time.Duration(v) * time.Second
	}
	if v, ok := os.LookupEnv("CACHE_DIR"); ok {
		cfg.Store.Dir = v
	}
	if v, ok := lookupInt("MAX_DATA_CACHE_SIZE"); ok {
		if cfg.Memory == nil {
			cfg.Memory = &MemoryCfg{}
		}
		cfg.Memory.MaxEntries = v
	}
	if cfg.Origins != nil {
		cfg.Origins.fromEnv()
	}
}

func lookupInt(name string) (int, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
