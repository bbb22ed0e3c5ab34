package config

// Backend selects the durable store implementation.
type Backend string

const (
	// BackendDisk stores one file per key under <dir>/<partition>/.
	BackendDisk Backend = "disk"

	// BackendRedis stores entries in a shared Redis, for deployments where
	// several processes should see each other's fetches.
	BackendRedis Backend = "redis"
)

type StoreCfg struct {
	// Backend defines where entries are persisted.
	// Supported values:
	//   - "disk":  partitioned directory tree on the local filesystem
	//   - "redis": shared Redis keyspace, entries expire server-side
	Backend Backend `yaml:"backend"`

	// Dir is the root directory of the disk backend. Partition
	// subdirectories are created underneath it on first use.
	Dir string `yaml:"dir"`

	// Gzip enables gzip compression of entry files.
	// When enabled, entries are written and read in compressed form,
	// reducing disk usage at the cost of additional CPU overhead.
	Gzip bool `yaml:"gzip"`

	// Redis configures the redis backend; required when Backend is "redis".
	Redis *RedisCfg `yaml:"redis"`
}

type RedisCfg struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (cfg *RedisCfg) Enabled() bool {
	return cfg != nil
}
