package gateway

import "time"

const (
	defaultCacheTTL    = time.Hour
	defaultCachePrefix = "dbgw"
)

// Config is the process-wide gateway configuration. It is constructed
// once (DefaultConfig or LoadConfig), normalized via withDefaults, and
// passed explicitly; nothing reads it after Gateway construction.
type Config struct {
	SQLite     SQLiteConfig  `koanf:"sqlite"`
	PostgreSQL NetworkConfig `koanf:"postgresql"`
	MySQL      NetworkConfig `koanf:"mysql"`
	MongoDB    NetworkConfig `koanf:"mongodb"`
	Cache      CacheConfig   `koanf:"cache"`
}

// SQLiteConfig configures the file-backed relational backend.
type SQLiteConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// NetworkConfig configures a network-attached backend.
type NetworkConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
}

// CacheConfig configures the optional read-through cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Driver  Driver `koanf:"driver"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
	// TTLSeconds is applied to every cache write.
	TTLSeconds int    `koanf:"ttl"`
	Prefix     string `koanf:"prefix"`
}

// TTL returns the write TTL as a duration, falling back to the default.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return defaultCacheTTL
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// DefaultConfig returns the local-development defaults. Every backend
// driver is compiled into the binary, so all four start enabled; the
// cache stays off until configured.
func DefaultConfig() Config {
	return Config{
		SQLite:     SQLiteConfig{Enabled: true},
		PostgreSQL: NetworkConfig{Enabled: true},
		MySQL:      NetworkConfig{Enabled: true},
		MongoDB:    NetworkConfig{Enabled: true},
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.SQLite.Path == "" {
		c.SQLite.Path = "./data/app.db"
	}
	if c.PostgreSQL.Host == "" {
		c.PostgreSQL.Host = "localhost"
	}
	if c.PostgreSQL.Port == 0 {
		c.PostgreSQL.Port = 5432
	}
	if c.PostgreSQL.Database == "" {
		c.PostgreSQL.Database = "app"
	}
	if c.PostgreSQL.User == "" {
		c.PostgreSQL.User = "postgres"
	}
	if c.MySQL.Host == "" {
		c.MySQL.Host = "localhost"
	}
	if c.MySQL.Port == 0 {
		c.MySQL.Port = 3306
	}
	if c.MySQL.Database == "" {
		c.MySQL.Database = "app"
	}
	if c.MySQL.User == "" {
		c.MySQL.User = "root"
	}
	if c.MongoDB.Host == "" {
		c.MongoDB.Host = "localhost"
	}
	if c.MongoDB.Port == 0 {
		c.MongoDB.Port = 27017
	}
	if c.MongoDB.Database == "" {
		c.MongoDB.Database = "app"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = DriverRedis
	}
	if c.Cache.Host == "" {
		c.Cache.Host = "localhost"
	}
	if c.Cache.Port == 0 {
		c.Cache.Port = 6379
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = int(defaultCacheTTL / time.Second)
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = defaultCachePrefix
	}
	return c
}
