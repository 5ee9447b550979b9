// Package config loads server configuration from a config file, LINKATLAS_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/matzehuels/linkatlas/pkg/cache"
	"github.com/matzehuels/linkatlas/pkg/pipeline"
	"github.com/matzehuels/linkatlas/pkg/session"
	"github.com/matzehuels/linkatlas/pkg/storage"
)

// EnvPrefix prefixes every environment variable, e.g. LINKATLAS_REDIS_ADDR.
const EnvPrefix = "LINKATLAS"

// DefaultAddr is the listen address of the HTTP server.
const DefaultAddr = "localhost:8080"

// CacheConfig selects the render cache.
type CacheConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Prefix  string `mapstructure:"prefix"` // scopes keys when deployments share a backend
}

// RedisConfig is shared by the Redis cache and session backends.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig selects the viewer session store.
type SessionConfig struct {
	Backend string        `mapstructure:"backend"`
	Dir     string        `mapstructure:"dir"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// SnapshotConfig selects the snapshot store.
type SnapshotConfig struct {
	Backend string `mapstructure:"backend"`
}

// SQLiteConfig configures the SQLite snapshot store.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// MongoConfig configures the MongoDB snapshot store.
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// Config holds the runtime configuration of the server.
type Config struct {
	Addr    string  `mapstructure:"addr"`
	Dataset string  `mapstructure:"dataset"`
	Mode    string  `mapstructure:"mode"`
	Engine  string  `mapstructure:"engine"`
	Width   float64 `mapstructure:"width"`
	Height  float64 `mapstructure:"height"`
	Watch   bool    `mapstructure:"watch"`
	Verbose bool    `mapstructure:"verbose"`

	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
}

// New returns a viper instance with defaults and environment binding set
// up. Callers bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("dataset", "")
	v.SetDefault("mode", pipeline.DefaultMode)
	v.SetDefault("engine", pipeline.DefaultEngine)
	v.SetDefault("width", pipeline.DefaultWidth)
	v.SetDefault("height", pipeline.DefaultHeight)
	v.SetDefault("watch", false)
	v.SetDefault("verbose", false)
	v.SetDefault("cache.backend", cache.BackendFile)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.prefix", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("session.backend", session.BackendMemory)
	v.SetDefault("session.dir", "")
	v.SetDefault("session.ttl", session.DefaultTTL)
	v.SetDefault("snapshot.backend", storage.BackendMemory)
	v.SetDefault("sqlite.path", "")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", storage.DefaultMongoDatabase)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file into v and decodes the result. An
// empty file searches for linkatlas.{toml,yaml,json} in the working
// directory and the user config directory; not finding one is not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("linkatlas")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/linkatlas")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks backend names and the view defaults.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendNone:
	default:
		return fmt.Errorf("cache.backend: %w: %q", cache.ErrUnknownBackend, c.Cache.Backend)
	}
	switch c.Session.Backend {
	case session.BackendMemory, session.BackendFile, session.BackendRedis:
	default:
		return fmt.Errorf("session.backend: %w: %q", session.ErrUnknownBackend, c.Session.Backend)
	}
	switch c.Snapshot.Backend {
	case storage.BackendMemory, storage.BackendSQLite, storage.BackendMongo:
	default:
		return fmt.Errorf("snapshot.backend: %w: %q", storage.ErrUnknownBackend, c.Snapshot.Backend)
	}
	if c.Snapshot.Backend == storage.BackendMongo && c.Mongo.URI == "" {
		return fmt.Errorf("snapshot.backend is mongo but mongo.uri is empty")
	}
	opts := pipeline.Options{Mode: c.Mode, Engine: c.Engine, Width: c.Width, Height: c.Height}
	if err := opts.ValidateForBuild(); err != nil {
		return err
	}
	return opts.ValidateForLayout()
}

// CacheConfig returns the render cache settings.
func (c Config) CacheConfig() cache.Config {
	return cache.Config{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis:   cache.RedisConfig{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB},
	}
}

// Keyer returns the cache keyer, scoped by cache.prefix when one is set.
func (c Config) Keyer() cache.Keyer {
	if c.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Cache.Prefix)
}

// SessionConfig returns the session store settings.
func (c Config) SessionConfig() session.Config {
	return session.Config{
		Backend: c.Session.Backend,
		Dir:     c.Session.Dir,
		Redis:   session.RedisConfig{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB},
	}
}

// StorageConfig returns the snapshot store settings.
func (c Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend:       c.Snapshot.Backend,
		SQLitePath:    c.SQLite.Path,
		MongoURI:      c.Mongo.URI,
		MongoDatabase: c.Mongo.Database,
	}
}
