// Package config loads graphscope.toml.
//
// The file has five sections:
//
//	[analysis]
//	entry_points = ["main"]
//	exclude_patterns = ["**/generated/**"]
//	strategy = "extract_interface"
//
//	[cache]
//	backend = "file"        # file, sqlite, redis, none
//	compress = true
//	namespace = "billing"   # optional, for a cache shared by several projects
//
//	[store]
//	backend = "file"        # memory, file, mongo
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//
//	[log]
//	level = "info"
//
// Values are applied over [Default], then the environment overrides them.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphscope/pkg/cache"
	"github.com/matzehuels/graphscope/pkg/errors"
	"github.com/matzehuels/graphscope/pkg/graph/cycles"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/session"
)

// FileName is the name of the configuration file.
const FileName = "graphscope.toml"

// Environment variables that override the file.
const (
	EnvLogLevel  = "GRAPHSCOPE_LOG_LEVEL"
	EnvCache     = "GRAPHSCOPE_CACHE"
	EnvRedisAddr = "GRAPHSCOPE_REDIS_ADDR"
	EnvMongoURI  = "GRAPHSCOPE_MONGO_URI"
)

// Config is the decoded configuration.
type Config struct {
	Analysis Analysis `toml:"analysis"`
	Cache    Cache    `toml:"cache"`
	Store    Store    `toml:"store"`
	Server   Server   `toml:"server"`
	Log      Log      `toml:"log"`
}

// Analysis holds the defaults for analysis runs.
type Analysis struct {
	EntryPoints           []string        `toml:"entry_points"`
	ExcludePatterns       []string        `toml:"exclude_patterns"`
	IncludeExported       bool            `toml:"include_exported"`
	IncludeTests          bool            `toml:"include_tests"`
	SkipDefaultExclusions bool            `toml:"skip_default_exclusions"`
	MaxCycles             int             `toml:"max_cycles"`
	Strategy              cycles.Strategy `toml:"strategy"`
	CouplingThreshold     float64         `toml:"coupling_threshold"`
	HotspotLimit          int             `toml:"hotspot_limit"`
	TopComplex            int             `toml:"top_complex"`
}

// Cache selects the result cache.
type Cache struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	Compress  bool   `toml:"compress"`
	// Namespace keeps the entries of projects that share one backend apart.
	Namespace string `toml:"namespace"`
	Redis     Redis  `toml:"redis"`
}

// Redis configures the redis cache backend.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Store selects the session store.
type Store struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
	Mongo   Mongo         `toml:"mongo"`
}

// Mongo configures the mongo session store.
type Mongo struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`
}

// Log configures the logger.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Analysis: Analysis{
			IncludeExported:   true,
			IncludeTests:      true,
			MaxCycles:         pipeline.DefaultMaxCycles,
			Strategy:          pipeline.DefaultStrategy,
			CouplingThreshold: pipeline.DefaultCouplingThreshold,
			HotspotLimit:      pipeline.DefaultHotspotLimit,
			TopComplex:        pipeline.DefaultTopComplex,
		},
		Cache: Cache{
			Backend:  cache.BackendFile,
			Compress: true,
			Redis:    Redis{Addr: "localhost:6379", Prefix: cache.DefaultRedisPrefix},
		},
		Store: Store{
			Backend: session.BackendFile,
			TTL:     session.DefaultTTL,
			Mongo: Mongo{
				URI:        "mongodb://localhost:27017",
				Database:   session.DefaultMongoDatabase,
				Collection: session.DefaultMongoCollection,
			},
		},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			MaxBodyBytes: 64 << 20,
		},
		Log: Log{Level: "info"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/graphscope/graphscope.toml, falling
// back to the user config directory.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "graphscope", FileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "graphscope", FileName), nil
}

// Load reads the file at path over the defaults and applies the environment.
// An empty path means [DefaultPath], which may be absent; an explicit path
// must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return Config{}, errors.New(errors.ErrCodeInvalidInput, "%s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	case os.IsNotExist(err):
		if explicit {
			return Config{}, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
		}
	default:
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}

	applyEnv(&cfg, os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv(EnvCache); v != "" {
		cfg.Cache.Backend = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		cfg.Store.Mongo.URI = v
	}
}

// Validate checks backend names, the log level and the analysis options.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendSQLite, cache.BackendRedis, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case session.BackendMemory, session.BackendFile, session.BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	if c.Store.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "store ttl must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	opts := c.PipelineOptions()
	return opts.ValidateAndSetDefaults()
}

// LogLevel parses the configured level.
func (c Config) LogLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, errors.New(errors.ErrCodeInvalidInput, "invalid log level %q", c.Log.Level)
	}
	return lvl, nil
}

// PipelineOptions returns the analysis defaults as pipeline options.
func (c Config) PipelineOptions() pipeline.Options {
	a := c.Analysis
	return pipeline.Options{
		EntryPoints:           append([]string(nil), a.EntryPoints...),
		ExcludePatterns:       append([]string(nil), a.ExcludePatterns...),
		IncludeExported:       a.IncludeExported,
		IncludeTests:          a.IncludeTests,
		SkipDefaultExclusions: a.SkipDefaultExclusions,
		MaxCycles:             a.MaxCycles,
		Strategy:              a.Strategy,
		CouplingThreshold:     a.CouplingThreshold,
		HotspotLimit:          a.HotspotLimit,
		TopComplex:            a.TopComplex,
	}
}

// CacheOptions returns the options for [cache.Open].
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:  c.Cache.Backend,
		Dir:      c.Cache.Dir,
		Compress: c.Cache.Compress,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   c.Cache.Redis.Prefix,
		},
	}
}

// StoreOptions returns the options for [session.Open].
func (c Config) StoreOptions() session.Options {
	return session.Options{
		Backend: c.Store.Backend,
		Dir:     c.Store.Dir,
		Mongo: session.MongoConfig{
			URI:        c.Store.Mongo.URI,
			Database:   c.Store.Mongo.Database,
			Collection: c.Store.Mongo.Collection,
		},
	}
}

// OpenCache opens the configured cache.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	return cache.Open(ctx, c.CacheOptions())
}

// Keyer returns the cache keyer, scoped to the namespace when one is set.
func (c Config) Keyer() cache.Keyer {
	if c.Cache.Namespace == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Cache.Namespace+":")
}

// OpenStore opens the configured session store.
func (c Config) OpenStore(ctx context.Context) (session.Store, error) {
	return session.Open(ctx, c.StoreOptions())
}
