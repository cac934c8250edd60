package cache

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend  string
	Dir      string
	Redis    RedisConfig
	Compress bool
}

// Open creates the configured backend. An empty Backend means file; an empty
// Dir means [DefaultDir].
func Open(ctx context.Context, opts Options) (Cache, error) {
	dir := opts.Dir
	if dir == "" && (opts.Backend == "" || opts.Backend == BackendFile || opts.Backend == BackendSQLite) {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	var c Cache
	var err error
	switch opts.Backend {
	case "", BackendFile:
		c, err = NewFileCache(dir)
	case BackendSQLite:
		c, err = NewSQLiteCache(filepath.Join(dir, "cache.db"))
	case BackendRedis:
		c, err = NewRedisCache(ctx, opts.Redis)
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if opts.Compress {
		cc, err := NewCompressed(c)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		return cc, nil
	}
	return c, nil
}
