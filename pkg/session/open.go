package session

import (
	"context"
	"fmt"
)

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendMongo  = "mongo"
)

// Options selects and configures a store backend.
type Options struct {
	Backend string
	Dir     string
	Mongo   MongoConfig
}

// Open creates the configured store. An empty Backend means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendMongo:
		return NewMongoStore(ctx, opts.Mongo)
	}
	return nil, fmt.Errorf("unknown session store backend %q", opts.Backend)
}
