package session

import (
	"context"
	"fmt"
)

// Config selects and configures a session backend.
type Config struct {
	Backend string // "memory", "file" or "redis"
	Dir     string
	Redis   RedisConfig
}

// Open creates the backend named by cfg.Backend. An empty backend means memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
