// Package cache stores pipeline results between runs.
//
// # Overview
//
// Computing a layout runs a physics simulation and rendering runs Graphviz,
// so both results are cached under keys derived from their inputs: the
// dataset fingerprint, the view mode and the layout and render options.
// A changed dataset therefore never hits a stale entry.
//
// # Backends
//
//   - [FileCache]: JSON entry files under a directory, for the CLI
//   - [RedisCache]: shared cache for several server instances
//   - [NullCache]: caches nothing, for --no-cache and tests
//
// # Keys
//
// A [Keyer] builds keys for each stage. [DefaultKeyer] hashes the options,
// [ScopedKeyer] adds a prefix so several datasets or deployments can share
// one backend.
//
//	k := cache.NewDefaultKeyer()
//	key := k.LayoutKey(graphHash, cache.LayoutKeyOpts{Engine: "force", Width: 960, Height: 600})
//	data, hit, err := c.Get(ctx, key)
//
// Cache errors are never fatal to callers; the pipeline logs them and
// recomputes.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the data stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Default TTLs per stage.
const (
	GraphTTL    = 24 * time.Hour
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Backend names accepted by configuration.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)
