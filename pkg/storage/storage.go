// Package storage keeps named snapshots of layouts.
//
// A snapshot freezes a computed layout, pins included, under a name so it
// can be reopened later or shared by link. Snapshots are immutable once
// saved.
//
// # Backends
//
//   - [MemoryStore]: in-process, lost on restart
//   - [SQLiteStore]: single file database through the pure Go modernc driver
//   - [MongoStore]: one document per snapshot in a MongoDB collection
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	lerrors "github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/graph"
)

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a snapshot does not exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown snapshot backend")
)

// Backend names accepted by configuration.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Snapshot is a saved layout.
type Snapshot struct {
	ID          string       `json:"id" bson:"_id"`
	Name        string       `json:"name" bson:"name"`
	DatasetHash string       `json:"dataset_hash,omitempty" bson:"dataset_hash,omitempty"`
	Layout      graph.Layout `json:"layout" bson:"layout"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
}

// Summary is a snapshot without its layout, for listings.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Mode      string    `json:"mode" bson:"mode"`
	Nodes     int       `json:"nodes" bson:"nodes"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NewSnapshot creates a snapshot with a fresh id. The name is trimmed and
// must be a valid display name.
func NewSnapshot(name, datasetHash string, l graph.Layout) (*Snapshot, error) {
	name = strings.TrimSpace(name)
	if err := lerrors.ValidateName(name); err != nil {
		return nil, err
	}
	return &Snapshot{
		ID:          uuid.NewString(),
		Name:        name,
		DatasetHash: datasetHash,
		Layout:      l,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}, nil
}

// Summary returns the listing entry for s.
func (s *Snapshot) Summary() Summary {
	return Summary{
		ID:        s.ID,
		Name:      s.Name,
		Mode:      s.Layout.Mode,
		Nodes:     len(s.Layout.Nodes),
		CreatedAt: s.CreatedAt,
	}
}

// Store is the interface for snapshot backends. Implementations are safe
// for concurrent use.
type Store interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, s *Snapshot) error

	// Get returns a snapshot by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns summaries, newest first. A limit of zero returns all.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Delete removes a snapshot. Deleting a missing snapshot returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases the backend's resources.
	Close() error
}

// Config selects and configures a snapshot backend.
type Config struct {
	Backend       string // "memory", "sqlite" or "mongo"
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

// Open creates the backend named by cfg.Backend. An empty backend means memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case BackendMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
