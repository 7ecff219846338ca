// Package store persists location snapshots and applies relocation intents.
//
// A [Store] is the persistence boundary of the hierarchy engine. Callers hand
// it a validated [hierarchy.Intent]; the store re-checks the move against its
// current snapshot (which may have changed since the intent was computed),
// applies it and returns the refreshed snapshot.
//
// Five backends are provided:
//
//   - [MemoryStore]: in-process, for tests and the interactive browser
//   - [FileStore]: one JSON or TOML snapshot file, rewritten atomically
//   - [DiskvStore]: one record per location plus an order index in a diskv
//     directory, so a move rewrites two small files instead of the whole tree
//   - [PostgresStore]: one row per location with a position column, moves
//     applied in a transaction under a table lock
//   - [MongoStore]: the ordered snapshot as one versioned document, moves
//     applied with compare-and-swap on the version
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/placetree/pkg/errors"
	"github.com/matzehuels/placetree/pkg/hierarchy"
)

// Store holds one ordered snapshot of locations.
type Store interface {
	// Snapshot returns the current locations in sibling order.
	Snapshot(ctx context.Context) ([]hierarchy.Node, error)

	// Move applies intent and returns the refreshed snapshot. Refusals carry
	// the hierarchy error codes and leave the store unchanged.
	Move(ctx context.Context, intent hierarchy.Intent) ([]hierarchy.Node, error)

	// Replace overwrites the whole snapshot after validating it.
	Replace(ctx context.Context, nodes []hierarchy.Node) error

	// Close releases resources held by the backend.
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendDiskv  Backend = "diskv"

	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongo"
)

// Backends lists every backend name accepted by [Open].
func Backends() []Backend {
	return []Backend{BackendFile, BackendDiskv, BackendMemory, BackendPostgres, BackendMongo}
}

// IsNetwork reports whether the backend is addressed by a connection URL
// rather than a filesystem path.
func (b Backend) IsNetwork() bool {
	return b == BackendPostgres || b == BackendMongo
}

// Open returns the Store for backend at location. For the file backend
// location is the snapshot file, for diskv a directory, and for postgres and
// mongo a connection URL.
func Open(ctx context.Context, backend Backend, location string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch Backend(strings.ToLower(string(backend))) {
	case BackendMemory:
		s, err = NewMemoryStore(nil)
	case BackendFile, "":
		s, err = NewFileStore(location)
	case BackendDiskv:
		s, err = NewDiskvStore(location)
	case BackendPostgres:
		s, err = NewPostgresStore(ctx, location)
	case BackendMongo:
		s, err = NewMongoStore(ctx, MongoConfig{URI: location})
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown store backend %q (want file, diskv, memory, postgres or mongo)", backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// apply checks intent against nodes and returns the moved snapshot.
func apply(ctx context.Context, nodes []hierarchy.Node, intent hierarchy.Intent) ([]hierarchy.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := hierarchy.Move(nodes, intent.LocationID, intent.ParentID, intent.SiblingIndex)
	if err != nil {
		return nil, fmt.Errorf("move %s: %w", intent.LocationID, err)
	}
	return out, nil
}
