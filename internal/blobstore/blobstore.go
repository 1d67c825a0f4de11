// Package blobstore defines the key-addressable storage seam shared by the
// PostgreSQL and Redis backing-store implementations.
package blobstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Read when no blob exists under the given id.
// Callers use errors.Is(err, blobstore.ErrNotFound) to distinguish a missing
// record from a genuine store error.
var ErrNotFound = errors.New("blobstore: not found")

// ErrOwnerCleanupUnsupported is returned by DeleteOwner on backends that
// rely solely on native key expiry and keep no owner-context column.
var ErrOwnerCleanupUnsupported = errors.New("blobstore: owner-scoped cleanup not supported")

// Record is the persisted form of one substituted payload.
type Record struct {
	ID             string
	Data           []byte
	OwnerPrimary   string
	OwnerSecondary string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Store is a key-addressable blob store. Implementations must be safe for
// concurrent use; a backend whose client is not (a single database
// connection, say) serializes access internally.
type Store interface {
	// Write persists rec. The id must be fresh; Write never overwrites.
	Write(ctx context.Context, rec Record) error

	// Read returns the stored bytes for id, or ErrNotFound.
	Read(ctx context.Context, id string) ([]byte, error)

	// DeleteOwner removes every record created under the given owner
	// context. An empty secondary matches all records for the primary id.
	// Returns the number of records removed, or ErrOwnerCleanupUnsupported.
	DeleteOwner(ctx context.Context, primary, secondary string) (int64, error)

	// DeleteExpired removes every record whose expiry is before now and
	// returns the number removed. Backends with native key expiry return
	// (0, nil).
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's connection. The store is unusable after.
	Close(ctx context.Context) error
}
