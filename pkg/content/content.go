// Package content defines the content store abstraction: opaque blobs
// of file data addressed by content ID, kept separate from the
// namespace metadata (pkg/store).
//
// The split lets metadata and content scale and persist independently:
// the tree can live in memory or BadgerDB while the bytes live in
// memory or S3.
package content

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// ID is an opaque identifier for a stored blob. Callers must not
// interpret it; only the store that issued it does.
type ID string

// ErrContentNotFound indicates the requested content ID is unknown to
// the store.
var ErrContentNotFound = errors.New("content not found")

// Store holds raw file data addressed by ID.
//
// Implementations must be safe for concurrent use. Concurrent writes
// to the same ID are last-write-wins.
type Store interface {
	// Write stores the data under the ID, replacing any previous
	// content.
	Write(ctx context.Context, id ID, data []byte) error

	// Read returns the full content for the ID.
	Read(ctx context.Context, id ID) ([]byte, error)

	// Delete removes the content. Deleting an unknown ID is not an
	// error.
	Delete(ctx context.Context, id ID) error

	// Exists reports whether the ID has content.
	Exists(ctx context.Context, id ID) (bool, error)

	// Close releases store resources.
	Close() error
}

// NewID returns a fresh random content identifier.
func NewID() ID {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return ID(hex.EncodeToString(buf[:]))
}
