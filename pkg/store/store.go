// Package store defines the metadata store abstraction for the shared
// storage tree.
//
// A metadata store keeps the namespace only: names, hierarchy, sizes
// and content references. Raw file bytes live in a content store
// (pkg/content); the two are tied together by content IDs, mirroring
// the metadata/content split used by larger storage servers.
//
// Access control never happens here. The store trusts its caller (the
// gateway) to have consulted the policy engine first.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scopedfs/mediagate/pkg/content"
)

// Node describes a single entry in the shared storage tree.
type Node struct {
	// Name is the entry's final path segment ("" for the root).
	Name string

	// Dir reports whether the entry is a directory.
	Dir bool

	// Size is the file size in bytes. Zero for directories.
	Size uint64

	// ContentID references the file's bytes in the content store.
	// Empty for directories.
	ContentID content.ID

	// ModTime is the last modification time.
	ModTime time.Time
}

// MetadataStore is a path-addressed view of the shared storage tree.
//
// Paths are slash-separated and relative to the shared storage root;
// "/" (or the empty string) addresses the root itself, which always
// exists and is a directory.
//
// Implementations must be safe for concurrent use and must make
// Rename atomic: concurrent readers observe either the whole subtree
// at its old location or the whole subtree at its new one, never a
// partially moved state.
type MetadataStore interface {
	// Stat returns the node at the path.
	Stat(ctx context.Context, path string) (*Node, error)

	// List returns the children of the directory at the path, sorted
	// by name.
	List(ctx context.Context, path string) ([]Node, error)

	// Mkdir creates a directory. The parent must exist.
	Mkdir(ctx context.Context, path string) error

	// CreateFile creates a regular file referencing the given content.
	// The parent must exist; the path must not.
	CreateFile(ctx context.Context, path string, contentID content.ID, size uint64) error

	// SetContent repoints an existing regular file at new content.
	SetContent(ctx context.Context, path string, contentID content.ID, size uint64) error

	// Remove deletes a file or an empty directory.
	Remove(ctx context.Context, path string) error

	// Rename atomically moves the node at src, together with its
	// whole subtree, to dst. A regular file may replace an existing
	// regular file; a directory may replace an existing empty
	// directory; all other collisions fail.
	Rename(ctx context.Context, src, dst string) error

	// Close releases store resources.
	Close() error
}

// SplitPath canonicalizes a store path into its segments.
//
// "/" and "" both address the root and yield no segments. Interior
// empty segments and dot segments are rejected: the store does not
// resolve traversal.
func SplitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, nil
	}

	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		switch seg {
		case "", ".", "..":
			return nil, &StoreError{
				Code:    ErrInvalidArgument,
				Message: fmt.Sprintf("malformed path segment %q", seg),
				Path:    path,
			}
		}
	}
	return segments, nil
}

// JoinPath is the inverse of SplitPath: no segments yield "/".
func JoinPath(segments []string) string {
	if len(segments) == 0 {
		return "/"
	}
	return strings.Join(segments, "/")
}
