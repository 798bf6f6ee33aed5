// Package storetest provides a conformance suite run against every
// MetadataStore implementation, so the memory and badger stores stay
// behaviorally identical.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopedfs/mediagate/pkg/store"
)

// Suite runs the MetadataStore conformance tests.
type Suite struct {
	// NewStore builds a fresh, empty store for one subtest. The suite
	// closes it when the subtest ends.
	NewStore func(t *testing.T) store.MetadataStore
}

// Run executes the full suite.
func (s *Suite) Run(t *testing.T) {
	t.Run("RootExists", s.testRootExists)
	t.Run("MkdirAndStat", s.testMkdirAndStat)
	t.Run("MkdirMissingParent", s.testMkdirMissingParent)
	t.Run("MkdirDuplicate", s.testMkdirDuplicate)
	t.Run("CreateFile", s.testCreateFile)
	t.Run("CreateFileDuplicate", s.testCreateFileDuplicate)
	t.Run("SetContent", s.testSetContent)
	t.Run("List", s.testList)
	t.Run("ListFile", s.testListFile)
	t.Run("Remove", s.testRemove)
	t.Run("RemoveNonEmptyDir", s.testRemoveNonEmptyDir)
	t.Run("RenameFile", s.testRenameFile)
	t.Run("RenameSubtree", s.testRenameSubtree)
	t.Run("RenameReplacesFile", s.testRenameReplacesFile)
	t.Run("RenameCollisions", s.testRenameCollisions)
	t.Run("RenameIntoOwnSubtree", s.testRenameIntoOwnSubtree)
	t.Run("InvalidPaths", s.testInvalidPaths)
}

func (s *Suite) newStore(t *testing.T) store.MetadataStore {
	t.Helper()
	st := s.NewStore(t)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func (s *Suite) testRootExists(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	node, err := st.Stat(ctx, "/")
	require.NoError(t, err)
	assert.True(t, node.Dir)

	entries, err := st.List(ctx, "/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func (s *Suite) testMkdirAndStat(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Mkdir(ctx, "DCIM"))
	require.NoError(t, st.Mkdir(ctx, "DCIM/Camera"))

	node, err := st.Stat(ctx, "DCIM/Camera")
	require.NoError(t, err)
	assert.True(t, node.Dir)
	assert.Equal(t, "Camera", node.Name)
}

func (s *Suite) testMkdirMissingParent(t *testing.T) {
	st := s.newStore(t)

	err := st.Mkdir(context.Background(), "Music/album/deep")
	require.Error(t, err)
	code, ok := store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrNotFound, code)
}

func (s *Suite) testMkdirDuplicate(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Mkdir(ctx, "Music"))
	err := st.Mkdir(ctx, "Music")
	code, ok := store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrAlreadyExists, code)
}

func (s *Suite) testCreateFile(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateFile(ctx, "song.mp3", "blob-1", 12))

	node, err := st.Stat(ctx, "song.mp3")
	require.NoError(t, err)
	assert.False(t, node.Dir)
	assert.Equal(t, uint64(12), node.Size)
	assert.EqualValues(t, "blob-1", node.ContentID)
}

func (s *Suite) testCreateFileDuplicate(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateFile(ctx, "a.txt", "blob-1", 1))
	err := st.CreateFile(ctx, "a.txt", "blob-2", 2)
	code, ok := store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrAlreadyExists, code)
}

func (s *Suite) testSetContent(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateFile(ctx, "a.txt", "blob-1", 1))
	require.NoError(t, st.SetContent(ctx, "a.txt", "blob-2", 42))

	node, err := st.Stat(ctx, "a.txt")
	require.NoError(t, err)
	assert.EqualValues(t, "blob-2", node.ContentID)
	assert.Equal(t, uint64(42), node.Size)

	// Directories have no content.
	require.NoError(t, st.Mkdir(ctx, "Music"))
	err = st.SetContent(ctx, "Music", "blob-3", 1)
	code, ok := store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrIsDirectory, code)
}

func (s *Suite) testList(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Mkdir(ctx, "Music"))
	require.NoError(t, st.CreateFile(ctx, "Music/b.mp3", "blob-b", 1))
	require.NoError(t, st.CreateFile(ctx, "Music/a.mp3", "blob-a", 1))
	require.NoError(t, st.Mkdir(ctx, "Music/covers"))
	require.NoError(t, st.CreateFile(ctx, "Music/covers/front.jpg", "blob-c", 1))

	entries, err := st.List(ctx, "Music")
	require.NoError(t, err)
	require.Len(t, entries, 3, "grandchildren must not appear in a listing")
	assert.Equal(t, "a.mp3", entries[0].Name)
	assert.Equal(t, "b.mp3", entries[1].Name)
	assert.Equal(t, "covers", entries[2].Name)
}

func (s *Suite) testListFile(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateFile(ctx, "a.txt", "blob-1", 1))
	_, err := st.List(ctx, "a.txt")
	code, ok := store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrNotDirectory, code)
}

func (s *Suite) testRemove(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateFile(ctx, "a.txt", "blob-1", 1))
	require.NoError(t, st.Remove(ctx, "a.txt"))

	_, err := st.Stat(ctx, "a.txt")
	assert.True(t, store.IsNotFound(err))

	// Removing an empty directory works too.
	require.NoError(t, st.Mkdir(ctx, "Music"))
	require.NoError(t, st.Remove(ctx, "Music"))
	_, err = st.Stat(ctx, "Music")
	assert.True(t, store.IsNotFound(err))
}

func (s *Suite) testRemoveNonEmptyDir(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Mkdir(ctx, "Music"))
	require.NoError(t, st.CreateFile(ctx, "Music/a.mp3", "blob-1", 1))

	err := st.Remove(ctx, "Music")
	code, ok := store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrNotEmpty, code)
}

func (s *Suite) testRenameFile(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Mkdir(ctx, "DCIM"))
	require.NoError(t, st.CreateFile(ctx, "DCIM/song.mp3", "blob-1", 7))
	require.NoError(t, st.Rename(ctx, "DCIM/song.mp3", "song.mp3"))

	_, err := st.Stat(ctx, "DCIM/song.mp3")
	assert.True(t, store.IsNotFound(err))

	node, err := st.Stat(ctx, "song.mp3")
	require.NoError(t, err)
	assert.EqualValues(t, "blob-1", node.ContentID)
	assert.Equal(t, uint64(7), node.Size)
}

func (s *Suite) testRenameSubtree(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Mkdir(ctx, "DCIM"))
	require.NoError(t, st.Mkdir(ctx, "DCIM/trip"))
	require.NoError(t, st.CreateFile(ctx, "DCIM/trip/photo.jpg", "blob-p", 1))
	require.NoError(t, st.CreateFile(ctx, "DCIM/trip/notes.pdf", "blob-n", 1))
	require.NoError(t, st.Mkdir(ctx, "DCIM/trip/raw"))
	require.NoError(t, st.CreateFile(ctx, "DCIM/trip/raw/img.dng", "blob-r", 1))

	require.NoError(t, st.Rename(ctx, "DCIM/trip", "trip"))

	// The whole subtree is gone from the old location...
	_, err := st.Stat(ctx, "DCIM/trip")
	assert.True(t, store.IsNotFound(err))
	_, err = st.Stat(ctx, "DCIM/trip/photo.jpg")
	assert.True(t, store.IsNotFound(err))

	// ...and present, with identical structure, at the new one.
	for _, path := range []string{"trip", "trip/photo.jpg", "trip/notes.pdf", "trip/raw", "trip/raw/img.dng"} {
		_, err := st.Stat(ctx, path)
		assert.NoError(t, err, "missing %s after rename", path)
	}

	entries, err := st.List(ctx, "DCIM")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func (s *Suite) testRenameReplacesFile(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateFile(ctx, "a.txt", "blob-a", 1))
	require.NoError(t, st.CreateFile(ctx, "b.txt", "blob-b", 2))
	require.NoError(t, st.Rename(ctx, "a.txt", "b.txt"))

	node, err := st.Stat(ctx, "b.txt")
	require.NoError(t, err)
	assert.EqualValues(t, "blob-a", node.ContentID)

	_, err = st.Stat(ctx, "a.txt")
	assert.True(t, store.IsNotFound(err))
}

func (s *Suite) testRenameCollisions(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Mkdir(ctx, "dir"))
	require.NoError(t, st.Mkdir(ctx, "full"))
	require.NoError(t, st.CreateFile(ctx, "full/x.txt", "blob-x", 1))
	require.NoError(t, st.CreateFile(ctx, "file.txt", "blob-f", 1))

	// Directory over file.
	err := st.Rename(ctx, "dir", "file.txt")
	code, ok := store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrNotDirectory, code)

	// File over directory.
	err = st.Rename(ctx, "file.txt", "dir")
	code, ok = store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrIsDirectory, code)

	// Directory over non-empty directory.
	err = st.Rename(ctx, "dir", "full")
	code, ok = store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrNotEmpty, code)

	// Directory over empty directory is allowed.
	require.NoError(t, st.Mkdir(ctx, "empty"))
	require.NoError(t, st.Rename(ctx, "dir", "empty"))
}

func (s *Suite) testRenameIntoOwnSubtree(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	require.NoError(t, st.Mkdir(ctx, "a"))
	require.NoError(t, st.Mkdir(ctx, "a/b"))

	err := st.Rename(ctx, "a", "a/b/c")
	code, ok := store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrInvalidArgument, code)
}

func (s *Suite) testInvalidPaths(t *testing.T) {
	st := s.newStore(t)
	ctx := context.Background()

	for _, path := range []string{"a//b", "a/./b", "a/../b"} {
		_, err := st.Stat(ctx, path)
		code, ok := store.CodeOf(err)
		require.True(t, ok, "Stat(%q) error: %v", path, err)
		assert.Equal(t, store.ErrInvalidArgument, code, "Stat(%q)", path)
	}

	err := st.Remove(ctx, "/")
	code, ok := store.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, store.ErrInvalidArgument, code)
}
