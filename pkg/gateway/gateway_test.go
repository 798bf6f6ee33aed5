package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopedfs/mediagate/pkg/content"
	contentmemory "github.com/scopedfs/mediagate/pkg/content/memory"
	"github.com/scopedfs/mediagate/pkg/policy"
	"github.com/scopedfs/mediagate/pkg/store"
	storememory "github.com/scopedfs/mediagate/pkg/store/memory"
)

const (
	ownApp   = "com.example.legacy"
	otherApp = "com.android.shell"
)

func legacyCaller(read, write bool) policy.CallerContext {
	return policy.CallerContext{
		AppID:        ownApp,
		Legacy:       true,
		ReadGranted:  read,
		WriteGranted: write,
	}
}

type fixture struct {
	gw    *Gateway
	meta  store.MetadataStore
	blobs content.Store
}

// newFixture builds a gateway over in-memory stores and seeds the
// usual shared-tree layout. Seeding goes through the stores directly
// so no policy decision applies to it.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	meta := storememory.NewMemoryMetadataStore()
	blobs := contentmemory.NewMemoryContentStore()
	t.Cleanup(func() {
		_ = meta.Close()
		_ = blobs.Close()
	})

	f := &fixture{
		gw:    New(policy.NewEngine(policy.Options{}), meta, blobs),
		meta:  meta,
		blobs: blobs,
	}

	ctx := context.Background()
	for _, dir := range []string{
		"Music",
		"DCIM",
		"Movies",
		"Documents",
		"Android",
		"Android/data",
		"Android/media",
		"Android/data/" + ownApp,
		"Android/media/" + ownApp,
		"Android/data/" + otherApp,
	} {
		require.NoError(t, meta.Mkdir(ctx, dir))
	}
	return f
}

// seedFile plants a file with content, bypassing the gateway.
func (f *fixture) seedFile(t *testing.T, path string, data []byte) {
	t.Helper()

	ctx := context.Background()
	id := content.NewID()
	require.NoError(t, f.blobs.Write(ctx, id, data))
	require.NoError(t, f.meta.CreateFile(ctx, path, id, uint64(len(data))))
}

// assertStoreCode asserts that err carries the given store error code.
func assertStoreCode(t *testing.T, err error, want store.ErrorCode) {
	t.Helper()

	code, ok := store.CodeOf(err)
	require.True(t, ok, "expected a store error, got %v", err)
	assert.Equal(t, want, code)
}

// readBack reads file content through the stores, bypassing the
// gateway, for assertions made on behalf of callers without the read
// permission.
func (f *fixture) readBack(t *testing.T, path string) []byte {
	t.Helper()

	ctx := context.Background()
	node, err := f.meta.Stat(ctx, path)
	require.NoError(t, err)
	data, err := f.blobs.Read(ctx, node.ContentID)
	require.NoError(t, err)
	return data
}

func TestGateway_CreateWithWriteOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := legacyCaller(false, true)

	// Write permission alone opens the whole shared tree for
	// creation, at the root and inside any top-level directory,
	// regardless of media type.
	for _, path := range []string{
		"shiny-new.mp3",
		"Music/song.mp3",
		"DCIM/photo.jpg",
		"Documents/notes.pdf",
	} {
		require.NoError(t, f.gw.Create(ctx, caller, path, []byte("x")))
	}

	// Non-standard top-level directories are no different.
	require.True(t, f.gw.Mkdir(ctx, caller, "oddball"))
	require.NoError(t, f.gw.Create(ctx, caller, "oddball/data.bin", []byte("x")))

	// Another app's private directory stays off limits.
	err := f.gw.Create(ctx, caller, "Android/data/"+otherApp+"/stolen.txt", []byte("x"))
	var denied *AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, policy.DenyOtherAppDir, denied.Reason)

	// Write permission does not imply read.
	_, err = f.gw.OpenRead(ctx, caller, "Music/song.mp3")
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, policy.DenyNoReadPermission, denied.Reason)
}

func TestGateway_CreateRequiresDirToExist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.gw.Create(ctx, legacyCaller(false, true), "Pictures/missing/pic.png", []byte("x"))
	require.Error(t, err)
	assertStoreCode(t, err, store.ErrNotFound)
}

func TestGateway_MkdirWithWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := legacyCaller(false, true)

	assert.True(t, f.gw.Mkdir(ctx, caller, "Music/ringtones"))
	assert.True(t, f.gw.Mkdir(ctx, caller, "top-level-dir"))

	// Denied: someone else's private directory.
	assert.False(t, f.gw.Mkdir(ctx, caller, "Android/data/"+otherApp+"/sub"))

	// Failed, not denied: the directory already exists.
	assert.False(t, f.gw.Mkdir(ctx, caller, "Music"))
}

func TestGateway_NoPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "Music/existing.mp3", []byte("notes"))
	caller := legacyCaller(false, false)

	var denied *AccessDeniedError
	require.ErrorAs(t, f.gw.Create(ctx, caller, "Music/new.mp3", []byte("x")), &denied)
	assert.Equal(t, policy.DenyNoWritePermission, denied.Reason)

	assert.False(t, f.gw.Mkdir(ctx, caller, "Music/sub"))
	assert.False(t, f.gw.Delete(ctx, caller, "Music/existing.mp3"))
	assert.Nil(t, f.gw.List(ctx, caller, "Music"))
	assert.False(t, f.gw.Rename(ctx, caller, "Music/existing.mp3", "renamed.mp3"))

	_, err := f.gw.OpenRead(ctx, caller, "Music/existing.mp3")
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, policy.DenyNoReadPermission, denied.Reason)

	// The app's own directories need no permission at all.
	own := "Android/data/" + ownApp + "/cache.bin"
	require.NoError(t, f.gw.Create(ctx, caller, own, []byte("private")))
	data, err := f.gw.OpenRead(ctx, caller, own)
	require.NoError(t, err)
	assert.Equal(t, []byte("private"), data)
	assert.True(t, f.gw.Mkdir(ctx, caller, "Android/media/"+ownApp+"/clips"))
}

func TestGateway_ReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "Music/existing.mp3", []byte("notes"))
	caller := legacyCaller(true, false)

	data, err := f.gw.OpenRead(ctx, caller, "Music/existing.mp3")
	require.NoError(t, err)
	assert.Equal(t, []byte("notes"), data)

	names := f.gw.List(ctx, caller, "Music")
	require.NotNil(t, names)
	assert.Contains(t, names, "existing.mp3")

	var denied *AccessDeniedError
	require.ErrorAs(t, f.gw.Create(ctx, caller, "Music/new.mp3", []byte("x")), &denied)
	require.ErrorAs(t, f.gw.OpenWrite(ctx, caller, "Music/existing.mp3", []byte("y")), &denied)
	assert.False(t, f.gw.Mkdir(ctx, caller, "Music/sub"))
	assert.False(t, f.gw.Delete(ctx, caller, "Music/existing.mp3"))

	// Rename is a write even when both endpoints are readable.
	assert.False(t, f.gw.Rename(ctx, caller, "Music/existing.mp3", "Music/renamed.mp3"))
	_, err = f.meta.Stat(ctx, "Music/existing.mp3")
	assert.NoError(t, err)
}

func TestGateway_RenameWithWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := legacyCaller(false, true)

	// A music file moves freely between unrelated top-level
	// directories and the root; media type never constrains the
	// destination.
	f.seedFile(t, "DCIM/musicFile.mp3", []byte("song"))
	require.True(t, f.gw.Rename(ctx, caller, "DCIM/musicFile.mp3", "musicFile.mp3"))
	require.True(t, f.gw.Rename(ctx, caller, "musicFile.mp3", "Movies/musicFile.mp3"))
	assert.Equal(t, []byte("song"), f.readBack(t, "Movies/musicFile.mp3"))

	// A directory moves with its whole subtree in one decision; the
	// non-media descendant is never re-validated against Movies.
	require.True(t, f.gw.Mkdir(ctx, caller, "nonmedia"))
	f.seedFile(t, "nonmedia/report.pdf", []byte("pdf-bytes"))
	require.True(t, f.gw.Rename(ctx, caller, "nonmedia", "Movies/nonmedia"))

	_, err := f.meta.Stat(ctx, "nonmedia")
	assertStoreCode(t, err, store.ErrNotFound)
	node, err := f.meta.Stat(ctx, "Movies/nonmedia")
	require.NoError(t, err)
	assert.True(t, node.Dir)
	assert.Equal(t, []byte("pdf-bytes"), f.readBack(t, "Movies/nonmedia/report.pdf"))
}

func TestGateway_RenameDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "Music/existing.mp3", []byte("notes"))

	// Write permission does not reach into another app's directory,
	// in either direction.
	caller := legacyCaller(false, true)
	assert.False(t, f.gw.Rename(ctx, caller, "Music/existing.mp3", "Android/data/"+otherApp+"/existing.mp3"))
	assert.False(t, f.gw.Rename(ctx, caller, "Android/data/"+otherApp, "stolen"))

	// A denied rename leaves the tree untouched.
	_, err := f.meta.Stat(ctx, "Music/existing.mp3")
	assert.NoError(t, err)
	_, err = f.meta.Stat(ctx, "Android/data/"+otherApp)
	assert.NoError(t, err)
}

func TestGateway_RenameFailureIsFalse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Allowed by policy but the source does not exist.
	assert.False(t, f.gw.Rename(ctx, legacyCaller(false, true), "Music/ghost.mp3", "ghost.mp3"))
}

func TestGateway_OpenWriteReplacesContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := legacyCaller(true, true)
	f.seedFile(t, "Documents/draft.txt", []byte("v1"))

	require.NoError(t, f.gw.OpenWrite(ctx, caller, "Documents/draft.txt", []byte("v2")))
	data, err := f.gw.OpenRead(ctx, caller, "Documents/draft.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	// Writing never creates: the file must already exist.
	err = f.gw.OpenWrite(ctx, caller, "Documents/absent.txt", []byte("x"))
	assertStoreCode(t, err, store.ErrNotFound)
}

func TestGateway_OpenReadDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.OpenRead(ctx, legacyCaller(true, false), "Music")
	assertStoreCode(t, err, store.ErrIsDirectory)
}

func TestGateway_ListNilVersusEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// An allowed listing of an empty directory is empty but non-nil;
	// nil is reserved for denial or failure.
	names := f.gw.List(ctx, legacyCaller(true, false), "Movies")
	require.NotNil(t, names)
	assert.Empty(t, names)

	assert.Nil(t, f.gw.List(ctx, legacyCaller(false, false), "Movies"))
	assert.Nil(t, f.gw.List(ctx, legacyCaller(true, false), "Movies/absent"))
}

func TestGateway_DeleteRemovesContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := legacyCaller(false, true)
	f.seedFile(t, "DCIM/photo.jpg", []byte("jpeg"))

	node, err := f.meta.Stat(ctx, "DCIM/photo.jpg")
	require.NoError(t, err)

	require.True(t, f.gw.Delete(ctx, caller, "DCIM/photo.jpg"))
	_, err = f.meta.Stat(ctx, "DCIM/photo.jpg")
	assertStoreCode(t, err, store.ErrNotFound)
	_, err = f.blobs.Read(ctx, node.ContentID)
	assert.True(t, errors.Is(err, content.ErrContentNotFound))
}

func TestGateway_InvalidPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caller := legacyCaller(true, true)

	// Malformed paths fail before any decision is made; the boolean
	// operations collapse that to false.
	assert.True(t, errors.Is(f.gw.Create(ctx, caller, "", nil), policy.ErrInvalidPath))
	_, err := f.gw.OpenRead(ctx, caller, "Music/../etc")
	assert.True(t, errors.Is(err, policy.ErrInvalidPath))
	assert.False(t, f.gw.Mkdir(ctx, caller, "."))
	assert.False(t, f.gw.Rename(ctx, caller, "", "Music/x"))
	assert.Nil(t, f.gw.List(ctx, caller, ".."))
}

func TestGateway_NonLegacyDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "Music/existing.mp3", []byte("notes"))

	caller := policy.CallerContext{
		AppID:        ownApp,
		Legacy:       false,
		ReadGranted:  true,
		WriteGranted: true,
	}

	var denied *AccessDeniedError
	require.ErrorAs(t, f.gw.Create(ctx, caller, "Music/new.mp3", []byte("x")), &denied)
	assert.Equal(t, policy.DenyNotApplicable, denied.Reason)

	// Own private directories stay reachable even outside the legacy
	// regime.
	require.NoError(t, f.gw.Create(ctx, caller, "Android/data/"+ownApp+"/state.bin", []byte("x")))
}
