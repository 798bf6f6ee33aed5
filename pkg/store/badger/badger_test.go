package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scopedfs/mediagate/pkg/store"
	"github.com/scopedfs/mediagate/pkg/store/storetest"
)

// TestBadgerMetadataStore runs the MetadataStore conformance suite
// against the Badger implementation using an in-memory database.
func TestBadgerMetadataStore(t *testing.T) {
	suite := &storetest.Suite{
		NewStore: func(t *testing.T) store.MetadataStore {
			st, err := NewBadgerMetadataStore(Config{InMemory: true})
			require.NoError(t, err)
			return st
		},
	}

	suite.Run(t)
}

// TestBadgerMetadataStore_OnDisk verifies the tree survives a close
// and reopen cycle, which the in-memory mode cannot exercise.
func TestBadgerMetadataStore_OnDisk(t *testing.T) {
	dir := t.TempDir()

	st, err := NewBadgerMetadataStore(Config{Dir: dir})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, st.Mkdir(ctx, "DCIM"))
	require.NoError(t, st.CreateFile(ctx, "DCIM/photo.jpg", "blob-1", 3))
	require.NoError(t, st.Close())

	st, err = NewBadgerMetadataStore(Config{Dir: dir})
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	node, err := st.Stat(ctx, "DCIM/photo.jpg")
	require.NoError(t, err)
	require.EqualValues(t, "blob-1", node.ContentID)
}
