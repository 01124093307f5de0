package docstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/edgard/hisword/internal/chats"
	"github.com/edgard/hisword/internal/chats/chatstest"
)

func TestBoltStore(t *testing.T) {
	chatstest.RunStoreTests(t, func(t *testing.T) chats.Store {
		store, err := Open(filepath.Join(t.TempDir(), "chats.bolt"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestBoltStore_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "chats.bolt")
	store, err := Open(path, nil)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
	assert.FileExists(t, path)
}

func TestBoltStore_SkipsUnreadableDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats.bolt")
	ctx := context.Background()

	store, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec := chatstest.NewRecord("tg:1", "good", time.Now())
	require.NoError(t, store.Create(ctx, rec))

	bs := store.(*boltStore)
	require.NoError(t, bs.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Bucket([]byte("tg:1")).Put([]byte("broken"), []byte("{not json"))
	}))

	listing, err := store.List(ctx, "tg:1")
	require.NoError(t, err)
	require.Len(t, listing.Active, 1)
	assert.Equal(t, rec.ID, listing.Active[0].ID)
}
