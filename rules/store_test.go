package rules

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStoreInterface(t *testing.T) {
	var _ KeyStore = (*InMemoryKeyStore)(nil)
	var _ KeyStore = (*PostgresKeyStore)(nil)
}

func TestInMemoryKeyStoreAddGet(t *testing.T) {
	store := NewInMemoryKeyStore()

	sk := &StoredKey{ID: "k1", Name: "birds.dck", Source: "*:result:Bird"}
	require.NoError(t, store.Add(sk))
	assert.False(t, sk.CreatedAt.IsZero())
	assert.Equal(t, sk.CreatedAt, sk.UpdatedAt)

	got, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, *sk, *got)

	// the store hands out copies
	got.Name = "changed"
	again, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, "birds.dck", again.Name)
}

func TestInMemoryKeyStoreAddDuplicate(t *testing.T) {
	store := NewInMemoryKeyStore()
	require.NoError(t, store.Add(&StoredKey{ID: "k1"}))

	err := store.Add(&StoredKey{ID: "k1"})
	assert.ErrorIs(t, err, ErrKeyExists)
}

func TestInMemoryKeyStoreGetMissing(t *testing.T) {
	store := NewInMemoryKeyStore()

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInMemoryKeyStoreUpdatePreservesCreatedAt(t *testing.T) {
	store := NewInMemoryKeyStore()
	sk := &StoredKey{ID: "k1", Source: "*:result:A"}
	require.NoError(t, store.Add(sk))
	created := sk.CreatedAt

	time.Sleep(2 * time.Millisecond)
	update := &StoredKey{ID: "k1", Source: "*:result:B"}
	require.NoError(t, store.Update(update))

	got, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(created))
	assert.Equal(t, "*:result:B", got.Source)

	assert.ErrorIs(t, store.Update(&StoredKey{ID: "missing"}), ErrKeyNotFound)
}

func TestInMemoryKeyStoreDelete(t *testing.T) {
	store := NewInMemoryKeyStore()
	require.NoError(t, store.Add(&StoredKey{ID: "k1"}))

	require.NoError(t, store.Delete("k1"))
	_, err := store.Get("k1")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorIs(t, store.Delete("k1"), ErrKeyNotFound)
}

func TestInMemoryKeyStoreListOrdered(t *testing.T) {
	store := NewInMemoryKeyStore()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Add(&StoredKey{ID: id}))
		time.Sleep(time.Millisecond)
	}

	keys, err := store.List()
	require.NoError(t, err)
	require.Len(t, keys, 3)
	assert.Equal(t, "c", keys[0].ID)
	assert.Equal(t, "a", keys[1].ID)
	assert.Equal(t, "b", keys[2].ID)
}

func TestInMemoryKeyStoreConcurrentAccess(t *testing.T) {
	store := NewInMemoryKeyStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("k%d", i)
			assert.NoError(t, store.Add(&StoredKey{ID: id}))
			_, err := store.Get(id)
			assert.NoError(t, err)
			_, err = store.List()
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	keys, err := store.List()
	require.NoError(t, err)
	assert.Len(t, keys, 50)
}
