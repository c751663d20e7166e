package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tplog "github.com/TopiaNetwork/topia-vault/log"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
)

func createTestCaches(t *testing.T) map[BackendType]Cache {
	testLog, err := tplog.CreateMainLogger(tplogcmm.DebugLevel, tplog.DefaultLogFormat, tplog.DefaultLogOutput, "")
	require.NoError(t, err)

	caches := make(map[BackendType]Cache)
	for _, backend := range []BackendType{Backend_LRU, Backend_Badger, Backend_Leveldb} {
		c, err := NewCache(tplogcmm.DebugLevel, testLog, backend, "", 16)
		require.NoError(t, err, string(backend))
		caches[backend] = c
	}
	return caches
}

func TestCacheSetGetRemove(t *testing.T) {
	ctx := context.Background()

	for backend, c := range createTestCaches(t) {
		_, found, err := c.Get(ctx, "wallet/directory")
		require.NoError(t, err, string(backend))
		assert.False(t, found, string(backend))

		value := []byte(`{"wallets":{}}`)
		require.NoError(t, c.Set(ctx, "wallet/directory", value), string(backend))
		value[0] = 'x'

		got, found, err := c.Get(ctx, "wallet/directory")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte(`{"wallets":{}}`), got, string(backend))

		require.NoError(t, c.Set(ctx, "wallet/directory", []byte("v2")))
		got, _, err = c.Get(ctx, "wallet/directory")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)

		require.NoError(t, c.Remove(ctx, "wallet/directory"))
		_, found, err = c.Get(ctx, "wallet/directory")
		require.NoError(t, err)
		assert.False(t, found, string(backend))

		require.NoError(t, c.Close())
		_, _, err = c.Get(ctx, "wallet/directory")
		assert.ErrorIs(t, err, ErrCacheClosed, string(backend))
		assert.NoError(t, c.Close())
	}
}

func TestCacheCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for backend, c := range createTestCaches(t) {
		_, _, err := c.Get(ctx, "k")
		assert.ErrorIs(t, err, context.Canceled, string(backend))
		assert.ErrorIs(t, c.Set(ctx, "k", []byte("v")), context.Canceled)
		assert.ErrorIs(t, c.Remove(ctx, "k"), context.Canceled)
		require.NoError(t, c.Close())
	}
}

func TestLRUCacheEviction(t *testing.T) {
	ctx := context.Background()

	c, err := NewLRUCache(tplog.CreateModuleLogger(tplogcmm.InfoLevel, "cache", nil), 2)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	require.NoError(t, c.Set(ctx, "b", []byte("2")))
	require.NoError(t, c.Set(ctx, "c", []byte("3")))

	_, found, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPersistentCacheReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, backend := range []BackendType{Backend_Badger, Backend_Leveldb} {
		path := filepath.Join(dir, string(backend))

		c, err := NewCache(tplogcmm.InfoLevel, nil, backend, path, 0)
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "wallet/directory", []byte("index")))
		require.NoError(t, c.Close())

		c, err = NewCache(tplogcmm.InfoLevel, nil, backend, path, 0)
		require.NoError(t, err)
		got, found, err := c.Get(ctx, "wallet/directory")
		require.NoError(t, err)
		assert.True(t, found, string(backend))
		assert.Equal(t, []byte("index"), got)
		require.NoError(t, c.Close())
	}
}

func TestParseBackendType(t *testing.T) {
	bt, err := ParseBackendType("Badger")
	require.NoError(t, err)
	assert.Equal(t, Backend_Badger, bt)

	bt, err = ParseBackendType("")
	require.NoError(t, err)
	assert.Equal(t, Backend_LRU, bt)

	_, err = ParseBackendType("redis")
	assert.Error(t, err)
}
