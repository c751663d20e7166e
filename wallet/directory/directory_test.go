package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
	"github.com/TopiaNetwork/topia-vault/wallet/cache"
	"github.com/TopiaNetwork/topia-vault/wallet/key_store"
	"github.com/TopiaNetwork/topia-vault/wallet/key_store/file_key_store"
)

type testEnv struct {
	log   tplog.Logger
	dir   string
	store *file_key_store.FileKeyStore
}

func newTestEnv(t *testing.T) *testEnv {
	testLog, err := tplog.CreateMainLogger(tplogcmm.DebugLevel, tplog.DefaultLogFormat, tplog.DefaultLogOutput, "")
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := file_key_store.NewFileKeyStore(tplogcmm.DebugLevel, testLog, dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &testEnv{log: testLog, dir: dir, store: store}
}

// newDirectory opens a directory with a fresh, empty cache tier over the shared backup folder.
func (e *testEnv) newDirectory(t *testing.T) *Directory {
	c, err := cache.NewLRUCache(e.log, cache.DefaultCacheSize)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return NewDirectory(tplogcmm.DebugLevel, e.log, c, e.store)
}

func testAddress(t *testing.T, seed byte) tpcrtypes.Address {
	accountID := make([]byte, tpcrtypes.AccountIDLen)
	for i := range accountID {
		accountID[i] = seed
	}
	addr, err := tpcrtypes.NewAddress(42, accountID)
	require.NoError(t, err)
	return addr
}

func encryptedRecord(backup string) Record {
	return Record{SourceKind: SourceKind_EncryptedBackup, EncryptedData: backup}
}

func mnemonicRecord() Record {
	return Record{
		SourceKind: SourceKind_Mnemonic,
		MnemonicData: &MnemonicData{
			Mnemonic:       "bottom drive obey lake curtain smoke basket hold race lonely fit walk",
			KeyringOptions: tpcrtypes.KeyringOptions{CryptType: tpcrtypes.CryptType_Sr25519, AddressFormat: 42},
		},
	}
}

func TestDirectoryBijection(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.newDirectory(t)

	addrA, addrB := testAddress(t, 1), testAddress(t, 2)

	n, err := d.Store(ctx, addrA, encryptedRecord("aa:bb:cc"), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	n, err = d.Store(ctx, addrB, encryptedRecord("dd:ee:ff"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	rec, err := d.LookupByNumber(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, addrB, rec.Address)
	assert.Equal(t, "dd:ee:ff", rec.EncryptedData)

	rec, err = d.LookupByAddress(ctx, addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Number)

	backup, err := env.store.ReadFile(key_store.BackupFileName(addrA))
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc", string(backup))

	require.NoError(t, d.Clear(ctx, addrA))

	_, err = d.LookupByAddress(ctx, addrA)
	assert.ErrorIs(t, err, tpcmm.ErrRecordNotFound)
	_, err = d.LookupByNumber(ctx, 1)
	assert.ErrorIs(t, err, tpcmm.ErrRecordNotFound)
	exist, err := env.store.Exists(key_store.BackupFileName(addrA))
	require.NoError(t, err)
	assert.False(t, exist)

	rec, err = d.LookupByNumber(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, addrB, rec.Address)
	rec, err = d.LookupByAddress(ctx, addrB)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rec.Number)

	assert.ErrorIs(t, d.Clear(ctx, addrA), tpcmm.ErrRecordNotFound)
}

func TestDirectoryNumbersNeverReused(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.newDirectory(t)

	for i := byte(1); i <= 2; i++ {
		_, err := d.Store(ctx, testAddress(t, i), encryptedRecord("aa:bb:cc"), 0)
		require.NoError(t, err)
	}
	require.NoError(t, d.Clear(ctx, testAddress(t, 2)))

	n, err := d.Store(ctx, testAddress(t, 3), encryptedRecord("aa:bb:cc"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	require.NoError(t, d.ClearAll(ctx))
	records, err := d.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
	names, err := env.store.ListEntries()
	require.NoError(t, err)
	assert.Equal(t, []string{key_store.IndexFileName}, names)

	n, err = d.Store(ctx, testAddress(t, 4), encryptedRecord("aa:bb:cc"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
}

func TestDirectoryExplicitNumber(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.newDirectory(t)

	addrA, addrB := testAddress(t, 1), testAddress(t, 2)

	_, err := d.Store(ctx, addrA, encryptedRecord("aa:bb:cc"), 7)
	require.NoError(t, err)

	_, err = d.Store(ctx, addrB, encryptedRecord("dd:ee:ff"), 7)
	assert.ErrorIs(t, err, tpcmm.ErrNumberInUse)
	exist, err := env.store.Exists(key_store.BackupFileName(addrB))
	require.NoError(t, err)
	assert.False(t, exist)

	n, err := d.Store(ctx, addrB, encryptedRecord("dd:ee:ff"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), n)

	// upsert without a number keeps the current one
	n, err = d.Store(ctx, addrA, encryptedRecord("11:22:33"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)

	// renumbering releases the old number for lookups
	n, err = d.Store(ctx, addrA, encryptedRecord("11:22:33"), 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), n)
	_, err = d.LookupByNumber(ctx, 7)
	assert.ErrorIs(t, err, tpcmm.ErrRecordNotFound)

	records, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, addrB, records[0].Address)
	assert.Equal(t, addrA, records[1].Address)
}

func TestDirectoryRevalidatesCacheHit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.newDirectory(t)

	addrA, addrB := testAddress(t, 1), testAddress(t, 2)
	_, err := d.Store(ctx, addrA, encryptedRecord("aa:bb:cc"), 0)
	require.NoError(t, err)
	_, err = d.Store(ctx, addrB, encryptedRecord("dd:ee:ff"), 0)
	require.NoError(t, err)

	require.NoError(t, env.store.WriteFile(key_store.BackupFileName(addrA), []byte("00:11:22")))
	rec, err := d.LookupByAddress(ctx, addrA)
	require.NoError(t, err)
	assert.Equal(t, "00:11:22", rec.EncryptedData)

	require.NoError(t, env.store.Remove(key_store.BackupFileName(addrB)))
	_, err = d.LookupByNumber(ctx, 2)
	assert.ErrorIs(t, err, tpcmm.ErrRecordNotFound)

	records, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, addrA, records[0].Address)
}

func TestDirectoryColdCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.newDirectory(t)

	addrA, addrB := testAddress(t, 1), testAddress(t, 2)
	_, err := d.Store(ctx, addrA, encryptedRecord("aa:bb:cc"), 0)
	require.NoError(t, err)
	_, err = d.Store(ctx, addrB, mnemonicRecord(), 0)
	require.NoError(t, err)

	rec, err := d.LookupByAddress(ctx, addrB)
	require.NoError(t, err)
	require.NotNil(t, rec.MnemonicData)
	assert.Equal(t, tpcrtypes.CryptType_Sr25519, rec.MnemonicData.KeyringOptions.CryptType)

	cold := env.newDirectory(t)

	rec, err = cold.LookupByNumber(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, addrA, rec.Address)
	assert.Equal(t, "aa:bb:cc", rec.EncryptedData)

	// plaintext records live in the cache tier only
	_, err = cold.LookupByAddress(ctx, addrB)
	assert.ErrorIs(t, err, tpcmm.ErrRecordNotFound)

	n, err := cold.Store(ctx, testAddress(t, 3), encryptedRecord("dd:ee:ff"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	raw, err := env.store.ReadFile(key_store.IndexFileName)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bottom drive")
	assert.NotContains(t, string(raw), "aa:bb:cc")
}

func TestDirectoryReadThroughBackupFile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.newDirectory(t)

	addr := testAddress(t, 9)
	require.NoError(t, env.store.WriteFile(key_store.BackupFileName(addr), []byte("aa:bb:cc")))

	rec, err := d.LookupByAddress(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Number)
	assert.Equal(t, SourceKind_EncryptedBackup, rec.SourceKind)

	rec, err = d.LookupByNumber(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, addr, rec.Address)
}

func TestDirectoryLoad(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.newDirectory(t)

	stale := testAddress(t, 5)
	_, err := d.Store(ctx, stale, encryptedRecord("aa:bb:cc"), 0)
	require.NoError(t, err)
	require.NoError(t, env.store.Remove(key_store.BackupFileName(stale)))

	addrs := []tpcrtypes.Address{testAddress(t, 1), testAddress(t, 2)}
	for _, addr := range addrs {
		require.NoError(t, env.store.WriteFile(key_store.BackupFileName(addr), []byte("aa:bb:cc")))
	}
	require.NoError(t, env.store.WriteFile("unrelated_file", []byte("x")))

	require.NoError(t, d.Load(ctx))

	records, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Contains(t, addrs, rec.Address)
		assert.Greater(t, rec.Number, uint64(1))
	}
	assert.Less(t, string(records[0].Address), string(records[1].Address))
}

func TestDirectoryConcurrentStore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.newDirectory(t)

	const count = 20
	numbers := make([]uint64, count)
	addrs := make([]tpcrtypes.Address, count)
	for i := range addrs {
		addrs[i] = testAddress(t, byte(i+1))
	}

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := d.Store(ctx, addrs[i], encryptedRecord(fmt.Sprintf("aa:bb:%02x", i)), 0)
			assert.NoError(t, err)
			numbers[i] = n
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, n := range numbers {
		assert.False(t, seen[n], "number %d assigned twice", n)
		seen[n] = true
		assert.True(t, n >= 1 && n <= count)
	}

	records, err := d.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, count)
}

func TestDirectoryRejectsInvalidRecord(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d := env.newDirectory(t)

	_, err := d.Store(ctx, tpcrtypes.Address("bogus"), encryptedRecord("aa:bb:cc"), 0)
	assert.Error(t, err)

	_, err = d.Store(ctx, testAddress(t, 1), Record{SourceKind: SourceKind_EncryptedBackup}, 0)
	assert.Error(t, err)

	_, err = d.Store(ctx, testAddress(t, 1), Record{SourceKind: SourceKind_Mnemonic}, 0)
	assert.Error(t, err)
}

var errDiskFull = errors.New("disk full")

// indexFailingStore refuses to write the durable index while failIndex is set.
type indexFailingStore struct {
	key_store.DurableStore
	failIndex bool
}

func (s *indexFailingStore) WriteFile(name string, data []byte) error {
	if s.failIndex && name == key_store.IndexFileName {
		return errDiskFull
	}
	return s.DurableStore.WriteFile(name, data)
}

func (e *testEnv) newFailingDirectory(t *testing.T) (*Directory, *indexFailingStore) {
	c, err := cache.NewLRUCache(e.log, cache.DefaultCacheSize)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	store := &indexFailingStore{DurableStore: e.store}
	return NewDirectory(tplogcmm.DebugLevel, e.log, c, store), store
}

func TestDirectoryStoreRollsBackNewBackup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d, store := env.newFailingDirectory(t)
	addr := testAddress(t, 1)

	store.failIndex = true
	_, err := d.Store(ctx, addr, encryptedRecord("aa:bb:cc"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, tpcmm.ErrDirectoryIO)
	assert.ErrorIs(t, err, errDiskFull)

	exists, err := env.store.Exists(key_store.BackupFileName(addr))
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = d.LookupByAddress(ctx, addr)
	assert.ErrorIs(t, err, tpcmm.ErrRecordNotFound)

	require.NoError(t, d.Load(ctx))
	records, err := d.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	store.failIndex = false
	n, err := d.Store(ctx, addr, encryptedRecord("aa:bb:cc"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestDirectoryStoreRestoresPreviousBackup(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	d, store := env.newFailingDirectory(t)
	addr := testAddress(t, 2)

	n, err := d.Store(ctx, addr, encryptedRecord("aa:bb:cc"), 0)
	require.NoError(t, err)

	store.failIndex = true
	_, err = d.Store(ctx, addr, encryptedRecord("dd:ee:ff"), 0)
	assert.ErrorIs(t, err, tpcmm.ErrDirectoryIO)

	data, err := env.store.ReadFile(key_store.BackupFileName(addr))
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc", string(data))

	_, err = d.Store(ctx, addr, mnemonicRecord(), 0)
	assert.ErrorIs(t, err, tpcmm.ErrDirectoryIO)

	data, err = env.store.ReadFile(key_store.BackupFileName(addr))
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc", string(data))

	store.failIndex = false
	rec, err := d.LookupByAddress(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, n, rec.Number)
	assert.Equal(t, "aa:bb:cc", rec.EncryptedData)
}
