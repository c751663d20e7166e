package wallet

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	"github.com/TopiaNetwork/topia-vault/configuration"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
	"github.com/TopiaNetwork/topia-vault/wallet/directory"
	"github.com/TopiaNetwork/topia-vault/wallet/key_store"
)

func createTestConfig(t *testing.T) *configuration.VaultConfiguration {
	config := configuration.DefVaultConfiguration(t.TempDir())
	config.CacheBackend = "lru"
	return config
}

func createTestManager(t *testing.T, config *configuration.VaultConfiguration) *Manager {
	m, err := NewManager(tplogcmm.DebugLevel, createTestLogger(t), config)
	require.NoError(t, err)
	return m
}

func TestManagerScenarioEject(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, createTestConfig(t))
	defer m.Close()

	created, err := m.GenerateNew(ctx, "pw1", nil)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(created.Mnemonic), 24)
	assert.Equal(t, uint64(1), created.Number)
	assert.Len(t, strings.Split(created.EncryptedBackup, ":"), 3)

	addr, err := m.GetAddress(created.Wallet)
	require.NoError(t, err)

	_, err = m.Eject(ctx, addr, "pw2")
	assert.ErrorIs(t, err, tpcmm.ErrDecryptionFailed)

	payload, err := m.Eject(ctx, addr, "pw1")
	require.NoError(t, err)
	assert.Equal(t, created.Mnemonic, payload.Mnemonic)
	assert.Equal(t, tpcrtypes.CryptType_Sr25519, payload.KeyringOptions.CryptType)

	_, err = m.LoadByAddress(ctx, addr, "pw1")
	assert.ErrorIs(t, err, tpcmm.ErrRecordNotFound)
	_, err = m.LoadByNumber(ctx, 1, "pw1")
	assert.ErrorIs(t, err, tpcmm.ErrRecordNotFound)
}

func TestManagerSequentialNumbers(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, createTestConfig(t))
	defer m.Close()

	first, err := m.ImportFromMnemonic(ctx, devPhrase, "pw", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Number)

	second, err := m.ImportFromMnemonic(ctx, devPhrase, "pw", nil, &tpcrtypes.DerivationPath{HardDerivation: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Number)

	addrB, err := second.Wallet.Address()
	require.NoError(t, err)

	w, err := m.LoadByNumber(ctx, 2, "pw")
	require.NoError(t, err)
	loaded, err := w.Address()
	require.NoError(t, err)
	assert.Equal(t, addrB, loaded)

	_, err = m.LoadByNumber(ctx, 2, "")
	assert.ErrorIs(t, err, tpcmm.ErrPasswordRequired)

	// re-importing keeps the number
	again, err := m.ImportFromMnemonic(ctx, devPhrase, "pw", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), again.Number)
}

func TestManagerPlaintextRecord(t *testing.T) {
	ctx := context.Background()
	config := createTestConfig(t)
	m := createTestManager(t, config)
	defer m.Close()

	created, err := m.ImportFromMnemonic(ctx, devPhrase, "", &tpcrtypes.KeyringOptions{CryptType: tpcrtypes.CryptType_Ed25519, AddressFormat: 0}, nil)
	require.NoError(t, err)
	assert.Empty(t, created.EncryptedBackup)

	addr, err := created.Wallet.Address()
	require.NoError(t, err)

	exist, err := m.store.Exists(key_store.BackupFileName(addr))
	require.NoError(t, err)
	assert.False(t, exist)

	w, err := m.LoadByAddress(ctx, addr, "")
	require.NoError(t, err)
	ct, err := w.CryptType()
	require.NoError(t, err)
	assert.Equal(t, tpcrtypes.CryptType_Ed25519, ct)

	records, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, directory.SourceKind_Mnemonic, records[0].SourceKind)
}

func TestManagerSignVerify(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, createTestConfig(t))
	defer m.Close()

	created, err := m.GenerateNew(ctx, "pw", nil)
	require.NoError(t, err)
	addr, err := m.GetAddress(created.Wallet)
	require.NoError(t, err)

	w, err := m.LoadByAddress(ctx, addr, "pw")
	require.NoError(t, err)

	msg := []byte("hello topia")
	sig, err := m.Sign(msg, w)
	require.NoError(t, err)

	ok, err := m.Verify(msg, sig, string(addr), tpcrtypes.CryptType_Unknown)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Verify([]byte("hello topiA"), sig, string(addr), tpcrtypes.CryptType_Sr25519)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Sign(nil, w)
	assert.ErrorIs(t, err, tpcmm.ErrEmptyMessage)
	_, err = m.Verify(msg, nil, string(addr), tpcrtypes.CryptType_Sr25519)
	assert.ErrorIs(t, err, tpcmm.ErrEmptySignature)
}

func TestManagerRestart(t *testing.T) {
	ctx := context.Background()
	config := createTestConfig(t)

	m := createTestManager(t, config)
	created, err := m.GenerateNew(ctx, "pw", nil)
	require.NoError(t, err)
	addr, err := created.Wallet.Address()
	require.NoError(t, err)
	require.NoError(t, m.Close())

	m = createTestManager(t, config)
	defer m.Close()

	w, err := m.LoadByNumber(ctx, created.Number, "pw")
	require.NoError(t, err)
	loaded, err := w.Address()
	require.NoError(t, err)
	assert.Equal(t, addr, loaded)

	next, err := m.GenerateNew(ctx, "pw", nil)
	require.NoError(t, err)
	assert.Equal(t, created.Number+1, next.Number)
}

func TestManagerReopenWithChangedConfig(t *testing.T) {
	ctx := context.Background()
	config := createTestConfig(t)

	m := createTestManager(t, config)
	created, err := m.GenerateNew(ctx, "pw", nil)
	require.NoError(t, err)
	addr, err := created.Wallet.Address()
	require.NoError(t, err)
	require.NoError(t, m.Close())

	changed := *config
	changed.CryptType = tpcrtypes.CryptType_Ed25519
	changed.AddressFormat = 0
	changed.CacheSize = 16
	changed.MnemonicWords = 12

	m = createTestManager(t, &changed)
	defer m.Close()

	w, err := m.LoadByAddress(ctx, addr, "pw")
	require.NoError(t, err)
	loaded, err := w.Address()
	require.NoError(t, err)
	assert.Equal(t, addr, loaded)
	ct, err := w.CryptType()
	require.NoError(t, err)
	assert.Equal(t, tpcrtypes.CryptType_Sr25519, ct)

	_, err = m.LoadByAddress(ctx, addr, "wrong")
	assert.ErrorIs(t, err, tpcmm.ErrDecryptionFailed)
}

func TestManagerRecoversBackupFiles(t *testing.T) {
	ctx := context.Background()
	config := createTestConfig(t)

	m := createTestManager(t, config)
	created, err := m.ImportFromMnemonic(ctx, devPhrase, "pw", nil, nil)
	require.NoError(t, err)
	addr, err := created.Wallet.Address()
	require.NoError(t, err)
	require.NoError(t, m.store.Remove(key_store.IndexFileName))
	require.NoError(t, m.Close())

	m = createTestManager(t, config)
	defer m.Close()

	records, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, addr, records[0].Address)

	_, err = m.LoadByAddress(ctx, addr, "pw")
	require.NoError(t, err)
}

func TestManagerClear(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, createTestConfig(t))
	defer m.Close()

	var addrs []tpcrtypes.Address
	for i := 0; i < 3; i++ {
		created, err := m.GenerateNew(ctx, "pw", nil)
		require.NoError(t, err)
		addr, err := created.Wallet.Address()
		require.NoError(t, err)
		addrs = append(addrs, addr)
	}

	require.NoError(t, m.Clear(ctx, addrs[0]))
	_, err := m.LoadByAddress(ctx, addrs[0], "pw")
	assert.ErrorIs(t, err, tpcmm.ErrRecordNotFound)
	_, err = m.LoadByAddress(ctx, addrs[1], "pw")
	require.NoError(t, err)

	require.NoError(t, m.ClearAll(ctx))
	records, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	created, err := m.GenerateNew(ctx, "pw", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), created.Number)
}

func TestManagerConcurrentGenerate(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, createTestConfig(t))
	defer m.Close()

	const count = 8
	numbers := make([]uint64, count)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := m.GenerateNew(ctx, "pw", nil)
			if assert.NoError(t, err) {
				numbers[i] = created.Number
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, n := range numbers {
		assert.False(t, seen[n], "number %d assigned twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, count)
}

func TestManagerInvalidInput(t *testing.T) {
	ctx := context.Background()
	m := createTestManager(t, createTestConfig(t))
	defer m.Close()

	_, err := m.ImportFromMnemonic(ctx, "bottom drive obey", "pw", nil, nil)
	assert.ErrorIs(t, err, tpcmm.ErrInvalidMnemonic)

	_, err = m.ImportFromMnemonic(ctx, devPhrase, "pw", &tpcrtypes.KeyringOptions{CryptType: tpcrtypes.CryptType_Unknown}, nil)
	assert.ErrorIs(t, err, tpcmm.ErrUnsupportedAlgorithm)

	_, err = m.ImportFromMnemonic(ctx, devPhrase, "pw", &tpcrtypes.KeyringOptions{CryptType: tpcrtypes.CryptType_Ecdsa}, &tpcrtypes.DerivationPath{SoftDerivation: "0"})
	assert.ErrorIs(t, err, tpcmm.ErrInvalidDerivation)

	_, err = m.GetAddress(nil)
	assert.ErrorIs(t, err, tpcmm.ErrWalletNotReady)

	records, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAddrLocker(t *testing.T) {
	l := newAddrLocker()
	addr := tpcrtypes.Address("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY")

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(addr)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Empty(t, l.entries)
}
