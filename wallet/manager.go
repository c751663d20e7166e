package wallet

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	"github.com/TopiaNetwork/topia-vault/configuration"
	"github.com/TopiaNetwork/topia-vault/crypt"
	"github.com/TopiaNetwork/topia-vault/crypt/kdf"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
	"github.com/TopiaNetwork/topia-vault/vault"
	"github.com/TopiaNetwork/topia-vault/wallet/cache"
	"github.com/TopiaNetwork/topia-vault/wallet/directory"
	"github.com/TopiaNetwork/topia-vault/wallet/key_store"
	"github.com/TopiaNetwork/topia-vault/wallet/key_store/file_key_store"
)

// kdfIterations is fixed: backups do not record the count, so changing it would
// make every existing backup undecryptable.
var kdfIterations = kdf.DefaultIterations

// Created is the result of generating or importing a wallet. EncryptedBackup is
// empty when the wallet was stored without a password.
type Created struct {
	Wallet          *Wallet
	Mnemonic        string
	EncryptedBackup string
	Number          uint64
}

// Manager composes key derivation, the vault and the directory into the wallet
// operations exposed to callers.
type Manager struct {
	log       tplog.Logger
	config    *configuration.VaultConfiguration
	keyring   *crypt.Keyring
	vault     *vault.Vault
	dir       *directory.Directory
	cache     cache.Cache
	store     key_store.DurableStore
	addrLocks *addrLocker
	loadOnce  onceWithErr
}

// NewManager opens the backup folder and the cache backend named by config.
func NewManager(level tplogcmm.LogLevel, log tplog.Logger, config *configuration.VaultConfiguration) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	backend, err := cache.ParseBackendType(config.CacheBackend)
	if err != nil {
		return nil, err
	}

	store, err := file_key_store.NewFileKeyStore(level, log, config.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("%w: open backup folder %s: %v", tpcmm.ErrDirectoryIO, config.BackupDir, err)
	}

	c, err := cache.NewCache(level, log, backend, config.CachePath, config.CacheSize)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: open %s cache: %v", tpcmm.ErrDirectoryIO, backend, err)
	}

	return NewManagerWithBackends(level, log, config, c, store), nil
}

// NewManagerWithBackends takes ownership of c and store; Close closes both.
func NewManagerWithBackends(level tplogcmm.LogLevel, log tplog.Logger, config *configuration.VaultConfiguration, c cache.Cache, store key_store.DurableStore) *Manager {
	wLog := tplog.CreateModuleLogger(level, MOD_NAME, log)

	return &Manager{
		log:       wLog,
		config:    config,
		keyring:   crypt.NewKeyring(wLog),
		vault:     vault.NewVault(level, log, kdfIterations, nil),
		dir:       directory.NewDirectory(level, log, c, store),
		cache:     c,
		store:     store,
		addrLocks: newAddrLocker(),
	}
}

func (m *Manager) ensureLoaded(ctx context.Context) error {
	return m.loadOnce.Do(func() error {
		return m.dir.Load(ctx)
	})
}

func (m *Manager) newWallet() *Wallet {
	return NewWallet(m.log, m.keyring, m.vault, m.config.KeyringOptions())
}

func (m *Manager) GenerateNew(ctx context.Context, password string, opts *tpcrtypes.KeyringOptions) (*Created, error) {
	mnemonic, err := crypt.NewMnemonic(m.config.MnemonicWords, nil)
	if err != nil {
		return nil, err
	}

	return m.create(ctx, mnemonic, password, opts, nil)
}

func (m *Manager) ImportFromMnemonic(ctx context.Context, mnemonic string, password string, opts *tpcrtypes.KeyringOptions, derivation *tpcrtypes.DerivationPath) (*Created, error) {
	return m.create(ctx, mnemonic, password, opts, derivation)
}

// create persists an encrypted backup when password is set, a cache-only plaintext
// record otherwise.
func (m *Manager) create(ctx context.Context, mnemonic string, password string, opts *tpcrtypes.KeyringOptions, derivation *tpcrtypes.DerivationPath) (*Created, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	w := m.newWallet()
	err := w.Construct(FromMnemonic{Mnemonic: mnemonic, Options: opts, Derivation: derivation})
	if err != nil {
		return nil, err
	}

	addr, _ := w.Address()
	unlock := m.addrLocks.Lock(addr)
	defer unlock()

	payload, err := w.Payload()
	if err != nil {
		return nil, err
	}

	rec := directory.Record{}
	if password != "" {
		data, err := payload.Marshal()
		if err != nil {
			w.Forget()
			return nil, err
		}
		backup, err := m.vault.Encrypt(data, password)
		tpcmm.Wipe(data)
		if err != nil {
			w.Forget()
			return nil, fmt.Errorf("encrypt backup of %s: %w", addr, err)
		}
		rec.SourceKind = directory.SourceKind_EncryptedBackup
		rec.EncryptedData = backup
	} else {
		rec.SourceKind = directory.SourceKind_Mnemonic
		rec.MnemonicData = payload.mnemonicData()
		m.log.Warnf("Wallet %s stored without password, kept in the cache tier only", addr)
	}

	number, err := m.dir.Store(ctx, addr, rec, 0)
	if err != nil {
		w.Forget()
		return nil, err
	}

	m.log.Infof("Created wallet #%d %s", number, addr)
	return &Created{
		Wallet:          w,
		Mnemonic:        payload.Mnemonic,
		EncryptedBackup: rec.EncryptedData,
		Number:          number,
	}, nil
}

func (m *Manager) LoadByNumber(ctx context.Context, number uint64, password string) (*Wallet, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	rec, err := m.dir.LookupByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	return m.LoadByAddress(ctx, rec.Address, password)
}

func (m *Manager) LoadByAddress(ctx context.Context, addr tpcrtypes.Address, password string) (*Wallet, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	unlock := m.addrLocks.Lock(addr)
	defer unlock()

	return m.loadLocked(ctx, addr, password)
}

func (m *Manager) loadLocked(ctx context.Context, addr tpcrtypes.Address, password string) (*Wallet, error) {
	rec, err := m.dir.LookupByAddress(ctx, addr)
	if err != nil {
		return nil, err
	}

	var src Source
	switch rec.SourceKind {
	case directory.SourceKind_Mnemonic:
		md := rec.MnemonicData
		if md == nil {
			return nil, fmt.Errorf("%w: wallet #%d %s has no mnemonic data", tpcmm.ErrSchemaValidation, rec.Number, addr)
		}
		opts := md.KeyringOptions
		src = FromMnemonic{Mnemonic: md.Mnemonic, Options: &opts, Derivation: md.Derivation}
	case directory.SourceKind_EncryptedBackup:
		if password == "" {
			return nil, fmt.Errorf("%w: wallet #%d %s is encrypted", tpcmm.ErrPasswordRequired, rec.Number, addr)
		}
		src = FromEncryptedBackup{Backup: rec.EncryptedData, Password: password}
	default:
		return nil, fmt.Errorf("%w: wallet #%d %s has unknown source kind %q", tpcmm.ErrSchemaValidation, rec.Number, addr, rec.SourceKind)
	}

	w := m.newWallet()
	if err = w.Construct(src); err != nil {
		return nil, fmt.Errorf("load wallet #%d %s: %w", rec.Number, addr, err)
	}

	if got, _ := w.Address(); got != addr {
		w.Forget()
		return nil, fmt.Errorf("%w: record of %s derives %s", tpcmm.ErrMalformedBackup, addr, got)
	}

	return w, nil
}

// Eject reveals the secret tuple of addr and then clears its directory entry.
func (m *Manager) Eject(ctx context.Context, addr tpcrtypes.Address, password string) (*Payload, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	unlock := m.addrLocks.Lock(addr)
	defer unlock()

	w, err := m.loadLocked(ctx, addr, password)
	if err != nil {
		return nil, err
	}
	defer w.Forget()

	payload, err := w.Payload()
	if err != nil {
		return nil, err
	}

	if err = m.dir.Clear(ctx, addr); err != nil {
		return nil, err
	}

	m.log.Infof("Ejected wallet %s", addr)
	return payload, nil
}

func (m *Manager) GetAddress(w *Wallet) (tpcrtypes.Address, error) {
	if w == nil {
		return tpcrtypes.UndefAddress, tpcmm.ErrWalletNotReady
	}
	return w.Address()
}

func (m *Manager) Sign(msg []byte, w *Wallet) (tpcrtypes.Signature, error) {
	return Sign(msg, w)
}

// Verify checks signData against a 0x-hex public key or an SS58 address. Without a
// crypt type a 32-byte key is tried as sr25519, then as ed25519.
func (m *Manager) Verify(msg []byte, signData tpcrtypes.Signature, publicKeyOrAddress string, cryptType tpcrtypes.CryptType) (bool, error) {
	return Verify(m.keyring, msg, signData, publicKeyOrAddress, cryptType)
}

func (m *Manager) Clear(ctx context.Context, addr tpcrtypes.Address) error {
	if err := m.ensureLoaded(ctx); err != nil {
		return err
	}

	unlock := m.addrLocks.Lock(addr)
	defer unlock()

	return m.dir.Clear(ctx, addr)
}

func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.ensureLoaded(ctx); err != nil {
		return err
	}

	return m.dir.ClearAll(ctx)
}

func (m *Manager) List(ctx context.Context) ([]*directory.Record, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	return m.dir.List(ctx)
}

func (m *Manager) Close() error {
	var errs *multierror.Error
	if err := m.cache.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close cache: %w", err))
	}
	if err := m.store.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close backup folder: %w", err))
	}
	return errs.ErrorOrNil()
}
