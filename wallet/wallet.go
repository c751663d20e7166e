package wallet

import (
	"fmt"
	"sync"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	"github.com/TopiaNetwork/topia-vault/crypt"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
	"github.com/TopiaNetwork/topia-vault/vault"
	"github.com/TopiaNetwork/topia-vault/wallet/directory"
)

const MOD_NAME = "wallet"

// Wallet owns exactly one keypair once Ready. It is immutable after construction:
// switching accounts means constructing a new Wallet.
type Wallet struct {
	log      tplog.Logger
	keyring  *crypt.Keyring
	vault    *vault.Vault
	defaults tpcrtypes.KeyringOptions

	mutex      sync.RWMutex
	state      State
	failure    error
	sourceKind directory.SourceKind
	backup     string
	keypair    *tpcrtypes.Keypair
	address    tpcrtypes.Address
	payload    *Payload
}

func NewWallet(log tplog.Logger, keyring *crypt.Keyring, v *vault.Vault, defaults tpcrtypes.KeyringOptions) *Wallet {
	return &Wallet{
		log:      log,
		keyring:  keyring,
		vault:    v,
		defaults: defaults,
		state:    State_Uninitialized,
	}
}

// constructor resolves a Source into key material for one Wallet.
type constructor struct {
	w *Wallet
}

func (c *constructor) visitMnemonic(src FromMnemonic) error {
	opts := c.w.defaults
	if src.Options != nil {
		opts = *src.Options
	}

	mnemonic, err := crypt.NormalizeMnemonic(src.Mnemonic)
	if err != nil {
		return err
	}

	kp, err := c.w.keyring.DeriveKeypair(mnemonic, opts, src.Derivation)
	if err != nil {
		return err
	}
	addr, err := c.w.keyring.DeriveAddress(kp, opts.AddressFormat)
	if err != nil {
		kp.Wipe()
		return err
	}

	payload := &Payload{
		Mnemonic:       mnemonic,
		KeyringOptions: &opts,
	}
	if !src.Derivation.IsEmpty() {
		d := *src.Derivation
		payload.Derivation = &d
	}

	c.w.keypair = kp
	c.w.address = addr
	c.w.payload = payload
	return nil
}

func (c *constructor) visitEncryptedBackup(src FromEncryptedBackup) error {
	if len(src.Password) == 0 {
		return tpcmm.ErrPasswordRequired
	}

	plaintext, err := c.w.vault.Decrypt(src.Backup, src.Password)
	if err != nil {
		return err
	}
	defer tpcmm.Wipe(plaintext)

	payload, err := ParsePayload(plaintext)
	if err != nil {
		return err
	}

	err = c.visitMnemonic(FromMnemonic{
		Mnemonic:   payload.Mnemonic,
		Options:    payload.KeyringOptions,
		Derivation: payload.Derivation,
	})
	if err != nil {
		return err
	}

	c.w.backup = src.Backup
	return nil
}

// Construct runs Uninitialized -> Constructing -> Ready | Failed. It may run once.
func (w *Wallet) Construct(src Source) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.state != State_Uninitialized {
		return fmt.Errorf("%w: state %s", tpcmm.ErrAlreadyConstructed, w.state)
	}
	if src == nil {
		w.fail(fmt.Errorf("%w: nil source", tpcmm.ErrKeypairMissing))
		return w.failure
	}
	w.state = State_Constructing
	w.sourceKind = src.Kind()

	err := src.accept(&constructor{w: w})
	if err != nil {
		w.fail(fmt.Errorf("construct wallet from %s: %w", src.Kind(), err))
		return w.failure
	}

	if w.keypair == nil {
		w.fail(tpcmm.ErrKeypairMissing)
		return w.failure
	}

	w.state = State_Ready
	w.log.Debugf("Wallet %s ready from %s", w.address, w.sourceKind)
	return nil
}

func (w *Wallet) fail(err error) {
	w.wipeLocked()
	w.state = State_Failed
	w.failure = err
}

func (w *Wallet) wipeLocked() {
	if w.keypair != nil {
		w.keypair.Wipe()
		w.keypair = nil
	}
	if w.payload != nil {
		w.payload.Mnemonic = ""
		w.payload = nil
	}
	w.backup = ""
}

// Forget drops the keypair and the mnemonic. The wallet ends Failed and can not sign again.
func (w *Wallet) Forget() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.wipeLocked()
	w.state = State_Failed
	w.failure = tpcmm.ErrWalletForgotten
}

func (w *Wallet) State() State {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	return w.state
}

// Err is the failure cause of a Failed wallet.
func (w *Wallet) Err() error {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	return w.failure
}

func (w *Wallet) readyErrLocked() error {
	if w.state == State_Ready {
		return nil
	}
	if w.failure != nil {
		return fmt.Errorf("%w: %v", tpcmm.ErrWalletNotReady, w.failure)
	}
	return fmt.Errorf("%w: state %s", tpcmm.ErrWalletNotReady, w.state)
}

func (w *Wallet) Address() (tpcrtypes.Address, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if err := w.readyErrLocked(); err != nil {
		return tpcrtypes.UndefAddress, err
	}
	return w.address, nil
}

func (w *Wallet) PublicKey() (tpcrtypes.PublicKey, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if err := w.readyErrLocked(); err != nil {
		return nil, err
	}
	return tpcmm.BytesCopy(w.keypair.PublicKey), nil
}

func (w *Wallet) CryptType() (tpcrtypes.CryptType, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if err := w.readyErrLocked(); err != nil {
		return tpcrtypes.CryptType_Unknown, err
	}
	return w.keypair.CryptType, nil
}

func (w *Wallet) SourceKind() directory.SourceKind {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	return w.sourceKind
}

// EncryptedBackup is the backup a FromEncryptedBackup wallet was built from, or empty.
func (w *Wallet) EncryptedBackup() string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	return w.backup
}

// Payload returns a copy of the secret tuple of a Ready wallet.
func (w *Wallet) Payload() (*Payload, error) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if err := w.readyErrLocked(); err != nil {
		return nil, err
	}
	return payloadFromMnemonicData(w.payload.mnemonicData()), nil
}

func (w *Wallet) Sign(msg []byte) (tpcrtypes.Signature, error) {
	if len(msg) == 0 {
		return nil, tpcmm.ErrEmptyMessage
	}

	w.mutex.RLock()
	defer w.mutex.RUnlock()

	if err := w.readyErrLocked(); err != nil {
		return nil, err
	}
	return w.keypair.Sign(msg)
}
