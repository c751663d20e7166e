package wallet

import (
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	"github.com/TopiaNetwork/topia-vault/wallet/directory"
)

// Source describes how a wallet is constructed. The set of variants is closed:
// FromMnemonic and FromEncryptedBackup. A new variant needs a new sourceVisitor
// method, so every dispatch site stops compiling until it handles it.
type Source interface {
	accept(v sourceVisitor) error

	Kind() directory.SourceKind
}

type sourceVisitor interface {
	visitMnemonic(src FromMnemonic) error
	visitEncryptedBackup(src FromEncryptedBackup) error
}

// FromMnemonic derives the wallet from a phrase. Nil Options fall back to the
// configured defaults.
type FromMnemonic struct {
	Mnemonic   string
	Options    *tpcrtypes.KeyringOptions
	Derivation *tpcrtypes.DerivationPath
}

func (s FromMnemonic) accept(v sourceVisitor) error {
	return v.visitMnemonic(s)
}

func (s FromMnemonic) Kind() directory.SourceKind {
	return directory.SourceKind_Mnemonic
}

// FromEncryptedBackup decrypts a "saltHex:nonceHex:ciphertextHex" backup with Password.
type FromEncryptedBackup struct {
	Backup   string
	Password string
}

func (s FromEncryptedBackup) accept(v sourceVisitor) error {
	return v.visitEncryptedBackup(s)
}

func (s FromEncryptedBackup) Kind() directory.SourceKind {
	return directory.SourceKind_EncryptedBackup
}
