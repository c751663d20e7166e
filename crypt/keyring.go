package crypt

import (
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
)

const (
	MinMnemonicWords = 12
	MaxMnemonicWords = 24
)

// Keyring turns mnemonics into keypairs and addresses. It holds no key material.
type Keyring struct {
	log tplog.Logger
}

func NewKeyring(log tplog.Logger) *Keyring {
	return &Keyring{log: log}
}

// NormalizeMnemonic collapses runs of whitespace and checks the word count before
// the BIP-39 checksum.
func NormalizeMnemonic(mnemonic string) (string, error) {
	words := strings.Fields(mnemonic)
	if len(words) < MinMnemonicWords || len(words) > MaxMnemonicWords {
		return "", fmt.Errorf("%w: %d words, expected %d-%d", tpcmm.ErrInvalidMnemonic, len(words), MinMnemonicWords, MaxMnemonicWords)
	}

	normalized := strings.Join(words, " ")
	if !bip39.IsMnemonicValid(normalized) {
		return "", fmt.Errorf("%w: checksum mismatch or unknown word", tpcmm.ErrInvalidMnemonic)
	}
	return normalized, nil
}

// BuildSURI appends the derivation components in the order the derivation
// library parses them: phrase//hard/soft///password.
func BuildSURI(mnemonic string, derivation *tpcrtypes.DerivationPath) (string, error) {
	if derivation.IsEmpty() {
		return mnemonic, nil
	}

	for name, part := range map[string]string{
		"hardDerivation":  derivation.HardDerivation,
		"softDerivation":  derivation.SoftDerivation,
		"keypairPassword": derivation.KeypairPassword,
	} {
		if strings.Contains(part, "/") {
			return "", fmt.Errorf("%w: %s contains '/'", tpcmm.ErrInvalidDerivation, name)
		}
	}

	var sb strings.Builder
	sb.WriteString(mnemonic)
	if derivation.HardDerivation != "" {
		sb.WriteString("//")
		sb.WriteString(derivation.HardDerivation)
	}
	if derivation.SoftDerivation != "" {
		sb.WriteString("/")
		sb.WriteString(derivation.SoftDerivation)
	}
	if derivation.KeypairPassword != "" {
		sb.WriteString("///")
		sb.WriteString(derivation.KeypairPassword)
	}
	return sb.String(), nil
}

// DeriveKeypair is deterministic in (mnemonic, options, derivation).
func (k *Keyring) DeriveKeypair(mnemonic string, opts tpcrtypes.KeyringOptions, derivation *tpcrtypes.DerivationPath) (*tpcrtypes.Keypair, error) {
	normalized, err := NormalizeMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	cs, err := CreateCryptService(k.log, opts.CryptType)
	if err != nil {
		return nil, err
	}

	if derivation != nil && derivation.SoftDerivation != "" && !cs.SupportsSoftDerivation() {
		return nil, fmt.Errorf("%w: soft derivation is not supported by %s", tpcmm.ErrInvalidDerivation, opts.CryptType.String())
	}

	suri, err := BuildSURI(normalized, derivation)
	if err != nil {
		return nil, err
	}

	kp, err := cs.DeriveKeypair(suri)
	if err != nil {
		return nil, fmt.Errorf("%w: %s derive: %v", tpcmm.ErrInvalidDerivation, opts.CryptType.String(), err)
	}

	return kp, nil
}

func (k *Keyring) DeriveAddress(kp *tpcrtypes.Keypair, addressFormat uint16) (tpcrtypes.Address, error) {
	if kp == nil {
		return tpcrtypes.UndefAddress, tpcmm.ErrKeypairMissing
	}

	cs, err := CreateCryptService(k.log, kp.CryptType)
	if err != nil {
		return tpcrtypes.UndefAddress, err
	}

	return cs.CreateAddress(kp.PublicKey, addressFormat)
}

// Verify checks signData against a raw public key.
func (k *Keyring) Verify(cryptType tpcrtypes.CryptType, pubKey tpcrtypes.PublicKey, msg []byte, signData tpcrtypes.Signature) (bool, error) {
	cs, err := CreateCryptService(k.log, cryptType)
	if err != nil {
		return false, err
	}

	return cs.Verify(pubKey, msg, signData)
}

// NewMnemonic creates a fresh BIP-39 phrase of 12, 15, 18, 21 or 24 words. A nil
// reader draws entropy from the process CSPRNG.
func NewMnemonic(words int, r io.Reader) (string, error) {
	if words < MinMnemonicWords || words > MaxMnemonicWords || words%3 != 0 {
		return "", fmt.Errorf("%w: unsupported word count %d", tpcmm.ErrInvalidMnemonic, words)
	}

	entropy, err := tpcmm.RandBytes(r, words/3*4)
	if err != nil {
		return "", err
	}
	defer tpcmm.Wipe(entropy)

	return bip39.NewMnemonic(entropy)
}
