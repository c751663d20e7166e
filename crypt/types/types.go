package types

import (
	"fmt"
	"strings"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
)

type PrivateKey []byte

type PublicKey []byte

type Signature []byte

type CryptType byte

const (
	CryptType_Unknown CryptType = iota
	CryptType_Ed25519
	CryptType_Sr25519
	CryptType_Ecdsa
)

var cryptTypeNames = map[CryptType]string{
	CryptType_Ed25519: "ed25519",
	CryptType_Sr25519: "sr25519",
	CryptType_Ecdsa:   "ecdsa",
}

func (c CryptType) String() string {
	if name, ok := cryptTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", byte(c))
}

// ParseCryptType maps "sr25519", "ed25519" or "ecdsa" (case-insensitive) onto a CryptType.
func ParseCryptType(s string) (CryptType, error) {
	for ct, name := range cryptTypeNames {
		if strings.EqualFold(name, s) {
			return ct, nil
		}
	}
	return CryptType_Unknown, fmt.Errorf("%w: %q", tpcmm.ErrUnsupportedAlgorithm, s)
}

func (c CryptType) MarshalText() ([]byte, error) {
	if _, ok := cryptTypeNames[c]; !ok {
		return nil, fmt.Errorf("%w: %d", tpcmm.ErrUnsupportedAlgorithm, byte(c))
	}
	return []byte(c.String()), nil
}

func (c *CryptType) UnmarshalText(text []byte) error {
	ct, err := ParseCryptType(string(text))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// KeyringOptions selects the signature scheme and the address network format of a wallet.
type KeyringOptions struct {
	CryptType     CryptType `json:"cryptoAlgorithm"`
	AddressFormat uint16    `json:"addressFormat"`
	GenesisHash   []byte    `json:"genesisHash,omitempty"`
}

// DerivationPath holds the optional SURI components appended to a mnemonic.
type DerivationPath struct {
	KeypairPassword string `json:"keypairPassword,omitempty"`
	HardDerivation  string `json:"hardDerivation,omitempty"`
	SoftDerivation  string `json:"softDerivation,omitempty"`
}

func (d *DerivationPath) IsEmpty() bool {
	return d == nil || (d.KeypairPassword == "" && d.HardDerivation == "" && d.SoftDerivation == "")
}

type Signer interface {
	Sign(msg []byte) ([]byte, error)
}

// Keypair is derived key material. It is never serialized; only the mnemonic tuple
// that produced it is persisted.
type Keypair struct {
	CryptType CryptType
	PublicKey PublicKey

	seed   PrivateKey
	signer Signer
}

func NewKeypair(cryptType CryptType, pubKey PublicKey, seed []byte, signer Signer) *Keypair {
	return &Keypair{
		CryptType: cryptType,
		PublicKey: pubKey,
		seed:      tpcmm.BytesCopy(seed),
		signer:    signer,
	}
}

func (k *Keypair) Sign(msg []byte) (Signature, error) {
	if k == nil || k.signer == nil {
		return nil, tpcmm.ErrKeypairMissing
	}
	return k.signer.Sign(msg)
}

func (k *Keypair) Seed() PrivateKey {
	return k.seed
}

// Wipe zeroes the seed copy and drops the signer.
func (k *Keypair) Wipe() {
	if k == nil {
		return
	}
	tpcmm.Wipe(k.seed)
	k.seed = nil
	k.signer = nil
}

func (k *Keypair) AccountID() ([]byte, error) {
	return AccountID(k.CryptType, k.PublicKey)
}
