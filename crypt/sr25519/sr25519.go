package sr25519

import (
	"errors"
	"fmt"

	subkey "github.com/vedhavyas/go-subkey/v2"
	subsr25519 "github.com/vedhavyas/go-subkey/v2/sr25519"

	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
)

const (
	PublicKeyBytes = 32 // 32 bytes
	SignatureBytes = 64 // 64 bytes
)

type CryptServiceSr25519 struct {
	log tplog.Logger
}

func New(log tplog.Logger) *CryptServiceSr25519 {
	return &CryptServiceSr25519{log}
}

func (c *CryptServiceSr25519) CryptType() tpcrtypes.CryptType {
	return tpcrtypes.CryptType_Sr25519
}

// SupportsSoftDerivation is true: schnorrkel keys keep a public relationship under soft junctions.
func (c *CryptServiceSr25519) SupportsSoftDerivation() bool {
	return true
}

func (c *CryptServiceSr25519) DeriveKeypair(suri string) (*tpcrtypes.Keypair, error) {
	if len(suri) == 0 {
		return nil, errors.New("input invalid suri")
	}

	kp, err := subkey.DeriveKeyPair(subsr25519.Scheme{}, suri)
	if err != nil {
		return nil, err
	}

	pub := kp.Public()
	if len(pub) != PublicKeyBytes {
		return nil, fmt.Errorf("Invalid derived pubKey: len %d, expected %d", len(pub), PublicKeyBytes)
	}
	return tpcrtypes.NewKeypair(tpcrtypes.CryptType_Sr25519, pub, kp.Seed(), kp), nil
}

func (c *CryptServiceSr25519) Verify(pubKey tpcrtypes.PublicKey, msg []byte, signData tpcrtypes.Signature) (bool, error) {
	if len(pubKey) != PublicKeyBytes || len(msg) == 0 {
		return false, errors.New("input invalid argument")
	}
	if len(signData) != SignatureBytes {
		return false, nil
	}

	pk, err := subsr25519.Scheme{}.FromPublicKey(pubKey)
	if err != nil {
		return false, err
	}
	return pk.Verify(msg, signData), nil
}

func (c *CryptServiceSr25519) CreateAddress(pubKey tpcrtypes.PublicKey, addressFormat uint16) (tpcrtypes.Address, error) {
	accountID, err := tpcrtypes.AccountID(tpcrtypes.CryptType_Sr25519, pubKey)
	if err != nil {
		return tpcrtypes.UndefAddress, err
	}
	return tpcrtypes.NewAddress(addressFormat, accountID)
}
