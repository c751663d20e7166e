package ed25519

import (
	"errors"
	"fmt"

	subkey "github.com/vedhavyas/go-subkey/v2"
	subed25519 "github.com/vedhavyas/go-subkey/v2/ed25519"

	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
)

const (
	PublicKeyBytes = 32 // 32 bytes
	SignatureBytes = 64 // 64 bytes
)

type CryptServiceEd25519 struct {
	log tplog.Logger
}

func New(log tplog.Logger) *CryptServiceEd25519 {
	return &CryptServiceEd25519{log}
}

func (c *CryptServiceEd25519) CryptType() tpcrtypes.CryptType {
	return tpcrtypes.CryptType_Ed25519
}

// SupportsSoftDerivation is false, ed25519 only derives hard junctions.
func (c *CryptServiceEd25519) SupportsSoftDerivation() bool {
	return false
}

func (c *CryptServiceEd25519) DeriveKeypair(suri string) (*tpcrtypes.Keypair, error) {
	if len(suri) == 0 {
		return nil, errors.New("input invalid suri")
	}

	kp, err := subkey.DeriveKeyPair(subed25519.Scheme{}, suri)
	if err != nil {
		return nil, err
	}

	pub := kp.Public()
	if len(pub) != PublicKeyBytes {
		return nil, fmt.Errorf("Invalid derived pubKey: len %d, expected %d", len(pub), PublicKeyBytes)
	}
	return tpcrtypes.NewKeypair(tpcrtypes.CryptType_Ed25519, pub, kp.Seed(), kp), nil
}

func (c *CryptServiceEd25519) Verify(pubKey tpcrtypes.PublicKey, msg []byte, signData tpcrtypes.Signature) (bool, error) {
	if len(pubKey) != PublicKeyBytes || len(msg) == 0 {
		return false, errors.New("input invalid argument")
	}
	if len(signData) != SignatureBytes {
		return false, nil
	}

	pk, err := subed25519.Scheme{}.FromPublicKey(pubKey)
	if err != nil {
		return false, err
	}
	return pk.Verify(msg, signData), nil
}

func (c *CryptServiceEd25519) CreateAddress(pubKey tpcrtypes.PublicKey, addressFormat uint16) (tpcrtypes.Address, error) {
	accountID, err := tpcrtypes.AccountID(tpcrtypes.CryptType_Ed25519, pubKey)
	if err != nil {
		return tpcrtypes.UndefAddress, err
	}
	return tpcrtypes.NewAddress(addressFormat, accountID)
}
