package ecdsa

import (
	"errors"
	"fmt"

	subkey "github.com/vedhavyas/go-subkey/v2"
	subecdsa "github.com/vedhavyas/go-subkey/v2/ecdsa"

	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
)

const (
	PublicKeyBytes            = 33 // 33 bytes, compressed secp256k1 point
	SignatureRecoverableBytes = 65 // 65 bytes
)

type CryptServiceEcdsa struct {
	log tplog.Logger
}

func New(log tplog.Logger) *CryptServiceEcdsa {
	return &CryptServiceEcdsa{log}
}

func (c *CryptServiceEcdsa) CryptType() tpcrtypes.CryptType {
	return tpcrtypes.CryptType_Ecdsa
}

func (c *CryptServiceEcdsa) SupportsSoftDerivation() bool {
	return false
}

func (c *CryptServiceEcdsa) DeriveKeypair(suri string) (*tpcrtypes.Keypair, error) {
	if len(suri) == 0 {
		return nil, errors.New("input invalid suri")
	}

	kp, err := subkey.DeriveKeyPair(subecdsa.Scheme{}, suri)
	if err != nil {
		return nil, err
	}

	pub := kp.Public()
	if len(pub) != PublicKeyBytes {
		return nil, fmt.Errorf("Invalid derived pubKey: len %d, expected %d", len(pub), PublicKeyBytes)
	}
	return tpcrtypes.NewKeypair(tpcrtypes.CryptType_Ecdsa, pub, kp.Seed(), kp), nil
}

func (c *CryptServiceEcdsa) Verify(pubKey tpcrtypes.PublicKey, msg []byte, signData tpcrtypes.Signature) (bool, error) {
	if len(pubKey) != PublicKeyBytes || len(msg) == 0 {
		return false, errors.New("secp256k1 Verify input invalid parameter")
	}
	if len(signData) != SignatureRecoverableBytes {
		return false, nil
	}

	pk, err := subecdsa.Scheme{}.FromPublicKey(pubKey)
	if err != nil {
		return false, err
	}
	return pk.Verify(msg, signData), nil
}

// CreateAddress hashes the compressed key into the account id before SS58 encoding.
func (c *CryptServiceEcdsa) CreateAddress(pubKey tpcrtypes.PublicKey, addressFormat uint16) (tpcrtypes.Address, error) {
	accountID, err := tpcrtypes.AccountID(tpcrtypes.CryptType_Ecdsa, pubKey)
	if err != nil {
		return tpcrtypes.UndefAddress, err
	}
	return tpcrtypes.NewAddress(addressFormat, accountID)
}
