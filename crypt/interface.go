package crypt

import (
	"fmt"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	"github.com/TopiaNetwork/topia-vault/crypt/ecdsa"
	"github.com/TopiaNetwork/topia-vault/crypt/ed25519"
	"github.com/TopiaNetwork/topia-vault/crypt/sr25519"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
)

type CryptService interface {
	CryptType() tpcrtypes.CryptType

	SupportsSoftDerivation() bool

	// DeriveKeypair derives a keypair from a secret URI "phrase//hard/soft///password".
	DeriveKeypair(suri string) (*tpcrtypes.Keypair, error)

	Verify(pubKey tpcrtypes.PublicKey, msg []byte, signData tpcrtypes.Signature) (bool, error)

	CreateAddress(pubKey tpcrtypes.PublicKey, addressFormat uint16) (tpcrtypes.Address, error)
}

func CreateCryptService(log tplog.Logger, cryptType tpcrtypes.CryptType) (CryptService, error) {
	cryptLog := tplog.CreateModuleLogger(tplogcmm.InfoLevel, "crypt", log)
	switch cryptType {
	case tpcrtypes.CryptType_Ed25519:
		return ed25519.New(cryptLog), nil
	case tpcrtypes.CryptType_Sr25519:
		return sr25519.New(cryptLog), nil
	case tpcrtypes.CryptType_Ecdsa:
		return ecdsa.New(cryptLog), nil
	default:
		return nil, fmt.Errorf("%w: %s", tpcmm.ErrUnsupportedAlgorithm, cryptType.String())
	}
}
