package wallet

import (
	"fmt"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	"github.com/TopiaNetwork/topia-vault/crypt"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
)

func Sign(msg []byte, w *Wallet) (tpcrtypes.Signature, error) {
	if len(msg) == 0 {
		return nil, tpcmm.ErrEmptyMessage
	}
	if w == nil {
		return nil, tpcmm.ErrWalletNotReady
	}
	return w.Sign(msg)
}

// ResolvePublicKey accepts a 0x-prefixed hex public key or an SS58 address. An
// ecdsa address only commits to a hash of the key, so ecdsa needs the key itself.
func ResolvePublicKey(publicKeyOrAddress string, cryptType tpcrtypes.CryptType) (tpcrtypes.PublicKey, tpcrtypes.CryptType, error) {
	var pubKey tpcrtypes.PublicKey
	if tpcmm.Has0xPrefix(publicKeyOrAddress) {
		decoded, err := tpcmm.DecodeHex(publicKeyOrAddress)
		if err != nil {
			return nil, cryptType, fmt.Errorf("invalid public key: %w", err)
		}
		pubKey = decoded
	} else {
		addr := tpcrtypes.Address(publicKeyOrAddress)
		accountID, err := addr.AccountID()
		if err != nil {
			return nil, cryptType, fmt.Errorf("invalid public key or address %q: %w", publicKeyOrAddress, err)
		}
		if cryptType == tpcrtypes.CryptType_Ecdsa {
			return nil, cryptType, fmt.Errorf("%w: ecdsa verification needs the public key, not the address", tpcmm.ErrUnsupportedAlgorithm)
		}
		pubKey = accountID
	}

	if cryptType == tpcrtypes.CryptType_Unknown {
		if len(pubKey) == tpcrtypes.PublicKeyLen_Ecdsa {
			cryptType = tpcrtypes.CryptType_Ecdsa
		} else {
			cryptType = tpcrtypes.CryptType_Sr25519
		}
	}

	return pubKey, cryptType, nil
}

// Verify reports false for a well-formed signature that does not match; errors are
// reserved for malformed input. With CryptType_Unknown a 33-byte key is checked as
// ecdsa; any other key is checked as sr25519 and then as ed25519.
func Verify(keyring *crypt.Keyring, msg []byte, signData tpcrtypes.Signature, publicKeyOrAddress string, cryptType tpcrtypes.CryptType) (bool, error) {
	if len(msg) == 0 {
		return false, tpcmm.ErrEmptyMessage
	}
	if len(signData) == 0 {
		return false, tpcmm.ErrEmptySignature
	}

	inferred := cryptType == tpcrtypes.CryptType_Unknown
	pubKey, cryptType, err := ResolvePublicKey(publicKeyOrAddress, cryptType)
	if err != nil {
		return false, err
	}

	ok, err := keyring.Verify(cryptType, pubKey, msg, signData)
	if ok || !inferred || cryptType != tpcrtypes.CryptType_Sr25519 {
		return ok, err
	}

	// an ed25519 key need not be a valid sr25519 point
	if edOk, edErr := keyring.Verify(tpcrtypes.CryptType_Ed25519, pubKey, msg, signData); edErr == nil {
		return edOk, nil
	}
	return ok, err
}
