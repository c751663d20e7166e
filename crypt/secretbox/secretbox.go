package secretbox

import (
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
)

const (
	KeyLen   = 32 // 32 bytes
	NonceLen = 24 // 24 bytes
	Overhead = secretbox.Overhead
)

// Seal encrypts plaintext under key with a fresh random nonce. A nil reader uses the
// process CSPRNG.
func Seal(r io.Reader, plaintext []byte, key []byte) (nonce []byte, ciphertext []byte, err error) {
	k, err := toKey(key)
	if err != nil {
		return nil, nil, err
	}

	nonce, err = tpcmm.RandBytes(r, NonceLen)
	if err != nil {
		return nil, nil, err
	}
	var n [NonceLen]byte
	copy(n[:], nonce)

	return nonce, secretbox.Seal(nil, plaintext, &n, k), nil
}

// Open authenticates and decrypts ciphertext. Any tampering, a wrong key or a
// truncated box yields ErrDecryptionFailed.
func Open(nonce []byte, ciphertext []byte, key []byte) ([]byte, error) {
	k, err := toKey(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceLen {
		return nil, fmt.Errorf("%w: nonce len %d, expected %d", tpcmm.ErrMalformedBackup, len(nonce), NonceLen)
	}
	if len(ciphertext) < Overhead {
		return nil, fmt.Errorf("%w: ciphertext shorter than authenticator", tpcmm.ErrDecryptionFailed)
	}

	var n [NonceLen]byte
	copy(n[:], nonce)

	plaintext, ok := secretbox.Open(nil, ciphertext, &n, k)
	if !ok {
		return nil, tpcmm.ErrDecryptionFailed
	}
	return plaintext, nil
}

func toKey(key []byte) (*[KeyLen]byte, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("%w: key len %d, expected %d", tpcmm.ErrMalformedBackup, len(key), KeyLen)
	}
	var k [KeyLen]byte
	copy(k[:], key)
	return &k, nil
}
