package kdf

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
)

const (
	KeyLen  = 32 // 32 bytes, secretbox key size
	SaltLen = 16 // 16 bytes

	DefaultIterations = 210000
	MinIterations     = 1
)

var errEmptyPassword = errors.New("kdf: empty password")

// DeriveKey stretches password into a KeyLen key with PBKDF2-HMAC-SHA512.
func DeriveKey(password []byte, salt []byte, iterations int) ([]byte, error) {
	if len(password) == 0 {
		return nil, errEmptyPassword
	}
	if len(salt) < SaltLen {
		return nil, fmt.Errorf("kdf: salt len %d, expected at least %d", len(salt), SaltLen)
	}
	if iterations < MinIterations {
		return nil, fmt.Errorf("kdf: invalid iterations %d", iterations)
	}

	return pbkdf2.Key(password, salt, iterations, KeyLen, sha512.New), nil
}

// NewSalt reads SaltLen bytes from r, or from the process CSPRNG when r is nil.
func NewSalt(r io.Reader) ([]byte, error) {
	return tpcmm.RandBytes(r, SaltLen)
}
