package vault

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	"github.com/TopiaNetwork/topia-vault/crypt/kdf"
	"github.com/TopiaNetwork/topia-vault/crypt/secretbox"
	tplog "github.com/TopiaNetwork/topia-vault/log"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
)

const backupSeparator = ":"

// Vault turns a secret payload into a password protected "saltHex:nonceHex:ciphertextHex"
// string and back.
type Vault struct {
	log        tplog.Logger
	iterations int
	rand       io.Reader
}

// NewVault uses kdf.DefaultIterations when iterations is not positive. A nil rand
// draws salts and nonces from the process CSPRNG.
func NewVault(level tplogcmm.LogLevel, log tplog.Logger, iterations int, rand io.Reader) *Vault {
	if iterations <= 0 {
		iterations = kdf.DefaultIterations
	}

	return &Vault{
		log:        tplog.CreateModuleLogger(level, "vault", log),
		iterations: iterations,
		rand:       rand,
	}
}

func (v *Vault) Encrypt(payload []byte, password string) (string, error) {
	if len(password) == 0 {
		return "", tpcmm.ErrPasswordRequired
	}

	salt, err := kdf.NewSalt(v.rand)
	if err != nil {
		return "", fmt.Errorf("vault encrypt: new salt: %w", err)
	}

	key, err := kdf.DeriveKey([]byte(password), salt, v.iterations)
	if err != nil {
		return "", fmt.Errorf("vault encrypt: derive key: %w", err)
	}
	defer tpcmm.Wipe(key)

	nonce, ciphertext, err := secretbox.Seal(v.rand, payload, key)
	if err != nil {
		return "", fmt.Errorf("vault encrypt: seal: %w", err)
	}

	return strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(nonce),
		hex.EncodeToString(ciphertext),
	}, backupSeparator), nil
}

func (v *Vault) Decrypt(backup string, password string) ([]byte, error) {
	if len(password) == 0 {
		return nil, tpcmm.ErrPasswordRequired
	}

	salt, nonce, ciphertext, err := ParseBackup(backup)
	if err != nil {
		v.log.Warnf("Malformed backup: %v", err)
		return nil, err
	}

	key, err := kdf.DeriveKey([]byte(password), salt, v.iterations)
	if err != nil {
		v.log.Warnf("Malformed backup, can't derive key: %v", err)
		return nil, fmt.Errorf("%w: %v", tpcmm.ErrMalformedBackup, err)
	}
	defer tpcmm.Wipe(key)

	plaintext, err := secretbox.Open(nonce, ciphertext, key)
	if err != nil {
		if errors.Is(err, tpcmm.ErrMalformedBackup) {
			v.log.Warnf("Malformed backup: %v", err)
		} else {
			v.log.Warn("Backup decryption failed: wrong password or corrupted ciphertext")
		}
		return nil, fmt.Errorf("vault decrypt: %w", err)
	}

	return plaintext, nil
}

// ParseBackup splits a backup string into its salt, nonce and ciphertext.
func ParseBackup(backup string) (salt []byte, nonce []byte, ciphertext []byte, err error) {
	parts := strings.Split(strings.TrimSpace(backup), backupSeparator)
	if len(parts) != 3 {
		return nil, nil, nil, fmt.Errorf("%w: expected 3 parts, got %d", tpcmm.ErrMalformedBackup, len(parts))
	}

	decoded := make([][]byte, 3)
	for i, part := range parts {
		if len(part) == 0 {
			return nil, nil, nil, fmt.Errorf("%w: empty part %d", tpcmm.ErrMalformedBackup, i)
		}
		decoded[i], err = hex.DecodeString(part)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: part %d: %v", tpcmm.ErrMalformedBackup, i, err)
		}
	}

	return decoded[0], decoded[1], decoded[2], nil
}
