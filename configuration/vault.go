package configuration

import (
	"fmt"
	"path/filepath"

	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
)

type VaultConfiguration struct {
	BackupDir     string              `envconfig:"BACKUP_DIR"`
	CacheBackend  string              `envconfig:"CACHE_BACKEND"`
	CachePath     string              `envconfig:"CACHE_PATH"`
	CacheSize     int                 `envconfig:"CACHE_SIZE"`
	CryptType     tpcrtypes.CryptType `envconfig:"CRYPT_TYPE"`
	AddressFormat uint16              `envconfig:"ADDRESS_FORMAT"`
	MnemonicWords int                 `envconfig:"MNEMONIC_WORDS"`
}

func DefVaultConfiguration(rootPath string) *VaultConfiguration {
	return &VaultConfiguration{
		BackupDir:     filepath.Join(rootPath, "wallet"),
		CacheBackend:  "badger",
		CachePath:     filepath.Join(rootPath, "cache"),
		CacheSize:     512,
		CryptType:     tpcrtypes.CryptType_Sr25519,
		AddressFormat: 42,
		MnemonicWords: 24,
	}
}

func (c *VaultConfiguration) KeyringOptions() tpcrtypes.KeyringOptions {
	return tpcrtypes.KeyringOptions{
		CryptType:     c.CryptType,
		AddressFormat: c.AddressFormat,
	}
}

func (c *VaultConfiguration) Validate() error {
	if c.BackupDir == "" {
		return fmt.Errorf("vault config: empty backup dir")
	}
	if _, err := c.CryptType.MarshalText(); err != nil {
		return fmt.Errorf("vault config: %w", err)
	}
	if c.AddressFormat > tpcrtypes.MaxAddressFormat {
		return fmt.Errorf("vault config: address format %d out of range", c.AddressFormat)
	}
	if c.MnemonicWords < 12 || c.MnemonicWords > 24 || c.MnemonicWords%3 != 0 {
		return fmt.Errorf("vault config: invalid mnemonic words %d", c.MnemonicWords)
	}
	return nil
}
