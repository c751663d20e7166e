package key_store

import (
	"errors"
	"strings"

	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
)

/*
DurableStore is the authoritative tier of the wallet directory. It holds 2 kinds of entries.

Backup entry:
	name: 	"{address}_wallet_backup"
	value: 	the "saltHex:nonceHex:ciphertextHex" string of that address, nothing else

Index entry:
	name: 	"wallet_directory_index"
	value: 	the directory index without plaintext mnemonic data
*/
type DurableStore interface {
	Exists(name string) (bool, error)

	ReadFile(name string) ([]byte, error)

	WriteFile(name string, data []byte) error

	Remove(name string) error

	ListEntries() ([]string, error) // Show all entry names in the store.

	Close() error
}

const (
	BackupFileSuffix = "_wallet_backup"
	IndexFileName    = "wallet_directory_index"
	PidFileName      = "pid"
)

var (
	ErrEntryNotExist = errors.New("entry doesn't exist")
	ErrInvalidName   = errors.New("invalid entry name")
	ErrStoreLocked   = errors.New("store is owned by another running process")
)

func BackupFileName(addr tpcrtypes.Address) string {
	return string(addr) + BackupFileSuffix
}

// AddressFromBackupFileName reports false for names that are not backup entries of a valid address.
func AddressFromBackupFileName(name string) (tpcrtypes.Address, bool) {
	if !strings.HasSuffix(name, BackupFileSuffix) {
		return tpcrtypes.UndefAddress, false
	}

	addr := tpcrtypes.Address(strings.TrimSuffix(name, BackupFileSuffix))
	if !IsValidAddress(addr) {
		return tpcrtypes.UndefAddress, false
	}
	return addr, true
}
