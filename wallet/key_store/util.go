package key_store

import (
	"os"
	"strings"

	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
)

func IsValidFolderPath(path string) bool {
	s, err := os.Stat(path)
	if err != nil {
		return false
	}
	if s.IsDir() == false {
		return false
	}
	return true
}

func IsPathExist(path string) (bool, error) {
	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func IsValidAddress(addr tpcrtypes.Address) bool {
	return addr.IsValid()
}

// IsValidEntryName rejects anything that could escape the store folder.
func IsValidEntryName(name string) bool {
	if len(name) == 0 || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
