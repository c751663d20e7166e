//go:build !windows

package file_key_store

import (
	"errors"
	"os"
	"syscall"
)

func isPIDAlive(pID int) (bool, error) {
	if pID <= 0 {
		return false, nil
	}

	process, err := os.FindProcess(pID)
	if err != nil {
		return false, err
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil || errors.Is(err, syscall.EPERM) {
		return true, nil
	}
	return false, nil
}
