package file_key_store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	tplog "github.com/TopiaNetwork/topia-vault/log"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
	"github.com/TopiaNetwork/topia-vault/wallet/key_store"
)

const (
	filePerm   = 0600
	folderPerm = 0700
	tmpSuffix  = ".tmp"
)

// FileKeyStore keeps one file per entry in a backup folder. A pid file marks the
// process that owns the folder.
type FileKeyStore struct {
	fileFolderPath string // path of the folder which contains backups
	mutex          sync.RWMutex
	log            tplog.Logger
	closed         bool
}

var _ key_store.DurableStore = (*FileKeyStore)(nil)

func NewFileKeyStore(level tplogcmm.LogLevel, log tplog.Logger, fileFolderPath string) (*FileKeyStore, error) {
	if len(fileFolderPath) == 0 {
		return nil, fmt.Errorf("input invalid backup folder path")
	}

	err := os.MkdirAll(fileFolderPath, folderPerm)
	if err != nil {
		return nil, err
	}
	if !key_store.IsValidFolderPath(fileFolderPath) {
		return nil, fmt.Errorf("input fileFolderPath %s is not a valid folder path", fileFolderPath)
	}

	f := &FileKeyStore{
		fileFolderPath: fileFolderPath,
		log:            tplog.CreateModuleLogger(level, "filekeystore", log),
	}

	err = f.checkPidFile()
	if err != nil {
		return nil, err
	}

	f.log.Infof("File key store opened at %s", fileFolderPath)
	return f, nil
}

func (f *FileKeyStore) Path() string {
	return f.fileFolderPath
}

func (f *FileKeyStore) entryPath(name string) (string, error) {
	if !key_store.IsValidEntryName(name) || name == key_store.PidFileName || strings.HasSuffix(name, tmpSuffix) {
		return "", fmt.Errorf("%w: %q", key_store.ErrInvalidName, name)
	}
	return filepath.Join(f.fileFolderPath, name), nil
}

func (f *FileKeyStore) Exists(name string) (bool, error) {
	fp, err := f.entryPath(name)
	if err != nil {
		return false, err
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	return key_store.IsPathExist(fp)
}

func (f *FileKeyStore) ReadFile(name string) ([]byte, error) {
	fp, err := f.entryPath(name)
	if err != nil {
		return nil, err
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", key_store.ErrEntryNotExist, name)
		}
		return nil, err
	}
	return data, nil
}

// WriteFile replaces the entry through a temp file and a rename, so readers see
// either the old or the new content.
func (f *FileKeyStore) WriteFile(name string, data []byte) error {
	fp, err := f.entryPath(name)
	if err != nil {
		return err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return fmt.Errorf("file key store %s closed", f.fileFolderPath)
	}

	tmpPath := fp + tmpSuffix
	tmpFile, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}

	_, err = tmpFile.Write(data)
	if err == nil {
		err = tmpFile.Sync()
	}
	if closeErr := tmpFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, fp)
}

func (f *FileKeyStore) Remove(name string) error {
	fp, err := f.entryPath(name)
	if err != nil {
		return err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	err = os.Remove(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", key_store.ErrEntryNotExist, name)
		}
		return err
	}
	return nil
}

func (f *FileKeyStore) ListEntries() ([]string, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	files, err := os.ReadDir(f.fileFolderPath)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, file := range files {
		if file.IsDir() { // skip dir
			continue
		}
		name := file.Name()
		if name == key_store.PidFileName || strings.HasSuffix(name, tmpSuffix) { // skip bookkeeping file
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

// Close releases the pid file.
func (f *FileKeyStore) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	err := os.Remove(filepath.Join(f.fileFolderPath, key_store.PidFileName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileKeyStore) checkPidFile() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	pidFilePath := filepath.Join(f.fileFolderPath, key_store.PidFileName)
	exist, err := key_store.IsPathExist(pidFilePath)
	if err != nil {
		return err
	}

	pid := os.Getpid()
	if exist {
		pidBytes, err := os.ReadFile(pidFilePath)
		if err != nil {
			return err
		}
		pidInLock, err := bytesToInt(pidBytes)
		if err != nil {
			f.log.Warnf("Invalid pid file %s, overwrite it: %v", pidFilePath, err)
		} else if pidInLock != pid {
			pidAlive, err := isPIDAlive(pidInLock)
			if err != nil {
				return err
			}
			if pidAlive {
				f.log.Errorf("pid: %d is running and owns %s", pidInLock, f.fileFolderPath)
				return fmt.Errorf("%w: pid %d", key_store.ErrStoreLocked, pidInLock)
			}
		}
	}

	myPidBytes, err := intToBytes(pid)
	if err != nil {
		return err
	}
	return os.WriteFile(pidFilePath, myPidBytes, filePerm)
}

func intToBytes(n int) ([]byte, error) {
	data := int64(n)
	byteBuf := bytes.NewBuffer([]byte{})
	err := binary.Write(byteBuf, binary.LittleEndian, data)
	if err != nil {
		return nil, err
	}
	return byteBuf.Bytes(), nil
}

func bytesToInt(bys []byte) (int, error) {
	byteBuf := bytes.NewBuffer(bys)
	var data int64
	err := binary.Read(byteBuf, binary.LittleEndian, &data)
	if err != nil {
		return 0, err
	}
	return int(data), nil
}
