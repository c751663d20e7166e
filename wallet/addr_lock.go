package wallet

import (
	"sync"

	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
)

type addrLockEntry struct {
	mutex sync.Mutex
	refs  int
}

// addrLocker serializes operations on one address and lets different addresses
// run in parallel. Entries are dropped once nobody holds or waits for them.
type addrLocker struct {
	mutex   sync.Mutex
	entries map[tpcrtypes.Address]*addrLockEntry
}

func newAddrLocker() *addrLocker {
	return &addrLocker{entries: make(map[tpcrtypes.Address]*addrLockEntry)}
}

func (l *addrLocker) Lock(addr tpcrtypes.Address) func() {
	l.mutex.Lock()
	entry, ok := l.entries[addr]
	if !ok {
		entry = &addrLockEntry{}
		l.entries[addr] = entry
	}
	entry.refs++
	l.mutex.Unlock()

	entry.mutex.Lock()

	return func() {
		entry.mutex.Unlock()

		l.mutex.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, addr)
		}
		l.mutex.Unlock()
	}
}
