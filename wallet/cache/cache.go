package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tplog "github.com/TopiaNetwork/topia-vault/log"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
)

// Cache is the fast tier of the wallet directory. Values are copied in and out.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	Set(ctx context.Context, key string, value []byte) error

	Remove(ctx context.Context, key string) error

	Close() error
}

type BackendType string

const (
	Backend_LRU     BackendType = "lru"
	Backend_Badger  BackendType = "badger"
	Backend_Leveldb BackendType = "leveldb"
)

const DefaultCacheSize = 512 // hold 512 item max

var ErrCacheClosed = errors.New("cache closed")

func ParseBackendType(s string) (BackendType, error) {
	switch bt := BackendType(strings.ToLower(s)); bt {
	case Backend_LRU, Backend_Badger, Backend_Leveldb:
		return bt, nil
	case "":
		return Backend_LRU, nil
	default:
		return "", fmt.Errorf("unknown cache backend %q", s)
	}
}

// NewCache opens the cache backend. An empty path keeps the badger and leveldb
// backends in memory.
func NewCache(level tplogcmm.LogLevel, log tplog.Logger, backend BackendType, path string, size int) (Cache, error) {
	cacheLog := tplog.CreateModuleLogger(level, "cache", log)
	if size <= 0 {
		size = DefaultCacheSize
	}

	switch backend {
	case Backend_LRU, "":
		return NewLRUCache(cacheLog, size)
	case Backend_Badger:
		return NewBadgerCache(cacheLog, path)
	case Backend_Leveldb:
		return NewLeveldbCache(cacheLog, path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", string(backend))
	}
}
