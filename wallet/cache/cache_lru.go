package cache

import (
	"context"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	tplog "github.com/TopiaNetwork/topia-vault/log"
)

type LRUCache struct {
	log    tplog.Logger
	mutex  sync.RWMutex
	cache  *lru.Cache
	closed bool
}

func NewLRUCache(log tplog.Logger, size int) (*LRUCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &LRUCache{
		log:   log,
		cache: c,
	}, nil
}

func (l *LRUCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()
	if l.closed {
		return nil, false, ErrCacheClosed
	}

	value, ok := l.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, false, errors.New("invalid cache item type")
	}
	return tpcmm.BytesCopy(data), true, nil
}

func (l *LRUCache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()
	if l.closed {
		return ErrCacheClosed
	}

	if evicted := l.cache.Add(key, tpcmm.BytesCopy(value)); evicted {
		l.log.Debug("LRU cache evicted the oldest item")
	}
	return nil
}

func (l *LRUCache) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mutex.RLock()
	defer l.mutex.RUnlock()
	if l.closed {
		return ErrCacheClosed
	}

	l.cache.Remove(key)
	return nil
}

func (l *LRUCache) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.closed {
		l.cache.Purge()
		l.closed = true
	}
	return nil
}
