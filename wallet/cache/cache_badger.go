package cache

import (
	"context"
	"errors"
	"os"

	"github.com/dgraph-io/badger/v3"

	tplog "github.com/TopiaNetwork/topia-vault/log"
)

type BadgerCache struct {
	log tplog.Logger
	db  *badger.DB
}

func NewBadgerCache(log tplog.Logger, path string) (*BadgerCache, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(path)
		opts.SyncWrites = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		log.Errorf("Open badger cache error %v, path=%s", err, path)
		return nil, err
	}

	return &BadgerCache{
		log: log,
		db:  db,
	}, nil
}

func (b *BadgerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return nil, false, ErrCacheClosed
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (b *BadgerCache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrCacheClosed
	}
	return err
}

func (b *BadgerCache) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrCacheClosed
	}
	return err
}

func (b *BadgerCache) Close() error {
	if b.db.IsClosed() {
		return nil
	}
	return b.db.Close()
}
