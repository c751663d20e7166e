package cache

import (
	"context"
	"errors"
	"os"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	tplog "github.com/TopiaNetwork/topia-vault/log"
)

type LeveldbCache struct {
	log tplog.Logger
	db  *leveldb.DB
}

func NewLeveldbCache(log tplog.Logger, path string) (*LeveldbCache, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		if err = os.MkdirAll(path, 0700); err != nil {
			return nil, err
		}
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		log.Errorf("Open leveldb cache error %v, path=%s", err, path)
		return nil, err
	}

	return &LeveldbCache{
		log: log,
		db:  db,
	}, nil
}

func (l *LeveldbCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	value, err := l.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if errors.Is(err, leveldb.ErrClosed) {
		return nil, false, ErrCacheClosed
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (l *LeveldbCache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := l.db.Put([]byte(key), value, &opt.WriteOptions{Sync: true})
	if errors.Is(err, leveldb.ErrClosed) {
		return ErrCacheClosed
	}
	return err
}

func (l *LeveldbCache) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := l.db.Delete([]byte(key), nil)
	if errors.Is(err, leveldb.ErrClosed) {
		return ErrCacheClosed
	}
	return err
}

func (l *LeveldbCache) Close() error {
	err := l.db.Close()
	if errors.Is(err, leveldb.ErrClosed) {
		return nil
	}
	return err
}
