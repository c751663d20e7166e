package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/hashicorp/go-multierror"

	"github.com/TopiaNetwork/topia-vault/codec"
	tpcmm "github.com/TopiaNetwork/topia-vault/common"
	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
	tplog "github.com/TopiaNetwork/topia-vault/log"
	tplogcmm "github.com/TopiaNetwork/topia-vault/log/common"
	"github.com/TopiaNetwork/topia-vault/wallet/cache"
	"github.com/TopiaNetwork/topia-vault/wallet/key_store"
)

const CacheKey = "wallet/directory"

// Directory maps wallet numbers to addresses and addresses to records. The cache
// tier holds the whole index under CacheKey; the durable tier holds one backup
// file per encrypted wallet plus a mirror of the index without plaintext data.
// Every mutation runs under one mutex, which also guards the number counter.
type Directory struct {
	log       tplog.Logger
	mutex     sync.Mutex
	cache     cache.Cache
	store     key_store.DurableStore
	marshaler codec.Marshaler
	now       func() time.Time
}

func NewDirectory(level tplogcmm.LogLevel, log tplog.Logger, c cache.Cache, store key_store.DurableStore) *Directory {
	return &Directory{
		log:       tplog.CreateModuleLogger(level, "directory", log),
		cache:     c,
		store:     store,
		marshaler: codec.CreateMarshaler(codec.CodecType_JSON),
		now:       time.Now,
	}
}

func ioErr(op string, subject interface{}, err error) error {
	return fmt.Errorf("%w: %s %v: %v", tpcmm.ErrDirectoryIO, op, subject, err)
}

func (d *Directory) loadIndexLocked(ctx context.Context) (*index, error) {
	data, found, err := d.cache.Get(ctx, CacheKey)
	if err != nil {
		return nil, ioErr("read cache", CacheKey, err)
	}

	idx := newIndex()
	if found {
		if err = d.marshaler.Unmarshal(data, idx); err == nil {
			idx.normalize()
			return idx, nil
		}
		d.log.Warnf("Invalid directory index in cache, fall back to durable index: %v", err)
		idx = newIndex()
	}

	data, err = d.store.ReadFile(key_store.IndexFileName)
	if err != nil {
		if errors.Is(err, key_store.ErrEntryNotExist) {
			return idx, nil
		}
		return nil, ioErr("read durable index", key_store.IndexFileName, err)
	}
	if err = d.marshaler.Unmarshal(data, idx); err != nil {
		return nil, ioErr("decode durable index", key_store.IndexFileName, err)
	}
	idx.normalize()

	return idx, nil
}

func (d *Directory) saveIndexLocked(ctx context.Context, idx *index) error {
	data, err := d.marshaler.Marshal(idx)
	if err != nil {
		return ioErr("encode index", CacheKey, err)
	}
	durableData, err := d.marshaler.Marshal(idx.durableView())
	if err != nil {
		return ioErr("encode durable index", key_store.IndexFileName, err)
	}

	if err = d.store.WriteFile(key_store.IndexFileName, durableData); err != nil {
		return ioErr("write durable index", key_store.IndexFileName, err)
	}
	if err = d.cache.Set(ctx, CacheKey, data); err != nil {
		return ioErr("write cache", CacheKey, err)
	}
	return nil
}

func (d *Directory) nextNumberLocked(idx *index) (uint64, error) {
	number := idx.NextNumber
	for {
		if _, used := idx.NumberToAddress[number]; !used {
			break
		}
		number++
	}

	next, err := tpcmm.SafeAddUint64(number, 1)
	if err != nil {
		return 0, fmt.Errorf("wallet number overflow: %w", err)
	}
	idx.NextNumber = next
	return number, nil
}

// Store upserts the record of addr. A zero number keeps the current number of addr
// or assigns the next unused one. Numbers are never handed out twice, even after Clear.
func (d *Directory) Store(ctx context.Context, addr tpcrtypes.Address, rec Record, number uint64) (uint64, error) {
	if !addr.IsValid() {
		return 0, fmt.Errorf("invalid address %q", string(addr))
	}
	switch rec.SourceKind {
	case SourceKind_Mnemonic:
		if rec.MnemonicData == nil {
			return 0, fmt.Errorf("record of %s: missing mnemonic data", addr)
		}
		rec.EncryptedData = ""
	case SourceKind_EncryptedBackup:
		if rec.EncryptedData == "" {
			return 0, fmt.Errorf("record of %s: missing encrypted data", addr)
		}
		rec.MnemonicData = nil
	default:
		return 0, fmt.Errorf("record of %s: unknown source kind %q", addr, rec.SourceKind)
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	idx, err := d.loadIndexLocked(ctx)
	if err != nil {
		return 0, err
	}

	existing, exists := idx.Wallets[addr]
	switch {
	case number != 0:
		if owner, used := idx.NumberToAddress[number]; used && owner != addr {
			return 0, fmt.Errorf("%w: number %d is bound to %s", tpcmm.ErrNumberInUse, number, owner)
		}
		if number >= idx.NextNumber {
			if idx.NextNumber, err = tpcmm.SafeAddUint64(number, 1); err != nil {
				return 0, fmt.Errorf("wallet number overflow: %w", err)
			}
		}
	case exists:
		number = existing.Number
	default:
		if number, err = d.nextNumberLocked(idx); err != nil {
			return 0, err
		}
	}

	if rec.CreatedAt.IsZero() {
		if exists {
			rec.CreatedAt = existing.CreatedAt
		} else {
			rec.CreatedAt = d.now().UTC()
		}
	}
	rec.Number = number
	rec.Address = addr

	backupName := key_store.BackupFileName(addr)
	snapshots, err := d.snapshotLocked(backupName, key_store.IndexFileName)
	if err != nil {
		return 0, err
	}

	if rec.IsEncrypted() {
		if err = d.store.WriteFile(backupName, []byte(rec.EncryptedData)); err != nil {
			return 0, d.rollbackLocked(ioErr("write backup of", addr, err), snapshots)
		}
	} else if exists && existing.IsEncrypted() {
		if err = d.removeBackupLocked(addr); err != nil {
			return 0, d.rollbackLocked(err, snapshots)
		}
	}

	idx.remove(addr)
	idx.Wallets[addr] = &rec
	idx.NumberToAddress[number] = addr

	if err = d.saveIndexLocked(ctx, idx); err != nil {
		return 0, d.rollbackLocked(err, snapshots)
	}

	d.log.Infof("Stored wallet #%d %s (%s)", number, addr, rec.SourceKind)
	return number, nil
}

// fileSnapshot is the content of a durable entry before a mutation, or its absence.
type fileSnapshot struct {
	name    string
	data    []byte
	existed bool
}

func (d *Directory) snapshotLocked(names ...string) ([]fileSnapshot, error) {
	snapshots := make([]fileSnapshot, 0, len(names))
	for _, name := range names {
		data, err := d.store.ReadFile(name)
		switch {
		case err == nil:
			snapshots = append(snapshots, fileSnapshot{name: name, data: data, existed: true})
		case errors.Is(err, key_store.ErrEntryNotExist):
			snapshots = append(snapshots, fileSnapshot{name: name})
		default:
			return nil, ioErr("read", name, err)
		}
	}
	return snapshots, nil
}

// rollbackLocked puts the durable entries back the way snapshotLocked found them.
// The cache tier is only written after the durable index, so it still holds the
// previous index when a mutation fails.
func (d *Directory) rollbackLocked(cause error, snapshots []fileSnapshot) error {
	errs := multierror.Append(nil, cause)
	for _, snap := range snapshots {
		var err error
		if snap.existed {
			err = d.store.WriteFile(snap.name, snap.data)
		} else if err = d.store.Remove(snap.name); errors.Is(err, key_store.ErrEntryNotExist) {
			err = nil
		}
		if err != nil {
			d.log.Errorf("Roll back %s failed: %v", snap.name, err)
			errs = multierror.Append(errs, ioErr("roll back", snap.name, err))
		}
	}
	return errs.ErrorOrNil()
}

func (d *Directory) removeBackupLocked(addr tpcrtypes.Address) error {
	err := d.store.Remove(key_store.BackupFileName(addr))
	if err != nil && !errors.Is(err, key_store.ErrEntryNotExist) {
		return ioErr("remove backup of", addr, err)
	}
	return nil
}

// resolveLocked serves addr through the cache, re-validating encrypted records
// against their backup file, and falls back to the backup file on a miss.
func (d *Directory) resolveLocked(ctx context.Context, idx *index, addr tpcrtypes.Address) (*Record, error) {
	rec, inIndex := idx.Wallets[addr]
	if inIndex && !rec.IsEncrypted() {
		return rec.clone(), nil
	}

	backup, err := d.store.ReadFile(key_store.BackupFileName(addr))
	if err != nil {
		if !errors.Is(err, key_store.ErrEntryNotExist) {
			return nil, ioErr("read backup of", addr, err)
		}
		if inIndex {
			d.log.Warnf("Backup of wallet #%d %s disappeared, drop it from the directory", rec.Number, addr)
			idx.remove(addr)
			if err = d.saveIndexLocked(ctx, idx); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%w: %s", tpcmm.ErrRecordNotFound, addr)
	}

	switch {
	case !inIndex:
		number, err := d.nextNumberLocked(idx)
		if err != nil {
			return nil, err
		}
		rec = &Record{
			Number:        number,
			Address:       addr,
			CreatedAt:     d.now().UTC(),
			SourceKind:    SourceKind_EncryptedBackup,
			EncryptedData: string(backup),
		}
		idx.Wallets[addr] = rec
		idx.NumberToAddress[number] = addr
		d.log.Infof("Wallet %s found in backup folder, cached as #%d", addr, number)
	case rec.EncryptedData == string(backup):
		return rec.clone(), nil
	default:
		if rec.EncryptedData != "" {
			d.log.Warnf("Cached backup of wallet #%d %s differs from the backup file, use the file", rec.Number, addr)
		}
		rec.EncryptedData = string(backup)
	}

	if err = d.saveIndexLocked(ctx, idx); err != nil {
		return nil, err
	}
	return rec.clone(), nil
}

func (d *Directory) LookupByAddress(ctx context.Context, addr tpcrtypes.Address) (*Record, error) {
	if !addr.IsValid() {
		return nil, fmt.Errorf("%w: invalid address %q", tpcmm.ErrRecordNotFound, string(addr))
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	idx, err := d.loadIndexLocked(ctx)
	if err != nil {
		return nil, err
	}

	return d.resolveLocked(ctx, idx, addr)
}

func (d *Directory) LookupByNumber(ctx context.Context, number uint64) (*Record, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	idx, err := d.loadIndexLocked(ctx)
	if err != nil {
		return nil, err
	}

	addr, ok := idx.NumberToAddress[number]
	if !ok {
		return nil, fmt.Errorf("%w: number %d", tpcmm.ErrRecordNotFound, number)
	}

	return d.resolveLocked(ctx, idx, addr)
}

// Clear removes the backup file of addr and both index directions in one index write.
func (d *Directory) Clear(ctx context.Context, addr tpcrtypes.Address) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	idx, err := d.loadIndexLocked(ctx)
	if err != nil {
		return err
	}

	backupExists, err := d.store.Exists(key_store.BackupFileName(addr))
	if err != nil {
		return ioErr("check backup of", addr, err)
	}
	rec, inIndex := idx.Wallets[addr]
	if !inIndex && !backupExists {
		return fmt.Errorf("%w: %s", tpcmm.ErrRecordNotFound, addr)
	}

	if backupExists {
		if err = d.removeBackupLocked(addr); err != nil {
			return err
		}
	}
	idx.remove(addr)

	if err = d.saveIndexLocked(ctx, idx); err != nil {
		return err
	}

	if inIndex {
		d.log.Infof("Cleared wallet #%d %s", rec.Number, addr)
	} else {
		d.log.Infof("Cleared unindexed backup of %s", addr)
	}
	return nil
}

// ClearAll empties both maps and removes every backup file. The number counter
// survives.
func (d *Directory) ClearAll(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	idx, err := d.loadIndexLocked(ctx)
	if err != nil {
		return err
	}

	names, err := d.store.ListEntries()
	if err != nil {
		return ioErr("list", "backup folder", err)
	}

	var errs *multierror.Error
	for _, name := range names {
		addr, ok := key_store.AddressFromBackupFileName(name)
		if !ok {
			continue
		}
		if err = d.removeBackupLocked(addr); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	cleared := newIndex()
	cleared.NextNumber = idx.NextNumber
	if err = d.saveIndexLocked(ctx, cleared); err != nil {
		errs = multierror.Append(errs, err)
	}

	if err = errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: clear all: %v", tpcmm.ErrDirectoryIO, err)
	}

	d.log.Infof("Cleared %d wallets", len(idx.Wallets))
	return nil
}

// List returns every indexed record ordered by number.
func (d *Directory) List(ctx context.Context) ([]*Record, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	idx, err := d.loadIndexLocked(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, 0, len(idx.Wallets))
	for _, rec := range idx.Wallets {
		records = append(records, rec.clone())
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Number < records[j].Number
	})

	return records, nil
}

// Load reconciles the index with the backup folder: backups without an entry get
// the next numbers in address order, encrypted entries without a backup are dropped.
func (d *Directory) Load(ctx context.Context) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	idx, err := d.loadIndexLocked(ctx)
	if err != nil {
		return err
	}

	names, err := d.store.ListEntries()
	if err != nil {
		return ioErr("list", "backup folder", err)
	}

	durableAddrs := mapset.NewSet()
	for _, name := range names {
		if addr, ok := key_store.AddressFromBackupFileName(name); ok {
			durableAddrs.Add(addr)
		}
	}
	indexedAddrs := mapset.NewSet()
	for addr, rec := range idx.Wallets {
		if rec.IsEncrypted() {
			indexedAddrs.Add(addr)
		}
	}

	var missing []tpcrtypes.Address
	for _, a := range durableAddrs.Difference(indexedAddrs).ToSlice() {
		missing = append(missing, a.(tpcrtypes.Address))
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	for _, addr := range missing {
		backup, err := d.store.ReadFile(key_store.BackupFileName(addr))
		if err != nil {
			return ioErr("read backup of", addr, err)
		}
		number, err := d.nextNumberLocked(idx)
		if err != nil {
			return err
		}
		idx.Wallets[addr] = &Record{
			Number:        number,
			Address:       addr,
			CreatedAt:     d.now().UTC(),
			SourceKind:    SourceKind_EncryptedBackup,
			EncryptedData: string(backup),
		}
		idx.NumberToAddress[number] = addr
	}

	stale := indexedAddrs.Difference(durableAddrs)
	for _, a := range stale.ToSlice() {
		addr := a.(tpcrtypes.Address)
		d.log.Warnf("Backup of wallet #%d %s is missing, drop it from the directory", idx.Wallets[addr].Number, addr)
		idx.remove(addr)
	}

	if err = d.saveIndexLocked(ctx, idx); err != nil {
		return err
	}

	d.log.Infof("Directory loaded: %d wallets, %d recovered from backups, %d dropped", len(idx.Wallets), len(missing), stale.Cardinality())
	return nil
}
