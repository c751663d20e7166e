package directory

import (
	"time"

	tpcrtypes "github.com/TopiaNetwork/topia-vault/crypt/types"
)

type SourceKind string

const (
	SourceKind_Mnemonic        SourceKind = "mnemonic"
	SourceKind_EncryptedBackup SourceKind = "encryptedBackup"
)

type MnemonicData struct {
	Mnemonic       string                    `json:"mnemonic"`
	KeyringOptions tpcrtypes.KeyringOptions  `json:"keyringOptions"`
	Derivation     *tpcrtypes.DerivationPath `json:"derivation,omitempty"`
}

// Record is one directory entry. Exactly one of MnemonicData and EncryptedData is set,
// according to SourceKind.
type Record struct {
	Number        uint64            `json:"number"`
	Address       tpcrtypes.Address `json:"-"`
	CreatedAt     time.Time         `json:"createdAt"`
	SourceKind    SourceKind        `json:"sourceKind"`
	MnemonicData  *MnemonicData     `json:"mnemonicData,omitempty"`
	EncryptedData string            `json:"encryptedData,omitempty"`
}

func (r *Record) IsEncrypted() bool {
	return r.SourceKind == SourceKind_EncryptedBackup
}

func (r *Record) clone() *Record {
	c := *r
	if r.MnemonicData != nil {
		md := *r.MnemonicData
		if r.MnemonicData.Derivation != nil {
			d := *r.MnemonicData.Derivation
			md.Derivation = &d
		}
		c.MnemonicData = &md
	}
	return &c
}

// index is the value kept under CacheKey.
type index struct {
	Wallets         map[tpcrtypes.Address]*Record `json:"wallets"`
	NumberToAddress map[uint64]tpcrtypes.Address  `json:"numberToAddress"`
	NextNumber      uint64                        `json:"nextNumber"`
}

func newIndex() *index {
	return &index{
		Wallets:         make(map[tpcrtypes.Address]*Record),
		NumberToAddress: make(map[uint64]tpcrtypes.Address),
		NextNumber:      1,
	}
}

// normalize rebuilds numberToAddress from the records and lifts nextNumber above
// every number in use.
func (idx *index) normalize() {
	if idx.Wallets == nil {
		idx.Wallets = make(map[tpcrtypes.Address]*Record)
	}
	idx.NumberToAddress = make(map[uint64]tpcrtypes.Address, len(idx.Wallets))
	if idx.NextNumber == 0 {
		idx.NextNumber = 1
	}

	for addr, rec := range idx.Wallets {
		if rec == nil || rec.Number == 0 {
			delete(idx.Wallets, addr)
			continue
		}
		if other, ok := idx.NumberToAddress[rec.Number]; ok && other != addr {
			// two addresses claim one number, keep the lexically smaller
			if other < addr {
				delete(idx.Wallets, addr)
				continue
			}
			delete(idx.Wallets, other)
		}
		rec.Address = addr
		idx.NumberToAddress[rec.Number] = addr
		if rec.Number >= idx.NextNumber {
			idx.NextNumber = rec.Number + 1
		}
	}
}

// durableView drops plaintext records and the backup strings the backup files
// already hold.
func (idx *index) durableView() *index {
	view := &index{
		Wallets:         make(map[tpcrtypes.Address]*Record),
		NumberToAddress: make(map[uint64]tpcrtypes.Address),
		NextNumber:      idx.NextNumber,
	}
	for addr, rec := range idx.Wallets {
		if !rec.IsEncrypted() {
			continue
		}
		view.Wallets[addr] = &Record{
			Number:     rec.Number,
			CreatedAt:  rec.CreatedAt,
			SourceKind: rec.SourceKind,
		}
		view.NumberToAddress[rec.Number] = addr
	}
	return view
}

func (idx *index) remove(addr tpcrtypes.Address) {
	if rec, ok := idx.Wallets[addr]; ok {
		delete(idx.NumberToAddress, rec.Number)
		delete(idx.Wallets, addr)
	}
}
