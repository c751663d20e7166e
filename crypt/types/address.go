package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	tpcmm "github.com/TopiaNetwork/topia-vault/common"
)

const (
	AccountIDLen         = 32 // 32 bytes
	PublicKeyLen_Ed25519 = 32 // 32 bytes
	PublicKeyLen_Sr25519 = 32 // 32 bytes
	PublicKeyLen_Ecdsa   = 33 // 33 bytes, compressed
)

// MaxAddressFormat is the largest network prefix the two-byte SS58 prefix can carry.
const MaxAddressFormat = 16383

const checksumHashLength = 2

var checksumPrefix = []byte("SS58PRE")

var UndefAddress = Address("<empty>")

// Address is the SS58 encoding of an account id under a network address format.
type Address string

func checksum(data []byte) []byte {
	return tpcmm.NewBlake2bHasher(64).ComputeParts(checksumPrefix, data)[:checksumHashLength]
}

// AccountID returns the 32 bytes an address commits to: the public key itself for
// ed25519/sr25519, the blake2b-256 digest of the compressed key for ecdsa.
func AccountID(cryptType CryptType, pubKey PublicKey) ([]byte, error) {
	switch cryptType {
	case CryptType_Ed25519, CryptType_Sr25519:
		if len(pubKey) != AccountIDLen {
			return nil, fmt.Errorf("Invalid pubKey: len %d, expected %d", len(pubKey), AccountIDLen)
		}
		return tpcmm.BytesCopy(pubKey), nil
	case CryptType_Ecdsa:
		if len(pubKey) != PublicKeyLen_Ecdsa {
			return nil, fmt.Errorf("Invalid pubKey: len %d, expected %d", len(pubKey), PublicKeyLen_Ecdsa)
		}
		return tpcmm.NewBlake2bHasher(AccountIDLen).ComputeParts(pubKey), nil
	default:
		return nil, fmt.Errorf("%w: %s", tpcmm.ErrUnsupportedAlgorithm, cryptType.String())
	}
}

func encodeFormat(format uint16) ([]byte, error) {
	switch {
	case format < 64:
		return []byte{byte(format)}, nil
	case format <= MaxAddressFormat:
		first := byte((format&0x00fc)>>2) | 0x40
		second := byte(format>>8) | byte((format&0x0003)<<6)
		return []byte{first, second}, nil
	default:
		return nil, fmt.Errorf("Invalid address format %d, max %d", format, MaxAddressFormat)
	}
}

func decodeFormat(data []byte) (format uint16, prefixLen int, err error) {
	if len(data) == 0 {
		return 0, 0, errors.New("Invalid address: len 0")
	}
	switch {
	case data[0] < 64:
		return uint16(data[0]), 1, nil
	case data[0] < 128:
		if len(data) < 2 {
			return 0, 0, errors.New("Invalid address: truncated prefix")
		}
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0x3f
		return uint16(lower) | uint16(upper)<<8, 2, nil
	default:
		return 0, 0, fmt.Errorf("Invalid address prefix byte %d", data[0])
	}
}

// NewAddress encodes a 32-byte account id with the given network format.
func NewAddress(format uint16, accountID []byte) (Address, error) {
	if len(accountID) != AccountIDLen {
		return UndefAddress, fmt.Errorf("Invalid payload: len %d, expected %d", len(accountID), AccountIDLen)
	}
	prefix, err := encodeFormat(format)
	if err != nil {
		return UndefAddress, err
	}

	data := make([]byte, 0, len(prefix)+len(accountID)+checksumHashLength)
	data = append(data, prefix...)
	data = append(data, accountID...)
	data = append(data, checksum(data)...)

	return Address(base58.Encode(data)), nil
}

// Decode returns the network format and account id, validating the checksum.
func (a Address) Decode() (uint16, []byte, error) {
	if len(a) == 0 || a == UndefAddress {
		return 0, nil, errors.New("Invalid address: empty")
	}

	data, err := base58.Decode(string(a))
	if err != nil {
		return 0, nil, fmt.Errorf("Invalid address encoding: %v", err)
	}

	format, prefixLen, err := decodeFormat(data)
	if err != nil {
		return 0, nil, err
	}

	if len(data) != prefixLen+AccountIDLen+checksumHashLength {
		return 0, nil, fmt.Errorf("Invalid address length %d", len(data))
	}

	body := data[:prefixLen+AccountIDLen]
	cksm := data[prefixLen+AccountIDLen:]
	if !bytes.Equal(checksum(body), cksm) {
		return 0, nil, errors.New("Invalid checksum")
	}

	return format, tpcmm.BytesCopy(data[prefixLen : prefixLen+AccountIDLen]), nil
}

func (a Address) AddressFormat() (uint16, error) {
	format, _, err := a.Decode()
	return format, err
}

func (a Address) AccountID() ([]byte, error) {
	_, accountID, err := a.Decode()
	return accountID, err
}

func (a Address) IsValid() bool {
	_, _, err := a.Decode()
	return err == nil
}

func (a Address) String() string {
	return string(a)
}
