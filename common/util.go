package common

import (
	"encoding/hex"
	"fmt"
)

func panicf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func BytesCopy(src []byte) []byte {
	dst := make([]byte, len(src))
	copy(dst, src)

	return dst
}

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func Has0xPrefix(str string) bool {
	return len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X')
}

func IsHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func IsHex(str string) bool {
	if len(str)%2 != 0 {
		return false
	}
	for _, c := range []byte(str) {
		if !IsHexCharacter(c) {
			return false
		}
	}
	return true
}

// DecodeHex accepts an optional 0x prefix.
func DecodeHex(str string) ([]byte, error) {
	if Has0xPrefix(str) {
		str = str[2:]
	}
	if !IsHex(str) {
		return nil, fmt.Errorf("invalid hex string %q", str)
	}
	return hex.DecodeString(str)
}

func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
