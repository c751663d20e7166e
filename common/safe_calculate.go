package common

import (
	"fmt"
	"math/bits"
)

// SafeAddUint64 guards the wallet number counter against wrapping.
func SafeAddUint64(a, b uint64) (uint64, error) {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("uint64 overflow adding %d and %d", a, b)
	}
	return s, nil
}
