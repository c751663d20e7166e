package common

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"
	"math/rand"

	"lukechampine.com/frand"
)

type SeedRandReader struct {
	randomizer *rand.Rand
}

// NewSeedRandReader returns a reproducible reader. Tests only: never use it for key material.
func NewSeedRandReader(seed []byte) (*SeedRandReader, error) {
	if len(seed) == 0 {
		return nil, errors.New("seed buf size 0")
	}

	seedHash := sha256.Sum256(seed)
	seedNumber := binary.BigEndian.Uint64(seedHash[:])

	return &SeedRandReader{
		randomizer: rand.New(rand.NewSource(int64(seedNumber))),
	}, nil
}

func (srr *SeedRandReader) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, errors.New("buf size 0")
	}

	return srr.randomizer.Read(p)
}

type frandReader struct{}

func (frandReader) Read(p []byte) (int, error) {
	return frand.Read(p)
}

// NewRandReader returns the process CSPRNG when seed is empty.
func NewRandReader(seed string) (io.Reader, error) {
	if len(seed) == 0 {
		return frandReader{}, nil
	}

	return NewSeedRandReader([]byte(seed))
}

// RandBytes reads n bytes from r, or from frand when r is nil.
func RandBytes(r io.Reader, n int) ([]byte, error) {
	if r == nil {
		return frand.Bytes(n), nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
