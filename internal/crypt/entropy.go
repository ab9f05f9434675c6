package crypt

import (
	"crypto/rand"
	"fmt"
	"io"
)

// DefaultEntropyBytes is how many random bytes a Hasher draws for a salt.
const DefaultEntropyBytes = 30

// EntropySource supplies cryptographically strong random bytes.
type EntropySource interface {
	RandomBytes(n int) ([]byte, error)
}

// SystemEntropy reads from the operating system CSPRNG.
type SystemEntropy struct {
	reader io.Reader
}

// NewSystemEntropy returns an EntropySource backed by crypto/rand.
func NewSystemEntropy() *SystemEntropy {
	return &SystemEntropy{reader: rand.Reader}
}

// RandomBytes returns n strong random bytes or an ErrWeakEntropy error.
// A short read is treated as a failure, never padded.
func (s *SystemEntropy) RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: requested %d bytes", ErrMissingEntropy, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(s.reader, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakEntropy, err)
	}
	return b, nil
}
