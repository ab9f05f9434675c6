package crypt

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
)

// fakePrimitive mimics crypt(3) closely enough for the builder logic: the
// output is the setting's descriptor part followed by a digest of the key,
// so re-running it with a finished hash reproduces that hash.
type fakePrimitive struct {
	calls    []string
	disabled map[string]bool // signature -> reports failure
}

func (f *fakePrimitive) Crypt(key, setting string) (string, error) {
	f.calls = append(f.calls, setting)
	for sig := range f.disabled {
		if sig != "" && strings.HasPrefix(setting, sig) {
			return "*0", nil
		}
	}
	prefix, _, _ := strings.Cut(setting, "#")
	return fmt.Sprintf("%s#%x", prefix, sha256.Sum256([]byte(key))), nil
}

// countingEntropy hands out deterministic bytes and counts draws.
type countingEntropy struct {
	draws int
	err   error
	short bool
}

func (c *countingEntropy) RandomBytes(n int) ([]byte, error) {
	c.draws++
	if c.err != nil {
		return nil, c.err
	}
	if c.short {
		n /= 2
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i + c.draws)
	}
	return b, nil
}

var errEntropyDown = errors.New("entropy device unavailable")
