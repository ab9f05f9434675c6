package crypt

import (
	"crypto/subtle"
	"errors"
	"fmt"
)

// Hasher builds one crypt(3) hash: pick an algorithm and cost, optionally
// pin the salt or the raw entropy behind it, then call Hash.
//
// A Hasher is a short-lived value. It is not safe for concurrent use; the
// Catalog and Primitive it points to are.
//
//	h := crypt.NewHasher(catalog, crypt.NewSystemEntropy())
//	if err := h.SetAlgorithm(crypt.SHA512); err != nil { ... }
//	hash, err := h.SetIterations(30000).HashKey(password)
type Hasher struct {
	catalog *Catalog
	entropy EntropySource

	algorithm  Algorithm
	iterations int
	bytes      []byte
	salt       string
	key        string
	hash       string
}

// NewHasher returns a Hasher set to sha512 at its default cost. The caller
// should still call SetAlgorithm when sha512 might be unavailable.
func NewHasher(catalog *Catalog, entropy EntropySource) *Hasher {
	return &Hasher{
		catalog:    catalog,
		entropy:    entropy,
		algorithm:  SHA512,
		iterations: DefaultIterations(SHA512),
	}
}

// SetAlgorithm selects the algorithm. It fails with ErrUnsupportedAlgorithm
// or ErrAlgorithmUnavailable and leaves the Hasher untouched in that case.
func (h *Hasher) SetAlgorithm(alg Algorithm) error {
	if err := h.catalog.Check(alg); err != nil {
		return err
	}
	h.algorithm = alg
	return nil
}

// SetIterations sets the cost. Range checks happen when the descriptor is built.
func (h *Hasher) SetIterations(n int) *Hasher {
	h.iterations = n
	return h
}

// SetKey sets the plaintext to hash.
func (h *Hasher) SetKey(key string) *Hasher {
	h.key = key
	return h
}

// SetEntropy sets the raw bytes the salt will be derived from. It has no
// effect once the salt has been derived, nor on blowfish hashes made by
// Native, which draws its own salt.
func (h *Hasher) SetEntropy(b []byte) *Hasher {
	h.bytes = append([]byte(nil), b...)
	return h
}

// SetSalt pins the salt. Bytes outside [./0-9A-Za-z] become '.'.
//
// Native ignores the salt for blowfish: x/crypto/bcrypt always draws its
// own, so such hashes share only the cost with the descriptor.
func (h *Hasher) SetSalt(salt string) *Hasher {
	h.salt = Sanitize(salt)
	return h
}

// GenerateEntropy replaces the entropy bytes with DefaultEntropyBytes fresh
// bytes from the entropy source.
func (h *Hasher) GenerateEntropy() error {
	if h.entropy == nil {
		return fmt.Errorf("%w: no entropy source configured", ErrWeakEntropy)
	}
	b, err := h.entropy.RandomBytes(DefaultEntropyBytes)
	if err != nil {
		if errors.Is(err, ErrWeakEntropy) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrWeakEntropy, err)
	}
	if len(b) < DefaultEntropyBytes {
		return fmt.Errorf("%w: got %d of %d bytes", ErrWeakEntropy, len(b), DefaultEntropyBytes)
	}
	h.bytes = b
	return nil
}

// Salt returns the salt, deriving it from the entropy bytes the first time.
// Entropy is drawn from the source if none was set.
func (h *Hasher) Salt() (string, error) {
	if h.salt != "" {
		return h.salt, nil
	}
	if len(h.bytes) == 0 {
		if err := h.GenerateEntropy(); err != nil {
			return "", err
		}
	}
	salt, err := SaltFromEntropy(h.bytes)
	if err != nil {
		return "", err
	}
	h.salt = salt
	return salt, nil
}

// Descriptor returns the full setting string for the current configuration.
func (h *Hasher) Descriptor() (string, error) {
	salt, err := h.Salt()
	if err != nil {
		return "", err
	}
	return BuildDescriptor(h.algorithm, h.iterations, salt)
}

// Hash hashes the current key and remembers the result.
func (h *Hasher) Hash() (string, error) {
	setting, err := h.Descriptor()
	if err != nil {
		return "", err
	}
	out, err := h.catalog.Primitive().Crypt(h.key, setting)
	if err != nil {
		return "", fmt.Errorf("crypt: hashing with %s: %w", h.algorithm, err)
	}
	h.hash = out
	return out, nil
}

// HashKey sets key and hashes it.
func (h *Hasher) HashKey(key string) (string, error) {
	return h.SetKey(key).Hash()
}

// LastHash returns the result of the last successful Hash call.
func (h *Hasher) LastHash() string {
	return h.hash
}

// Algorithm returns the selected algorithm.
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// Iterations returns the configured cost.
func (h *Hasher) Iterations() int {
	return h.iterations
}

// Verify reports whether key hashes to hash. The descriptor is taken from
// hash itself, so any hash the primitive ever produced can be checked.
func (h *Hasher) Verify(key, hash string) bool {
	return Verify(h.catalog.Primitive(), key, hash)
}

// Verify recomputes primitive(key, hash) and compares the result with hash
// in constant time. A primitive error counts as a mismatch.
func Verify(p Primitive, key, hash string) bool {
	out, err := p.Crypt(key, hash)
	if err != nil || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(out), []byte(hash)) == 1
}
