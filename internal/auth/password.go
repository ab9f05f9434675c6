// Package auth handles credentials: crypt(3) password hashing, timing-safe
// verification and JWT session tokens.
//
// WHY CRYPT(3) FORMAT?
// A crypt(3) hash is self-describing. The prefix names the algorithm and
// cost, the salt follows, then the digest:
//
//	$6$rounds=30000$YXHvzmVVstW6zJ0o$VCix7vFOjbE...
//	 ^  ^            ^                ^
//	 |  cost         salt             digest
//	 algorithm (6 = sha512)
//
// Verification needs nothing but the stored string, so the same column can
// hold hashes written by /etc/shadow tooling, older releases of this
// service with a different algorithm, and today's configuration side by
// side. When settings change, old hashes keep working and get upgraded on
// the next successful login (see NeedsRehash).
package auth

import (
	"errors"
	"fmt"

	"github.com/sakif/cryptpass/internal/crypt"
)

// maxBlowfishKey is the bcrypt input limit. Longer keys are silently
// truncated by the algorithm, so we refuse them instead.
const maxBlowfishKey = 72

// PasswordService hashes new passwords with one configured algorithm and
// cost, and verifies passwords against hashes of any algorithm the
// catalog supports.
//
// It's a struct (not free functions) so that the algorithm and cost can be
// injected: tests use sha256 at 1000 rounds to stay fast.
type PasswordService struct {
	catalog    *crypt.Catalog
	entropy    crypt.EntropySource
	algorithm  crypt.Algorithm
	iterations int
}

// NewPasswordService validates alg and iterations against catalog.
func NewPasswordService(catalog *crypt.Catalog, entropy crypt.EntropySource, alg crypt.Algorithm, iterations int) (*PasswordService, error) {
	if err := catalog.Check(alg); err != nil {
		return nil, fmt.Errorf("auth: password algorithm: %w", err)
	}
	if err := crypt.ValidateIterations(alg, iterations); err != nil {
		return nil, fmt.Errorf("auth: password iterations: %w", err)
	}
	return &PasswordService{
		catalog:    catalog,
		entropy:    entropy,
		algorithm:  alg,
		iterations: iterations,
	}, nil
}

// NewPasswordServiceForTest returns a pure-Go PasswordService using sha256
// at the minimum 1000 rounds. Use this in tests in other packages.
//
// Do NOT use in production: 1000 rounds is far too cheap.
func NewPasswordServiceForTest() *PasswordService {
	ps, err := NewPasswordService(crypt.NewCatalog(crypt.NewNative()), crypt.NewSystemEntropy(), crypt.SHA256, 1000)
	if err != nil {
		panic(err)
	}
	return ps
}

// Algorithm returns the algorithm new hashes are written with.
func (p *PasswordService) Algorithm() crypt.Algorithm {
	return p.algorithm
}

// Iterations returns the cost new hashes are written with.
func (p *PasswordService) Iterations() int {
	return p.iterations
}

// Hash hashes plaintext with a fresh salt.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if p.algorithm == crypt.Blowfish && len(plaintext) > maxBlowfishKey {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxBlowfishKey)
	}

	h := crypt.NewHasher(p.catalog, p.entropy)
	if err := h.SetAlgorithm(p.algorithm); err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	hashed, err := h.SetIterations(p.iterations).HashKey(plaintext)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return hashed, nil
}

// Verify checks whether plaintext matches a stored hash, returning
// ErrCredentialInvalid if it doesn't. The comparison is constant time.
//
// Login never calls this: it goes through Verifier and an Authenticator so
// that unknown identities cost the same. Verify is for tools and tests that
// hold a single known hash.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if !p.Verifier().Verify(plaintext, hash) {
		return ErrCredentialInvalid
	}
	return nil
}

// Verifier exposes the catalog's primitive as a Verifier for an
// Authenticator.
func (p *PasswordService) Verifier() Verifier {
	prim := p.catalog.Primitive()
	return VerifierFunc(func(key, hash string) bool {
		return crypt.Verify(prim, key, hash)
	})
}

// NeedsRehash reports whether hash was written with a different algorithm
// or cost than the service is configured for. Unparseable hashes always
// need a rehash.
func (p *PasswordService) NeedsRehash(hash string) bool {
	d, err := crypt.ParseHash(hash)
	if err != nil {
		return true
	}
	if d.Algorithm != p.algorithm {
		return true
	}
	switch p.algorithm {
	case crypt.StdDES, crypt.MD5:
		return false
	}
	return d.Iterations != p.iterations
}

// DummyHash mints a hash of random bytes with the configured algorithm and
// cost, for use as an Authenticator's dummy when none is configured.
func (p *PasswordService) DummyHash() (string, error) {
	if p.entropy == nil {
		return "", errors.New("auth: dummy hash needs an entropy source")
	}
	key, err := p.entropy.RandomBytes(crypt.DefaultEntropyBytes)
	if err != nil {
		return "", fmt.Errorf("auth: dummy hash: %w", err)
	}
	salt, err := crypt.SaltFromEntropy(key)
	if err != nil {
		return "", fmt.Errorf("auth: dummy hash: %w", err)
	}
	return p.Hash(salt)
}

// CheckDummy reports whether a configured dummy hash costs the same as
// freshly written hashes.
func (p *PasswordService) CheckDummy(dummy string) error {
	d, err := crypt.ParseHash(dummy)
	if err != nil {
		return fmt.Errorf("auth: dummy hash: %w", err)
	}
	if p.NeedsRehash(dummy) {
		return fmt.Errorf("auth: dummy hash uses %s/%d, passwords use %s/%d",
			d.Algorithm, d.Iterations, p.algorithm, p.iterations)
	}
	return nil
}
