package auth

import (
	"errors"
	"fmt"
)

// Verification outcomes. Callers that only care about pass/fail can use
// Result.Err and errors.Is against these.
var (
	ErrIdentityNotFound  = errors.New("auth: identity not found")
	ErrCredentialInvalid = errors.New("auth: invalid credential")
	ErrIdentityAmbiguous = errors.New("auth: identity matches more than one record")
)

// Verifier checks a plaintext key against a stored crypt(3) hash.
// *crypt.Hasher satisfies it, as does PasswordService.Verifier().
type Verifier interface {
	Verify(key, hash string) bool
}

// VerifierFunc adapts a plain function to Verifier.
type VerifierFunc func(key, hash string) bool

func (f VerifierFunc) Verify(key, hash string) bool {
	return f(key, hash)
}

// Outcome is the result of one authentication attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeIdentityNotFound
	OutcomeCredentialInvalid
	OutcomeIdentityAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeIdentityNotFound:
		return "identity_not_found"
	case OutcomeCredentialInvalid:
		return "credential_invalid"
	case OutcomeIdentityAmbiguous:
		return "identity_ambiguous"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result carries the outcome and, on success, the index of the matching
// record in the slice passed to Authenticate. Match is -1 otherwise.
type Result struct {
	Outcome Outcome
	Match   int
}

// OK reports whether the credential was accepted.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Err returns nil on success and the matching sentinel otherwise.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeSuccess:
		return nil
	case OutcomeIdentityNotFound:
		return ErrIdentityNotFound
	case OutcomeIdentityAmbiguous:
		return ErrIdentityAmbiguous
	}
	return ErrCredentialInvalid
}

// Authenticator checks a credential against the hashes stored for an
// identity, spending the same hashing work whether or not the identity
// exists.
//
// WHY A DUMMY HASH?
// A naive login handler looks the user up and returns early when there is
// no such row. That early return skips the expensive hash, so "unknown
// user" answers in microseconds while "wrong password" takes the full
// hashing cost. An attacker timing the responses can enumerate valid
// usernames without ever guessing a password.
//
// The fix is to always run exactly one verification. When no record was
// found we verify against a dummy hash instead and throw the answer away.
// For the two paths to cost the same, the dummy must use the same
// algorithm and rounds as real hashes (mint one with cmd/mkpasswd).
//
// An Authenticator holds no mutable state and is safe for concurrent use.
type Authenticator struct {
	verifier Verifier
	dummy    string
}

// NewAuthenticator returns an Authenticator that verifies with v and uses
// dummy on the identity-not-found path.
func NewAuthenticator(v Verifier, dummy string) (*Authenticator, error) {
	if v == nil {
		return nil, errors.New("auth: authenticator needs a verifier")
	}
	if dummy == "" {
		return nil, errors.New("auth: authenticator needs a dummy hash")
	}
	return &Authenticator{verifier: v, dummy: dummy}, nil
}

// Authenticate verifies credential against storedHashes, the hashes of
// every record found for the identity.
//
//   - no records: verify against the dummy, report OutcomeIdentityNotFound
//   - one record: OutcomeSuccess or OutcomeCredentialInvalid
//   - several records: the first one is still verified, then the attempt is
//     refused with OutcomeIdentityAmbiguous
//
// Exactly one verification runs on every path.
func (a *Authenticator) Authenticate(credential string, storedHashes []string) Result {
	switch len(storedHashes) {
	case 0:
		_ = a.verifier.Verify(credential, a.dummy)
		return Result{Outcome: OutcomeIdentityNotFound, Match: -1}
	case 1:
		if a.verifier.Verify(credential, storedHashes[0]) {
			return Result{Outcome: OutcomeSuccess, Match: 0}
		}
		return Result{Outcome: OutcomeCredentialInvalid, Match: -1}
	default:
		_ = a.verifier.Verify(credential, storedHashes[0])
		return Result{Outcome: OutcomeIdentityAmbiguous, Match: -1}
	}
}

// Dummy returns the hash used on the identity-not-found path.
func (a *Authenticator) Dummy() string {
	return a.dummy
}
