package crypt

import "errors"

// Sentinel errors returned by this package. Compare with errors.Is; most
// are wrapped with extra context before they reach the caller.
var (
	// ErrUnsupportedAlgorithm is returned for an algorithm name outside the
	// catalog (std_des, ext_des, md5, blowfish, sha256, sha512).
	ErrUnsupportedAlgorithm = errors.New("crypt: unsupported algorithm")

	// ErrAlgorithmUnavailable is returned when the algorithm is known but the
	// hashing primitive in use cannot compute it on this host.
	ErrAlgorithmUnavailable = errors.New("crypt: algorithm not available on this host")

	// ErrMissingEntropy is returned when a salt is requested from zero bytes.
	ErrMissingEntropy = errors.New("crypt: no entropy to derive a salt from")

	// ErrWeakEntropy is returned when the entropy source fails or returns
	// fewer bytes than requested. It is never recovered from silently.
	ErrWeakEntropy = errors.New("crypt: entropy source did not produce strong random bytes")

	// ErrInvalidIterations is returned when an iteration count is outside the
	// documented crypt(3) bounds for the algorithm.
	ErrInvalidIterations = errors.New("crypt: iteration count out of range")

	// ErrInvalidHash is returned when a stored hash or descriptor cannot be parsed.
	ErrInvalidHash = errors.New("crypt: invalid hash or descriptor")

	// ErrUnsupportedSetting is returned by a Primitive that cannot handle the
	// setting string it was given.
	ErrUnsupportedSetting = errors.New("crypt: primitive does not support this setting")
)
