// Package crypt builds crypt(3) hash descriptors and hashes passwords
// through an injected crypt(3)-equivalent Primitive.
//
// A descriptor (also called a setting) tells crypt(3) which algorithm to
// run, how many rounds, and which salt:
//
//	""       + "ab"                         std_des
//	"_"      + "J9.." + "salt"              ext_des (rounds packed in 4 chars)
//	"$1$"    + "saltsalt" + "$"             md5
//	"$2a$"   + "10$" + "22-char-salt" + "$" blowfish
//	"$5$"    + "rounds=5000$" + "salt$"     sha256
//	"$6$"    + "rounds=5000$" + "salt$"     sha512
//
// The package never computes a digest itself. Native covers md5, blowfish,
// sha256 and sha512 in pure Go; building with -tags libcrypt switches
// DefaultPrimitive to the host's crypt_r.
package crypt

import (
	"fmt"
	"strconv"
	"strings"
)

// Algorithm names a crypt(3) hashing mode.
//
// It is a closed set: every value the package hands out is one of the
// constants below, and every method rejects anything else with
// ErrUnsupportedAlgorithm.
type Algorithm string

const (
	StdDES   Algorithm = "std_des"
	ExtDES   Algorithm = "ext_des"
	MD5      Algorithm = "md5"
	Blowfish Algorithm = "blowfish"
	SHA256   Algorithm = "sha256"
	SHA512   Algorithm = "sha512"
)

// alphabet is the crypt(3) base64 alphabet. Note the order: '.' is 0,
// digits come before uppercase, 'z' is 63.
const alphabet = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Algorithms lists every supported algorithm, weakest first.
func Algorithms() []Algorithm {
	return []Algorithm{StdDES, ExtDES, MD5, Blowfish, SHA256, SHA512}
}

// ParseAlgorithm maps a configuration name such as "sha512" to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if !alg.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
	return alg, nil
}

// Valid reports whether a is one of the catalog constants.
func (a Algorithm) Valid() bool {
	switch a {
	case StdDES, ExtDES, MD5, Blowfish, SHA256, SHA512:
		return true
	}
	return false
}

func (a Algorithm) String() string {
	return string(a)
}

// Signature returns the crypt(3) prefix that selects the algorithm.
func (a Algorithm) Signature() (string, error) {
	switch a {
	case StdDES:
		return "", nil
	case ExtDES:
		return "_", nil
	case MD5:
		return "$1$", nil
	case Blowfish:
		return "$2a$", nil
	case SHA256:
		return "$5$", nil
	case SHA512:
		return "$6$", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
}

// RoundsSignature returns the rounds part of the descriptor for count.
// std_des and md5 cannot encode a cost, so they yield "".
func (a Algorithm) RoundsSignature(count int) (string, error) {
	switch a {
	case StdDES, MD5:
		return "", nil
	case ExtDES:
		return EncodeDESIterations(count), nil
	case Blowfish:
		return fmt.Sprintf("%02d$", count), nil
	case SHA256, SHA512:
		return "rounds=" + strconv.Itoa(count) + "$", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
}

// Modular reports whether the algorithm uses the $id$...$ modular format,
// in which case descriptors are terminated with '$'.
func (a Algorithm) Modular() bool {
	switch a {
	case MD5, Blowfish, SHA256, SHA512:
		return true
	}
	return false
}

// EncodeDESIterations packs an extended DES round count into four
// characters, least significant six bits first. Even counts are lowered by
// one: extended DES salts only ever carry odd counts.
func EncodeDESIterations(iterations int) string {
	if iterations%2 == 0 {
		iterations--
	}

	var b [4]byte
	for i := range b {
		b[i] = alphabet[(iterations>>(6*i))&63]
	}
	return string(b[:])
}

// DecodeDESIterations reverses EncodeDESIterations.
func DecodeDESIterations(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: extended DES count must be 4 characters, got %d", ErrInvalidHash, len(s))
	}

	n := 0
	for i := 0; i < 4; i++ {
		v := strings.IndexByte(alphabet, s[i])
		if v < 0 {
			return 0, fmt.Errorf("%w: %q is not a crypt base64 character", ErrInvalidHash, s[i])
		}
		n |= v << (6 * i)
	}
	return n, nil
}

// DefaultIterations is the cost used when none is configured.
func DefaultIterations(a Algorithm) int {
	switch a {
	case SHA256, SHA512:
		return 5000
	case Blowfish:
		return 10
	case ExtDES:
		return 725
	}
	return 0
}

// ValidateIterations checks n against the bounds documented for crypt(3).
// Algorithms without a cost parameter accept any value.
func ValidateIterations(a Algorithm, n int) error {
	var lo, hi int
	switch a {
	case StdDES, MD5:
		return nil
	case ExtDES:
		lo, hi = 1, 1<<24-1
	case Blowfish:
		lo, hi = 4, 31
	case SHA256, SHA512:
		lo, hi = 1000, 999999999
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}

	if n < lo || n > hi {
		return fmt.Errorf("%w: %s accepts %d..%d, got %d", ErrInvalidIterations, a, lo, hi, n)
	}
	return nil
}
