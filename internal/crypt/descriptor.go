package crypt

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildDescriptor assembles the setting string handed to the primitive:
// signature, rounds part, salt and, for modular algorithms, a closing '$'.
// The result never contains a digest.
func BuildDescriptor(alg Algorithm, iterations int, salt string) (string, error) {
	sig, err := alg.Signature()
	if err != nil {
		return "", err
	}
	if err := ValidateIterations(alg, iterations); err != nil {
		return "", err
	}
	rounds, err := alg.RoundsSignature(iterations)
	if err != nil {
		return "", err
	}

	d := sig + rounds + salt
	if alg.Modular() {
		d += "$"
	}
	return d, nil
}

// Descriptor is the parameter set recovered from a stored hash.
type Descriptor struct {
	Algorithm  Algorithm
	Iterations int
	Salt       string
}

// ParseHash recovers algorithm, iterations and salt from a hash or a bare
// descriptor. For md5 and std_des Iterations is 0; for sha256/sha512 without
// an explicit rounds= part it is the crypt(3) default of 5000.
func ParseHash(hash string) (Descriptor, error) {
	switch {
	case strings.HasPrefix(hash, "$1$"):
		salt, _ := splitField(hash[len("$1$"):])
		return Descriptor{Algorithm: MD5, Salt: salt}, nil

	case strings.HasPrefix(hash, "$5$"), strings.HasPrefix(hash, "$6$"):
		alg := SHA256
		if hash[1] == '6' {
			alg = SHA512
		}
		rest := hash[3:]
		iterations := DefaultIterations(alg)
		if strings.HasPrefix(rest, "rounds=") {
			field, tail := splitField(rest[len("rounds="):])
			n, err := strconv.Atoi(field)
			if err != nil {
				return Descriptor{}, fmt.Errorf("%w: rounds %q", ErrInvalidHash, field)
			}
			iterations, rest = n, tail
		}
		salt, _ := splitField(rest)
		return Descriptor{Algorithm: alg, Iterations: iterations, Salt: salt}, nil

	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		field, rest := splitField(hash[4:])
		cost, err := strconv.Atoi(field)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: bcrypt cost %q", ErrInvalidHash, field)
		}
		salt := strings.TrimSuffix(rest, "$")
		if len(salt) > 22 {
			salt = salt[:22]
		}
		return Descriptor{Algorithm: Blowfish, Iterations: cost, Salt: salt}, nil

	case strings.HasPrefix(hash, "$"):
		return Descriptor{}, fmt.Errorf("%w: unknown prefix", ErrInvalidHash)

	case strings.HasPrefix(hash, "_"):
		if len(hash) < 9 {
			return Descriptor{}, fmt.Errorf("%w: extended DES setting too short", ErrInvalidHash)
		}
		n, err := DecodeDESIterations(hash[1:5])
		if err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Algorithm: ExtDES, Iterations: n, Salt: hash[5:9]}, nil
	}

	// Traditional DES: a bare 2 character salt, or salt plus 11 digest
	// characters.
	if len(hash) != 2 && len(hash) != 13 {
		return Descriptor{}, fmt.Errorf("%w: DES hash must be 2 or 13 characters, got %d", ErrInvalidHash, len(hash))
	}
	for i := 0; i < len(hash); i++ {
		if !isSaltByte(hash[i]) {
			return Descriptor{}, fmt.Errorf("%w: %q is not a crypt base64 character", ErrInvalidHash, hash[i])
		}
	}
	return Descriptor{Algorithm: StdDES, Salt: hash[:2]}, nil
}

// splitField returns the text before the next '$' and the text after it.
func splitField(s string) (string, string) {
	field, rest, _ := strings.Cut(s, "$")
	return field, rest
}
