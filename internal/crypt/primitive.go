package crypt

import "strings"

// Primitive is a crypt(3)-equivalent: given a key and a setting it returns
// the hash. The setting is either a fresh descriptor or a complete hash, in
// which case the embedded descriptor is reused and the output equals the
// hash exactly when the key matches.
//
// Implementations must be safe for concurrent use.
type Primitive interface {
	Crypt(key, setting string) (string, error)
}

// PrimitiveFunc adapts an ordinary function to the Primitive interface.
type PrimitiveFunc func(key, setting string) (string, error)

// Crypt calls f(key, setting).
func (f PrimitiveFunc) Crypt(key, setting string) (string, error) {
	return f(key, setting)
}

// failureToken is what crypt(3) returns when it cannot hash: "*0", or "*1"
// when the setting itself starts with "*0", so that the token never
// compares equal to its input.
func failureToken(setting string) string {
	if strings.HasPrefix(setting, "*0") {
		return "*1"
	}
	return "*0"
}
