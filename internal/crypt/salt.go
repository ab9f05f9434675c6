package crypt

import (
	"encoding/base64"
	"strings"
)

// Sanitize replaces every byte outside the crypt(3) salt alphabet
// [./0-9A-Za-z] with '.'. It never fails and Sanitize(Sanitize(s)) equals
// Sanitize(s).
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if isSaltByte(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// SaltFromEntropy base64-encodes the raw bytes and sanitizes the result.
// 30 bytes give a 40 character salt, enough for every algorithm.
func SaltFromEntropy(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrMissingEntropy
	}
	return Sanitize(base64.StdEncoding.EncodeToString(raw)), nil
}

func isSaltByte(c byte) bool {
	switch {
	case c == '.' || c == '/':
		return true
	case c >= '0' && c <= '9':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	}
	return false
}
