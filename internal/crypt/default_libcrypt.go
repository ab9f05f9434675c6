//go:build libcrypt && cgo

package crypt

// DefaultPrimitive returns the host crypt(3) when built with the libcrypt tag.
func DefaultPrimitive() Primitive {
	return NewLibcrypt()
}
