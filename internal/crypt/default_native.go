//go:build !libcrypt || !cgo

package crypt

// DefaultPrimitive returns the primitive this binary was built with: the
// pure Go Native unless the libcrypt build tag is set.
func DefaultPrimitive() Primitive {
	return NewNative()
}
