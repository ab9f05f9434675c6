//go:build libcrypt && cgo

package crypt

/*
#cgo LDFLAGS: -lcrypt
#include <stdlib.h>
#include <string.h>
#include <crypt.h>

// crypt_copy runs the reentrant crypt_r with a private work area and
// returns a heap copy of the result, or NULL on failure.
static char *crypt_copy(const char *key, const char *setting) {
	struct crypt_data *data = calloc(1, sizeof(struct crypt_data));
	if (data == NULL) {
		return NULL;
	}
	char *out = crypt_r(key, setting, data);
	char *res = out == NULL ? NULL : strdup(out);
	free(data);
	return res;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Libcrypt is the host's crypt(3), reached through crypt_r from libcrypt.
// Which algorithms work depends on how the library was built; a Catalog
// finds out.
type Libcrypt struct{}

// NewLibcrypt returns the libcrypt primitive.
func NewLibcrypt() *Libcrypt {
	return &Libcrypt{}
}

// Crypt calls crypt_r(key, setting).
func (l *Libcrypt) Crypt(key, setting string) (string, error) {
	cKey := C.CString(key)
	cSetting := C.CString(setting)
	defer C.free(unsafe.Pointer(cKey))
	defer C.free(unsafe.Pointer(cSetting))

	out := C.crypt_copy(cKey, cSetting)
	if out == nil {
		return "", fmt.Errorf("crypt: crypt_r failed for %q", settingPrefix(setting))
	}
	defer C.free(unsafe.Pointer(out))

	return C.GoString(out), nil
}
