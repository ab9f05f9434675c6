package crypt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	gcrypt "github.com/GehirnInc/crypt"
	_ "github.com/GehirnInc/crypt/md5_crypt"
	_ "github.com/GehirnInc/crypt/sha256_crypt"
	_ "github.com/GehirnInc/crypt/sha512_crypt"
	"golang.org/x/crypto/bcrypt"
)

// Native is a pure Go Primitive.
//
// md5, sha256 and sha512 settings are computed by github.com/GehirnInc/crypt
// and are byte-compatible with glibc. Blowfish goes through
// golang.org/x/crypto/bcrypt: complete hashes are verified exactly, but a
// fresh descriptor only contributes its cost because the library always
// draws its own salt. std_des and ext_des are not supported and show up as
// unavailable in a Catalog.
type Native struct{}

// NewNative returns the pure Go primitive.
func NewNative() *Native {
	return &Native{}
}

// Crypt dispatches on the setting prefix.
func (n *Native) Crypt(key, setting string) (string, error) {
	switch {
	case strings.HasPrefix(setting, "$1$"):
		return generate(gcrypt.MD5, key, setting)
	case strings.HasPrefix(setting, "$5$"):
		return generate(gcrypt.SHA256, key, setting)
	case strings.HasPrefix(setting, "$6$"):
		return generate(gcrypt.SHA512, key, setting)
	case strings.HasPrefix(setting, "$2a$"), strings.HasPrefix(setting, "$2b$"), strings.HasPrefix(setting, "$2y$"):
		return n.blowfish(key, setting)
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSetting, settingPrefix(setting))
}

func generate(c gcrypt.Crypt, key, setting string) (string, error) {
	salt, err := librarySalt(setting)
	if err != nil {
		return "", err
	}
	out, err := c.New().Generate([]byte(key), []byte(salt))
	if err != nil {
		return "", fmt.Errorf("crypt: generating %q hash: %w", settingPrefix(setting), err)
	}
	return out, nil
}

// librarySalt reduces a setting or a finished hash to the "$id$[rounds=N$]salt"
// form GehirnInc/crypt decodes correctly. Given anything after the rounds
// field, the library keeps the trailing '$' and digest as part of the salt.
func librarySalt(setting string) (string, error) {
	d, err := ParseHash(setting)
	if err != nil {
		return "", err
	}
	sig, err := d.Algorithm.Signature()
	if err != nil {
		return "", err
	}
	if d.Algorithm != MD5 && strings.HasPrefix(setting[len(sig):], "rounds=") {
		sig += "rounds=" + strconv.Itoa(d.Iterations) + "$"
	}
	return sig + d.Salt, nil
}

func (n *Native) blowfish(key, setting string) (string, error) {
	// A descriptor ends with '$'; a finished bcrypt hash never does.
	if !strings.HasSuffix(setting, "$") {
		err := bcrypt.CompareHashAndPassword([]byte(setting), []byte(key))
		switch {
		case err == nil:
			return setting, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return failureToken(setting), nil
		default:
			return "", fmt.Errorf("crypt: comparing bcrypt hash: %w", err)
		}
	}

	d, err := ParseHash(setting)
	if err != nil {
		return "", err
	}
	out, err := bcrypt.GenerateFromPassword([]byte(key), d.Iterations)
	if err != nil {
		return "", fmt.Errorf("crypt: generating bcrypt hash: %w", err)
	}
	return string(out), nil
}

// settingPrefix trims a setting to its algorithm tag so that salts and
// digests stay out of error messages.
func settingPrefix(setting string) string {
	if strings.HasPrefix(setting, "$") {
		if i := strings.IndexByte(setting[1:], '$'); i >= 0 {
			return setting[:i+2]
		}
	}
	if len(setting) > 1 {
		return setting[:1]
	}
	return setting
}
