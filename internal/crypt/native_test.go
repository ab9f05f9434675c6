package crypt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known answers produced by glibc crypt(3).
func TestNative_KnownAnswers(t *testing.T) {
	tests := []struct {
		key     string
		setting string
		want    string
	}{
		{
			key:     "Hello world!",
			setting: "$5$saltstring",
			want:    "$5$saltstring$5B8vYYiY.CVt1RlTTf8KbXBH3hsxY/GNooZaBBGWEc5",
		},
		{
			key:     "secret",
			setting: "$5$rounds=1000$saltstring$",
			want:    "$5$rounds=1000$saltstring$AH5PD0i.riCRu4BNDy9v7OPV7u3dfLBApcXI6khquVA",
		},
		{
			key:     "secret",
			setting: "$6$saltstring$",
			want:    "$6$saltstring$AIsRs/Ee56G/tC8MEHhvReZTfx8u3rXXMl6eYrjCG9ibix19DxoMBLogdTET5Ukw9Sf7eZTITsuk0Ry5qulYz.",
		},
		{
			key:     "secret",
			setting: "$1$saltsalt$",
			want:    "$1$saltsalt$9xy1btjgzLYfb7hivXtC//",
		},
		{
			key:     "secret",
			setting: "$6$rounds=5000$abcdefgh$",
			want:    "$6$rounds=5000$abcdefgh$ltjgWl6579NluT/Vi1nwEvcil.G5Nbc4NiXZaNGStk8PSwGfQv72N2CKPPrVACtLtip/cZ/1GM/O6IND4WQhG.",
		},
		{
			key:     "secret",
			setting: "$5$rounds=1000$short$",
			want:    "$5$rounds=1000$short$5tqpBKuMXiyOh7zjcqfE5xf4ihzI5OkLurBxtQ/FlU0",
		},
		{
			key:     "secret",
			setting: "$5$saltstring",
			want:    "$5$saltstring$C3o4O1TC6aRHF4FI.QSZMXtHbaj2gSXr4sUc/3NcUi.",
		},
	}

	n := NewNative()
	for _, tc := range tests {
		t.Run(tc.setting, func(t *testing.T) {
			got, err := n.Crypt(tc.key, tc.setting)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			// Feeding the hash back reproduces it.
			again, err := n.Crypt(tc.key, got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestNative_ShortSaltRoundTrip(t *testing.T) {
	catalog := NewCatalog(NewNative())

	for _, alg := range []Algorithm{MD5, SHA256, SHA512} {
		for _, salt := range []string{"a", "abcd", "abcdefgh"} {
			t.Run(alg.String()+"/"+salt, func(t *testing.T) {
				h := NewHasher(catalog, nil)
				require.NoError(t, h.SetAlgorithm(alg))
				h.SetIterations(DefaultIterations(alg)).SetSalt(salt)

				hash, err := h.HashKey("secret")
				require.NoError(t, err)

				setting, err := h.Descriptor()
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(hash, setting), "%q does not start with %q", hash, setting)
				assert.NotContains(t, hash, "$$")

				assert.True(t, h.Verify("secret", hash))
				assert.False(t, h.Verify("Secret", hash))
			})
		}
	}
}

func TestNative_VerifiesGlibcShortSalt(t *testing.T) {
	const stored = "$6$rounds=5000$abcdefgh$ltjgWl6579NluT/Vi1nwEvcil.G5Nbc4NiXZaNGStk8PSwGfQv72N2CKPPrVACtLtip/cZ/1GM/O6IND4WQhG."

	assert.True(t, Verify(NewNative(), "secret", stored))
	assert.False(t, Verify(NewNative(), "wrong", stored))
}

func TestLibrarySalt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$6$rounds=5000$abcdefgh$", "$6$rounds=5000$abcdefgh"},
		{"$6$rounds=5000$abcdefgh$ltjgWl65", "$6$rounds=5000$abcdefgh"},
		{"$5$saltstring", "$5$saltstring"},
		{"$5$saltstring$digest", "$5$saltstring"},
		{"$1$saltsalt$", "$1$saltsalt"},
	}
	for _, tc := range tests {
		got, err := librarySalt(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := librarySalt("$6$rounds=many$salt$")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestNative_BlowfishDrawsItsOwnSalt(t *testing.T) {
	h := NewHasher(NewCatalog(NewNative()), nil)
	require.NoError(t, h.SetAlgorithm(Blowfish))
	h.SetIterations(4).SetEntropy([]byte("fixed entropy, fixed salt"))

	first, err := h.HashKey("secret")
	require.NoError(t, err)
	second, err := h.HashKey("secret")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first, "$2a$04$"))
	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("secret", first))
	assert.True(t, h.Verify("secret", second))
}

func TestNative_Blowfish(t *testing.T) {
	n := NewNative()

	hash, err := n.Crypt("secret", "$2a$04$cryptpassProbeSaltValue.$")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"), hash)
	assert.Len(t, hash, 60)

	same, err := n.Crypt("secret", hash)
	require.NoError(t, err)
	assert.Equal(t, hash, same)

	other, err := n.Crypt("not-secret", hash)
	require.NoError(t, err)
	assert.Equal(t, "*0", other)

	// A hash minted by libxcrypt verifies too.
	const glibc = "$2a$04$cryptpassProbeSaltValuZK5DnjRd0KGdw/4.z2JopOyCWQySZZu"
	got, err := n.Crypt("secret", glibc)
	require.NoError(t, err)
	assert.Equal(t, glibc, got)
}

func TestNative_UnsupportedSetting(t *testing.T) {
	n := NewNative()
	for _, setting := range []string{"ab", "_J9..salt", "$9$salt$", ""} {
		_, err := n.Crypt("secret", setting)
		assert.ErrorIs(t, err, ErrUnsupportedSetting, "setting %q", setting)
	}
}

func TestFailureToken(t *testing.T) {
	assert.Equal(t, "*0", failureToken("$6$salt$"))
	assert.Equal(t, "*1", failureToken("*0"))
}
