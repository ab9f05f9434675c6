package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/cryptpass/internal/crypt"
)

const secret = "test-secret-at-least-16-chars!!"

func TestLoadFromBytes_Defaults(t *testing.T) {
	cfg, err := LoadFromBytes("yaml", []byte("auth:\n  jwt_secret: "+secret+"\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/cryptpass.db", cfg.Database.Path)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, crypt.SHA512, cfg.Hash.Algorithm)
	assert.Equal(t, 5000, cfg.Hash.Iterations, "0 iterations resolves to the algorithm default")
	assert.Empty(t, cfg.Hash.Dummy)
	assert.Equal(t, "users", cfg.Store.Table)
	assert.Equal(t, "identity", cfg.Store.IdentityColumn)
	assert.Equal(t, "password_hash", cfg.Store.CredentialColumn)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
}

func TestLoadFromBytes_FullDocument(t *testing.T) {
	doc := `
server:
  port: 9000
  secure_cookies: true
database:
  path: /var/lib/cryptpass/users.db
auth:
  jwt_secret: ` + secret + `
  token_ttl: 1h
hash:
  algorithm: Blowfish
  iterations: 12
  dummy: "$2a$04$cryptpassProbeSaltValuZK5DnjRd0KGdw/4.z2JopOyCWQySZZu"
store:
  table: accounts
  identity_column: email
  credential_column: crypt_hash
log:
  level: debug
  format: json
`
	cfg, err := LoadFromBytes("yaml", []byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Server.SecureCookies)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, crypt.Blowfish, cfg.Hash.Algorithm)
	assert.Equal(t, 12, cfg.Hash.Iterations)
	assert.Equal(t, "accounts", cfg.Store.Table)
	assert.Equal(t, "email", cfg.Store.IdentityColumn)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cryptpass.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hash:\n  algorithm: sha256\n  iterations: 2000\n"), 0o600))

	t.Setenv("CRYPTPASS_AUTH_JWT_SECRET", secret)
	t.Setenv("CRYPTPASS_HASH_ITERATIONS", "7000")
	t.Setenv("CRYPTPASS_STORE_CREDENTIAL_COLUMN", "pw")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, crypt.SHA256, cfg.Hash.Algorithm)
	assert.Equal(t, 7000, cfg.Hash.Iterations)
	assert.Equal(t, "pw", cfg.Store.CredentialColumn)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoFileUsesEnvironment(t *testing.T) {
	t.Setenv("CRYPTPASS_AUTH_JWT_SECRET", secret)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, crypt.SHA512, cfg.Hash.Algorithm)
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"missing secret", "server:\n  port: 8080\n"},
		{"bogus algorithm", "auth:\n  jwt_secret: " + secret + "\nhash:\n  algorithm: bogus\n"},
		{"rounds below minimum", "auth:\n  jwt_secret: " + secret + "\nhash:\n  iterations: 10\n"},
		{"bad port", "auth:\n  jwt_secret: " + secret + "\nserver:\n  port: 70000\n"},
		{"unsafe column", "auth:\n  jwt_secret: " + secret + "\nstore:\n  identity_column: \"name; --\"\n"},
		{"unparseable dummy", "auth:\n  jwt_secret: " + secret + "\nhash:\n  dummy: not-a-hash\n"},
		{"bad log level", "auth:\n  jwt_secret: " + secret + "\nlog:\n  level: loud\n"},
		{"bad log format", "auth:\n  jwt_secret: " + secret + "\nlog:\n  format: xml\n"},
		{"bad ttl", "auth:\n  jwt_secret: " + secret + "\n  token_ttl: forever\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromBytes("yaml", []byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromBytes_RequiresType(t *testing.T) {
	_, err := LoadFromBytes(" ", []byte("{}"))
	assert.Error(t, err)
}
