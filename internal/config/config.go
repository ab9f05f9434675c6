// Package config loads server settings from an optional YAML (or JSON/TOML)
// file plus CRYPTPASS_* environment variables, with environment winning.
//
//	server.port              CRYPTPASS_SERVER_PORT
//	hash.algorithm           CRYPTPASS_HASH_ALGORITHM
//	store.identity_column    CRYPTPASS_STORE_IDENTITY_COLUMN
//
// Everything is validated in Load. A server that starts has a usable
// configuration; a bad one fails before the listener opens.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sakif/cryptpass/internal/crypt"
	sqliteRepo "github.com/sakif/cryptpass/internal/repository/sqlite"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "CRYPTPASS"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Hash     HashConfig
	Store    sqliteRepo.Schema
	Log      LogConfig
}

type ServerConfig struct {
	Port          int
	SecureCookies bool
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// HashConfig selects how new passwords are hashed. Iterations of 0 means
// the algorithm's crypt(3) default. Dummy is the hash verified when a login
// names an unknown identity; when empty the server mints one at start-up.
type HashConfig struct {
	Algorithm  crypt.Algorithm
	Iterations int
	Dummy      string
}

type LogConfig struct {
	Level  slog.Level
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("database.path", "data/cryptpass.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "15m")
	v.SetDefault("hash.algorithm", string(crypt.SHA512))
	v.SetDefault("hash.iterations", 0)
	v.SetDefault("hash.dummy", "")
	v.SetDefault("store.table", sqliteRepo.DefaultSchema.Table)
	v.SetDefault("store.identity_column", sqliteRepo.DefaultSchema.IdentityColumn)
	v.SetDefault("store.credential_column", sqliteRepo.DefaultSchema.CredentialColumn)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the file at path (if path is non-empty) and the environment.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}
	return fromViper(v)
}

// LoadFromBytes is Load for an in-memory document. configType is any
// format viper understands ("yaml", "json", "toml").
func LoadFromBytes(configType string, data []byte) (*Config, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config: config type is required")
	}
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", configType, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	alg, err := crypt.ParseAlgorithm(v.GetString("hash.algorithm"))
	if err != nil {
		return nil, fmt.Errorf("config: hash.algorithm: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("config: log.level: %w", err)
	}

	ttl, err := time.ParseDuration(v.GetString("auth.token_ttl"))
	if err != nil {
		return nil, fmt.Errorf("config: auth.token_ttl: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          v.GetInt("server.port"),
			SecureCookies: v.GetBool("server.secure_cookies"),
		},
		Database: DatabaseConfig{Path: v.GetString("database.path")},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  ttl,
		},
		Hash: HashConfig{
			Algorithm:  alg,
			Iterations: v.GetInt("hash.iterations"),
			Dummy:      strings.TrimSpace(v.GetString("hash.dummy")),
		},
		Store: sqliteRepo.Schema{
			Table:            v.GetString("store.table"),
			IdentityColumn:   v.GetString("store.identity_column"),
			CredentialColumn: v.GetString("store.credential_column"),
		},
		Log: LogConfig{
			Level:  level,
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}
	if cfg.Hash.Iterations == 0 {
		cfg.Hash.Iterations = crypt.DefaultIterations(alg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that do not depend on the host. Whether
// the algorithm is actually available is checked when the catalog is
// built.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least 16 characters (set %s_AUTH_JWT_SECRET)", EnvPrefix))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	if err := crypt.ValidateIterations(c.Hash.Algorithm, c.Hash.Iterations); err != nil {
		errs = append(errs, fmt.Errorf("hash.iterations: %w", err))
	}
	if c.Hash.Dummy != "" {
		if _, err := crypt.ParseHash(c.Hash.Dummy); err != nil {
			errs = append(errs, fmt.Errorf("hash.dummy: %w", err))
		}
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
