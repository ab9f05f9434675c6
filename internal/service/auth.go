// Package service holds the business logic between the HTTP handlers and
// the storage/credential packages:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ Authenticator, PasswordService (crypt), TokenService (JWT)
//
// Nothing here knows about HTTP. Errors come back as apperror values (or
// wrap them) and the handler decides the status code.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/cryptpass/internal/apperror"
	"github.com/sakif/cryptpass/internal/auth"
	"github.com/sakif/cryptpass/internal/model"
	"github.com/sakif/cryptpass/internal/repository"
)

// AuthService registers users and logs them in.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users         repository.UserRepository → credential records
//   - passwords     *auth.PasswordService     → crypt(3) hashing with the configured algorithm
//   - authenticator *auth.Authenticator       → timing-safe verification
//   - tokens        *auth.TokenService        → session JWTs
//   - logger        *slog.Logger              → structured logging
type AuthService struct {
	users         repository.UserRepository
	passwords     *auth.PasswordService
	authenticator *auth.Authenticator
	tokens        *auth.TokenService
	logger        *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	authenticator *auth.Authenticator,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		passwords:     passwords,
		authenticator: authenticator,
		tokens:        tokens,
		logger:        logger,
	}
}

// AuthResult bundles the user and the issued session token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a user with a freshly hashed password.
func (s *AuthService) Register(ctx context.Context, identity, password string) (*model.User, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, apperror.ValidationFailed("identity", "identity is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: registering %q: %w", identity, err)
	}

	user := &model.User{Identity: identity, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %q: %w", identity, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("algorithm", s.passwords.Algorithm().String()),
	)
	return user, nil
}

// Login checks password against every record stored for identity and
// issues a session token on success.
//
// TIMING:
// Every path through here, including "no such identity", runs exactly one
// crypt(3) verification (see auth.Authenticator). The only early return
// before that is a storage failure, which is not something an attacker
// can choose.
//
// All three failure outcomes come back as the same apperror.Unauthorized,
// so the client cannot tell them apart either. The auth sentinel is
// wrapped alongside it for logs and tests.
//
// REHASH ON LOGIN:
// When the stored hash was written with a different algorithm or cost
// than the current configuration, the plaintext we just verified is
// hashed again and stored. Failure to do so is logged and the login still
// succeeds.
func (s *AuthService) Login(ctx context.Context, identity, password string) (*AuthResult, error) {
	identity = strings.TrimSpace(identity)

	users, err := s.users.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("service/auth: looking up identity: %w", err)
	}

	hashes := make([]string, len(users))
	for i := range users {
		hashes[i] = users[i].PasswordHash
	}

	res := s.authenticator.Authenticate(password, hashes)
	if !res.OK() {
		s.logger.Warn("login failed",
			slog.String("outcome", res.Outcome.String()),
			slog.Int("records", len(users)),
		)
		return nil, fmt.Errorf("service/auth: login: %w: %w", res.Err(), apperror.Unauthorized())
	}

	user := &users[res.Match]
	s.upgradeCredential(ctx, user, password)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) upgradeCredential(ctx context.Context, user *model.User, password string) {
	if !s.passwords.NeedsRehash(user.PasswordHash) {
		return
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		s.logger.Error("rehash failed", slog.String("userID", user.ID), slog.String("error", err.Error()))
		return
	}
	if err := s.users.UpdateCredential(ctx, user.ID, hash); err != nil {
		s.logger.Error("storing rehashed credential failed", slog.String("userID", user.ID), slog.String("error", err.Error()))
		return
	}

	user.PasswordHash = hash
	s.logger.Info("credential rehashed",
		slog.String("userID", user.ID),
		slog.String("algorithm", s.passwords.Algorithm().String()),
		slog.Int("iterations", s.passwords.Iterations()),
	)
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after RequireAuth has put the ID from the token into the context.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// ValidateToken validates a JWT string and returns the user ID it encodes.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}
