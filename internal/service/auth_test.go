package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sakif/cryptpass/internal/apperror"
	"github.com/sakif/cryptpass/internal/auth"
	"github.com/sakif/cryptpass/internal/crypt"
	"github.com/sakif/cryptpass/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. Unlike the
// sqlite store it allows duplicate identities, so ambiguity can be tested.
type fakeUserRepo struct {
	users  []*model.User
	nextID int
	// set to a non-nil error to simulate a database failure
	findErr   error
	createErr error
	updateErr error
	updates   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = fmt.Sprintf("user-fake-id-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users = append(f.users, &copied)
	return nil
}

func (f *fakeUserRepo) FindByIdentity(ctx context.Context, identity string) ([]model.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []model.User
	for _, u := range f.users {
		if u.Identity == identity {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) UpdateCredential(ctx context.Context, id, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, u := range f.users {
		if u.ID == id {
			u.PasswordHash = hash
			f.updates++
			return nil
		}
	}
	return apperror.NotFound("user", id)
}

// seed stores a user with a precomputed hash, bypassing Register.
func (f *fakeUserRepo) seed(identity, hash string) *model.User {
	u := &model.User{Identity: identity, PasswordHash: hash}
	_ = f.Create(context.Background(), u)
	return u
}

type testDeps struct {
	svc       *AuthService
	repo      *fakeUserRepo
	passwords *auth.PasswordService
	verified  *[]string // hashes the authenticator verified against
	dummy     string
}

// newTestAuthService returns an AuthService wired with a fake repository,
// sha256/1000 hashing and a verifier that records every hash it sees.
func newTestAuthService(t *testing.T) testDeps {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	ps := auth.NewPasswordServiceForTest()
	dummy, err := ps.DummyHash()
	if err != nil {
		t.Fatalf("DummyHash: %v", err)
	}

	var verified []string
	inner := ps.Verifier()
	counting := auth.VerifierFunc(func(key, hash string) bool {
		verified = append(verified, hash)
		return inner.Verify(key, hash)
	})
	authn, err := auth.NewAuthenticator(counting, dummy)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	repo := newFakeUserRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return testDeps{
		svc:       NewAuthService(repo, ps, authn, ts, logger),
		repo:      repo,
		passwords: ps,
		verified:  &verified,
		dummy:     dummy,
	}
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_StoresCryptHash(t *testing.T) {
	d := newTestAuthService(t)

	user, err := d.svc.Register(context.Background(), "  alice ", "hunter2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == "" {
		t.Error("Register() returned a user without an ID")
	}
	if user.Identity != "alice" {
		t.Errorf("Identity = %q, want trimmed %q", user.Identity, "alice")
	}
	if d.passwords.Algorithm() != crypt.SHA256 {
		t.Fatalf("test password service uses %s, want sha256", d.passwords.Algorithm())
	}
	if !strings.HasPrefix(user.PasswordHash, "$5$rounds=1000$") {
		t.Errorf("PasswordHash = %q, want a sha256 crypt hash", user.PasswordHash)
	}
	if err := d.passwords.Verify(user.PasswordHash, "hunter2"); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	d := newTestAuthService(t)

	cases := []struct {
		name, identity, password string
	}{
		{"empty identity", "", "pw"},
		{"blank identity", "   ", "pw"},
		{"empty password", "alice", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.svc.Register(context.Background(), tc.identity, tc.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
	if len(d.repo.users) != 0 {
		t.Errorf("repository has %d users after failed registrations", len(d.repo.users))
	}
}

func TestRegister_RepositoryError(t *testing.T) {
	d := newTestAuthService(t)
	d.repo.createErr = apperror.Conflict("user", "alice")

	_, err := d.svc.Register(context.Background(), "alice", "pw")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Register() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	d := newTestAuthService(t)
	registered, err := d.svc.Register(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := d.svc.Login(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != registered.ID {
		t.Errorf("Login() user = %q, want %q", result.User.ID, registered.ID)
	}

	userID, err := d.svc.ValidateToken(result.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != registered.ID {
		t.Errorf("token subject = %q, want %q", userID, registered.ID)
	}
	if len(*d.verified) != 1 {
		t.Errorf("verifications = %d, want 1", len(*d.verified))
	}
}

func TestLogin_FailuresLookIdentical(t *testing.T) {
	cases := []struct {
		name     string
		setup    func(d testDeps)
		identity string
		want     error
	}{
		{
			name:     "unknown identity",
			setup:    func(d testDeps) {},
			identity: "nobody",
			want:     auth.ErrIdentityNotFound,
		},
		{
			name: "wrong password",
			setup: func(d testDeps) {
				_, _ = d.svc.Register(context.Background(), "alice", "hunter2")
			},
			identity: "alice",
			want:     auth.ErrCredentialInvalid,
		},
		{
			name: "ambiguous identity",
			setup: func(d testDeps) {
				h1, _ := d.passwords.Hash("wrong-guess")
				h2, _ := d.passwords.Hash("other")
				d.repo.seed("shared", h1)
				d.repo.seed("shared", h2)
			},
			identity: "shared",
			want:     auth.ErrIdentityAmbiguous,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestAuthService(t)
			tc.setup(d)
			*d.verified = nil

			// The ambiguous case uses the right password for the first
			// record; it must still be refused.
			_, err := d.svc.Login(context.Background(), tc.identity, "wrong-guess")
			if !errors.Is(err, tc.want) {
				t.Fatalf("Login() error = %v, want %v", err, tc.want)
			}
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
			}

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Message != apperror.InvalidCredentials {
				t.Errorf("client message = %v, want %q", appErr, apperror.InvalidCredentials)
			}
			if len(*d.verified) != 1 {
				t.Errorf("verifications = %d, want exactly 1", len(*d.verified))
			}
		})
	}
}

func TestLogin_UnknownIdentityVerifiesDummy(t *testing.T) {
	d := newTestAuthService(t)

	_, _ = d.svc.Login(context.Background(), "nobody", "whatever")

	if len(*d.verified) != 1 || (*d.verified)[0] != d.dummy {
		t.Fatalf("verified %v, want exactly the dummy hash", *d.verified)
	}
}

func TestLogin_RepositoryError(t *testing.T) {
	d := newTestAuthService(t)
	d.repo.findErr = errors.New("disk on fire")

	_, err := d.svc.Login(context.Background(), "alice", "pw")
	if err == nil {
		t.Fatal("Login() should propagate repository errors")
	}
	if errors.Is(err, apperror.ErrUnauthorized) {
		t.Error("a storage failure is not an authentication failure")
	}
}

// =========================================================================
// REHASH TESTS
// =========================================================================

func TestLogin_RehashesLegacyCredential(t *testing.T) {
	d := newTestAuthService(t)

	// md5-crypt hash of "secret" written by glibc.
	legacy := d.repo.seed("legacy", "$1$saltsalt$9xy1btjgzLYfb7hivXtC//")

	result, err := d.svc.Login(context.Background(), "legacy", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if d.repo.updates != 1 {
		t.Fatalf("UpdateCredential calls = %d, want 1", d.repo.updates)
	}

	stored, _ := d.repo.GetUserByID(context.Background(), legacy.ID)
	if !strings.HasPrefix(stored.PasswordHash, "$5$rounds=1000$") {
		t.Errorf("stored hash = %q, want the configured sha256 format", stored.PasswordHash)
	}
	if result.User.PasswordHash != stored.PasswordHash {
		t.Error("returned user should carry the new hash")
	}
	if err := d.passwords.Verify(stored.PasswordHash, "secret"); err != nil {
		t.Errorf("rehashed credential does not verify: %v", err)
	}
}

func TestLogin_CurrentCredentialNotRehashed(t *testing.T) {
	d := newTestAuthService(t)
	_, _ = d.svc.Register(context.Background(), "alice", "hunter2")

	if _, err := d.svc.Login(context.Background(), "alice", "hunter2"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if d.repo.updates != 0 {
		t.Errorf("UpdateCredential calls = %d, want 0", d.repo.updates)
	}
}

func TestLogin_RehashFailureDoesNotBlockLogin(t *testing.T) {
	d := newTestAuthService(t)
	d.repo.seed("legacy", "$1$saltsalt$9xy1btjgzLYfb7hivXtC//")
	d.repo.updateErr = errors.New("read-only database")

	result, err := d.svc.Login(context.Background(), "legacy", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !strings.HasPrefix(result.User.PasswordHash, "$1$") {
		t.Errorf("user hash = %q, should be unchanged after a failed update", result.User.PasswordHash)
	}
}

// =========================================================================
// GetUserByID / ValidateToken TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	d := newTestAuthService(t)
	u := d.repo.seed("alice", "$1$saltsalt$9xy1btjgzLYfb7hivXtC//")

	got, err := d.svc.GetUserByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Identity != "alice" {
		t.Errorf("Identity = %q, want alice", got.Identity)
	}

	if _, err := d.svc.GetUserByID(context.Background(), ""); err == nil {
		t.Error("GetUserByID(\"\") should fail")
	}
	if _, err := d.svc.GetUserByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	d := newTestAuthService(t)

	if _, err := d.svc.ValidateToken("not.a.jwt"); err == nil {
		t.Fatal("ValidateToken() should reject garbage")
	}
}
