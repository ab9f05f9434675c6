// Package repository declares the storage contracts the service layer
// depends on. Implementations live in subpackages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/cryptpass/internal/model"
)

// UserRepository stores credential records.
type UserRepository interface {
	// Create inserts user, filling in ID and timestamps. A duplicate
	// identity is an apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error

	// FindByIdentity returns every record stored under identity, oldest
	// first. An unknown identity is an empty slice, not an error: the
	// caller must still spend a verification on it.
	FindByIdentity(ctx context.Context, identity string) ([]model.User, error)

	// GetUserByID returns apperror.ErrNotFound for unknown IDs.
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// UpdateCredential replaces the stored hash, e.g. after an algorithm
	// upgrade on login.
	UpdateCredential(ctx context.Context, id, passwordHash string) error
}
