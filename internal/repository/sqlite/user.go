package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/cryptpass/internal/apperror"
	"github.com/sakif/cryptpass/internal/model"
	"github.com/sakif/cryptpass/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// selectColumns lists the columns every read scans, in scanUser order.
func (db *DB) selectColumns() string {
	return fmt.Sprintf("id, %s, %s, created_at, updated_at",
		db.schema.IdentityColumn, db.schema.CredentialColumn)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, u *model.User) error {
	return row.Scan(&u.ID, &u.Identity, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
}

// Create inserts a new user. ID (an xid: 20 URL-safe chars, sortable by
// creation time) and timestamps are filled in on the caller's struct.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, %s, %s, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			db.schema.Table, db.schema.IdentityColumn, db.schema.CredentialColumn),
		user.ID,
		user.Identity,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Identity)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Identity, err)
	}
	return nil
}

// FindByIdentity returns all rows stored under identity, oldest first.
// No rows is an empty (nil) slice and a nil error.
func (db *DB) FindByIdentity(ctx context.Context, identity string) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY created_at, id`,
			db.selectColumns(), db.schema.Table, db.schema.IdentityColumn),
		identity,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding identity %q: %w", identity, err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}
	return users, nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	row := db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, db.selectColumns(), db.schema.Table),
		id,
	)
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &u, nil
}

// UpdateCredential replaces the stored hash for id.
func (db *DB) UpdateCredential(ctx context.Context, id, passwordHash string) error {
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = ?, updated_at = ? WHERE id = ?`,
			db.schema.Table, db.schema.CredentialColumn),
		passwordHash,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating credential for %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
