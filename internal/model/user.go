// Package model defines the data structures used throughout the application.
package model

import "time"

// User is one credential record.
//
// Identity is whatever the deployment logs in with (a username, an email
// address). PasswordHash is a crypt(3) string such as
// "$6$rounds=5000$salt$digest"; it carries its own algorithm, cost and
// salt, so no other column is needed to verify it.
//
// WHY json:"-" ON PasswordHash?
// The struct is returned as-is from /auth/login and /api/me. Hiding the
// hash at the type level means no handler can leak it by accident.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Identity     string    `json:"identity"  db:"identity"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
