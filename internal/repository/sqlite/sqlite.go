// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses cgo, which means a C compiler at build time and
// painful cross-compilation. modernc.org/sqlite is a pure Go translation of
// SQLite: no C toolchain, works everywhere Go works. (The libcrypt build of
// the crypt package already needs cgo; the store shouldn't add to that.)
//
// CONFIGURABLE SCHEMA:
// Credentials often live in a table some other system owns. Schema names
// the table and the two columns we care about; id and the timestamps are
// always ours. Names are checked against a strict identifier pattern before
// they are spliced into SQL, because placeholders only work for values.
package sqlite

import (
	"database/sql"
	"fmt"
	"regexp"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// Schema names the credential table and its columns.
type Schema struct {
	Table            string
	IdentityColumn   string
	CredentialColumn string
}

// DefaultSchema is used when nothing is configured.
var DefaultSchema = Schema{
	Table:            "users",
	IdentityColumn:   "identity",
	CredentialColumn: "password_hash",
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Validate rejects names that are not plain SQL identifiers, and column
// names that collide with the columns the store manages itself.
func (s Schema) Validate() error {
	names := []struct{ field, value string }{
		{"table", s.Table},
		{"identity column", s.IdentityColumn},
		{"credential column", s.CredentialColumn},
	}
	for _, n := range names {
		if !identifier.MatchString(n.value) {
			return fmt.Errorf("sqlite: %s %q is not a valid identifier", n.field, n.value)
		}
	}
	if s.IdentityColumn == s.CredentialColumn {
		return fmt.Errorf("sqlite: identity and credential column are both %q", s.IdentityColumn)
	}
	for _, c := range []string{s.IdentityColumn, s.CredentialColumn} {
		switch c {
		case "id", "created_at", "updated_at":
			return fmt.Errorf("sqlite: column %q is reserved", c)
		}
	}
	return nil
}

// DB wraps a sql.DB connection pool and implements
// repository.UserRepository.
type DB struct {
	conn   *sql.DB
	schema Schema
}

// New opens dbPath, applies pragmas and creates the credential table if it
// is missing.
//
// dbPath examples:
//   - "data/cryptpass.db" → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests; lost on close)
func New(dbPath string, schema Schema) (*DB, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is its own empty database, so the
	// pool must never grow past one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a login rehash is writing.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn, schema: schema}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Schema returns the table and column names in use.
func (db *DB) Schema() Schema {
	return db.schema
}

// migrate creates the credential table when it does not exist yet.
//
// The unique index on the identity column only exists on tables we
// created. Pre-existing tables are used as they are, which is why
// FindByIdentity can return more than one row.
func (db *DB) migrate() error {
	s := db.schema

	var existing int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, s.Table,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("looking up table %s: %w", s.Table, err)
	}
	if existing > 0 {
		return db.checkColumns()
	}

	_, err = db.conn.Exec(fmt.Sprintf(`
		CREATE TABLE %[1]s (
			id         TEXT PRIMARY KEY,
			%[2]s      TEXT NOT NULL,
			%[3]s      TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX idx_%[1]s_%[2]s ON %[1]s(%[2]s);
	`, s.Table, s.IdentityColumn, s.CredentialColumn))
	if err != nil {
		return fmt.Errorf("creating %s table: %w", s.Table, err)
	}
	return nil
}

// checkColumns makes sure a pre-existing table has every column we query,
// so a typo in the configuration fails at start-up rather than on the
// first login.
func (db *DB) checkColumns() error {
	s := db.schema
	for _, col := range []string{"id", s.IdentityColumn, s.CredentialColumn, "created_at", "updated_at"} {
		var count int
		err := db.conn.QueryRow(
			`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, s.Table, col,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("checking column %s.%s: %w", s.Table, col, err)
		}
		if count == 0 {
			return fmt.Errorf("table %s has no column %s", s.Table, col)
		}
	}
	return nil
}
