package database

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// New creates a new database connection pool.
//
// SQLite allows a single writer, so the pool is capped at one connection.
// This also keeps ":memory:" databases alive for the lifetime of the pool.
func New(dataSourceName string) (*sql.DB, error) {
	dsn := dataSourceName
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
// Timestamps are stored as unix seconds.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		subscription TEXT NOT NULL DEFAULT 'starter',
		verified INTEGER NOT NULL DEFAULT 0,
		verification_code TEXT UNIQUE,
		consumed_code TEXT UNIQUE,
		created_at INTEGER NOT NULL
	);

	-- Session revocation ledger; seq preserves issuance order.
	CREATE TABLE IF NOT EXISTS account_tokens (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		token TEXT NOT NULL UNIQUE,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_account_tokens_account ON account_tokens(account_id, seq);
	CREATE INDEX IF NOT EXISTS idx_account_tokens_expires ON account_tokens(expires_at);

	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT NOT NULL PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		favorite INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contacts_owner ON contacts(owner_id, favorite);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		account_id TEXT REFERENCES accounts(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_account ON events(account_id, created_at);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}
