package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndMigrate_InMemory(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	// idempotent
	require.NoError(t, Migrate(db))

	for _, table := range []string{"accounts", "account_tokens", "contacts", "events"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_ForeignKeysEnforced(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))

	_, err = db.Exec(`INSERT INTO account_tokens (account_id, token, expires_at, created_at) VALUES ('missing', 't', 0, 0)`)
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))

	insert := `INSERT INTO accounts (id, username, email, password_hash, created_at) VALUES (?, ?, ?, 'h', 0)`
	_, err = db.Exec(insert, "a1", "alice", "alice@x.com")
	require.NoError(t, err)

	_, err = db.Exec(insert, "a2", "alice2", "alice@x.com")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(assert.AnError))
}
