package auth

import (
	"strings"
	"testing"

	"github.com/isdelr/contacts-api/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid password", password: "pw123", wantErr: false},
		{name: "empty password", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEmptyPassword)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.False(t, strings.Contains(hash, tt.password))

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, PasswordCost, cost)
		})
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	t.Parallel()

	_, err := HashPassword(strings.Repeat("p", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, common.ErrValidation)

	// Multi-byte runes count by bytes, not characters.
	_, err = HashPassword(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, common.ErrValidation)

	hash, err := HashPassword(strings.Repeat("p", MaxPasswordBytes))
	require.NoError(t, err)
	assert.True(t, CheckPassword(strings.Repeat("p", MaxPasswordBytes), hash))
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, CheckPassword("same", a))
	assert.True(t, CheckPassword("same", b))
}

func TestCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPassword("correct horse", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("", hash))
	assert.False(t, CheckPassword("correct horse", "not-a-bcrypt-hash"))
	assert.False(t, CheckPassword("correct horse", ""))
}
