package auth

import (
	"errors"
	"fmt"

	"github.com/isdelr/contacts-api/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordCost is the bcrypt work factor used for every stored hash.
	PasswordCost = 10
	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// ErrEmptyPassword is returned when hashing an empty plaintext.
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword hashes a plaintext password with a per-call random salt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > MaxPasswordBytes {
		return "", errPasswordTooLong()
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", errPasswordTooLong()
		}
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash. A malformed hash
// never matches.
func CheckPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func errPasswordTooLong() error {
	return common.NewValidationError(fmt.Errorf("password: must be at most %d bytes", MaxPasswordBytes))
}
