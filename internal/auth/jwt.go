package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/contacts-api/internal/common"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = time.Hour

// Claims defines the JWT claims structure.
type Claims struct {
	AccountID string `json:"id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Verify(tokenStr string) (*Claims, error)
}

// TokenIssuer signs and verifies HS256 session tokens with a fixed lifetime.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption customises a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock overrides the time source, used for issuing and for expiry checks.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) { i.now = now }
}

// NewTokenIssuer creates a TokenIssuer. A non-positive ttl falls back to
// DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...IssuerOption) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	i := &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the token lifetime.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a signed token for the account. Each token carries a random
// jti so two tokens issued in the same second differ.
func (i *TokenIssuer) Issue(accountID, username string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := &Claims{
		AccountID: accountID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token string. Every failure wraps
// common.ErrInvalidToken; expiry additionally matches jwt.ErrTokenExpired.
func (i *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.AccountID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}
