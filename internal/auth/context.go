package auth

import (
	"context"

	"github.com/isdelr/contacts-api/internal/models"
)

type contextKey string

const (
	accountKey = contextKey("account")
	tokenKey   = contextKey("token")
)

// WithSession returns a copy of ctx carrying the resolved account and the
// token it authenticated with.
func WithSession(ctx context.Context, account models.Account, token string) context.Context {
	ctx = context.WithValue(ctx, accountKey, account)
	return context.WithValue(ctx, tokenKey, token)
}

// AccountFromContext returns the account attached by the middleware.
func AccountFromContext(ctx context.Context) (models.Account, bool) {
	account, ok := ctx.Value(accountKey).(models.Account)
	return account, ok
}

// TokenFromContext returns the bearer token attached by the middleware.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}
