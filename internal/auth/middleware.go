package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/contacts-api/internal/common"
	"github.com/isdelr/contacts-api/internal/models"
	"github.com/rs/zerolog/log"
)

// SessionResolver resolves the account behind a verified token and checks the
// token against the account's revocation ledger.
type SessionResolver interface {
	GetAccountByID(ctx context.Context, id string) (models.Account, error)
	IsTokenActive(ctx context.Context, accountID, token string) (bool, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return ""
	}
	return token
}

// JWTMiddleware creates a middleware for protecting routes. A request passes
// only when its token has a valid signature, has not expired, belongs to an
// existing account and is still present in that account's ledger.
func JWTMiddleware(verifier TokenVerifier, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := BearerToken(r)
			if tokenStr == "" {
				unauthorized(w, "No token provided or invalid format")
				return
			}

			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				log.Debug().Err(err).Msg("Token verification failed")
				unauthorized(w, "Not authorized")
				return
			}

			ctx := r.Context()
			account, err := resolver.GetAccountByID(ctx, claims.AccountID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					unauthorized(w, "User not found")
					return
				}
				log.Error().Err(err).Str("account_id", claims.AccountID).Msg("Failed to resolve account for token")
				writeStatus(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}

			active, err := resolver.IsTokenActive(ctx, account.ID, tokenStr)
			if err != nil {
				log.Error().Err(err).Str("account_id", account.ID).Msg("Failed to check session ledger")
				writeStatus(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			if !active {
				unauthorized(w, "Session has been revoked")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, account, tokenStr)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeStatus(w, http.StatusUnauthorized, msg)
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "error",
		"code":    code,
		"message": msg,
	})
}
