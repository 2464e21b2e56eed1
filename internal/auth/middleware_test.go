package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/contacts-api/internal/common"
	"github.com/isdelr/contacts-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	accounts  map[string]models.Account
	active    map[string]bool
	lookupErr error
}

func (f *fakeResolver) GetAccountByID(_ context.Context, id string) (models.Account, error) {
	if f.lookupErr != nil {
		return models.Account{}, f.lookupErr
	}
	a, ok := f.accounts[id]
	if !ok {
		return models.Account{}, common.ErrNotFound
	}
	return a, nil
}

func (f *fakeResolver) IsTokenActive(_ context.Context, _ string, token string) (bool, error) {
	return f.active[token], nil
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer", ""},
		{"Bearer ", ""},
		{"Basic abc", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer abc def", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(r), tt.header)
	}
}

func TestJWTMiddleware(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	issuer := newIssuer(t, "k", clock)

	alice := models.Account{ID: "acc-1", Username: "alice", Email: "alice@x.com"}
	activeTok, _, err := issuer.Issue(alice.ID, alice.Username)
	require.NoError(t, err)
	revokedTok, _, err := issuer.Issue(alice.ID, alice.Username)
	require.NoError(t, err)
	orphanTok, _, err := issuer.Issue("gone", "bob")
	require.NoError(t, err)
	foreignTok, _, err := newIssuer(t, "other", clock).Issue(alice.ID, alice.Username)
	require.NoError(t, err)

	resolver := &fakeResolver{
		accounts: map[string]models.Account{alice.ID: alice},
		active:   map[string]bool{activeTok: true},
	}

	var gotAccount models.Account
	var gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccount, _ = AccountFromContext(r.Context())
		gotToken, _ = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := JWTMiddleware(issuer, resolver)(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token " + activeTok, http.StatusUnauthorized},
		{"bad signature", "Bearer " + foreignTok, http.StatusUnauthorized},
		{"unknown account", "Bearer " + orphanTok, http.StatusUnauthorized},
		{"revoked token", "Bearer " + revokedTok, http.StatusUnauthorized},
		{"active token", "Bearer " + activeTok, http.StatusOK},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/current", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, tt.want, w.Code, tt.name)
	}

	assert.Equal(t, alice.ID, gotAccount.ID)
	assert.Equal(t, activeTok, gotToken)
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	issuer := newIssuer(t, "k", clock)
	tok, _, err := issuer.Issue("acc-1", "alice")
	require.NoError(t, err)

	resolver := &fakeResolver{
		accounts: map[string]models.Account{"acc-1": {ID: "acc-1"}},
		active:   map[string]bool{tok: true},
	}
	h := JWTMiddleware(issuer, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	clock.t = clock.t.Add(2 * time.Hour)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMiddleware_StoreFailure(t *testing.T) {
	t.Parallel()

	issuer := newIssuer(t, "k", &fakeClock{t: time.Now()})
	tok, _, err := issuer.Issue("acc-1", "alice")
	require.NoError(t, err)

	h := JWTMiddleware(issuer, &fakeResolver{lookupErr: errors.New("disk on fire")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}
