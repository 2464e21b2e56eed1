package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/contacts-api/internal/auth"
	"github.com/isdelr/contacts-api/internal/database"
	"github.com/isdelr/contacts-api/internal/mailer"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail bool
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) Messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

type accountFixture struct {
	db      *sql.DB
	clock   *fakeClock
	sender  *recordingSender
	issuer  *auth.TokenIssuer
	events  *EventService
	service *AccountService
}

func newAccountFixture(t *testing.T, maxTokens int) *accountFixture {
	t.Helper()
	db := newTestDB(t)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	issuer, err := auth.NewTokenIssuer([]byte("test-secret"), time.Hour, auth.WithClock(clock.Now))
	require.NoError(t, err)

	sender := &recordingSender{}
	events := NewEventService(db)
	events.now = clock.Now
	svc := NewAccountService(db, issuer, sender, events, AccountServiceConfig{
		BaseURL:         "http://localhost:8080/",
		MaxActiveTokens: maxTokens,
		Now:             clock.Now,
	})
	return &accountFixture{db: db, clock: clock, sender: sender, issuer: issuer, events: events, service: svc}
}

// registerVerified creates an account and confirms it.
func (f *accountFixture) registerVerified(t *testing.T, username, email, password string) RegisterResult {
	t.Helper()
	res, err := f.service.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	require.NotNil(t, res.Account.VerificationCode)
	_, err = f.service.ConfirmVerification(context.Background(), *res.Account.VerificationCode)
	require.NoError(t, err)
	return res
}
