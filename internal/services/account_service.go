package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/contacts-api/internal/auth"
	"github.com/isdelr/contacts-api/internal/avatar"
	"github.com/isdelr/contacts-api/internal/common"
	"github.com/isdelr/contacts-api/internal/database"
	"github.com/isdelr/contacts-api/internal/mailer"
	"github.com/isdelr/contacts-api/internal/models"
	"github.com/rs/zerolog/log"
)

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (RegisterResult, error)
	Login(ctx context.Context, in LoginInput) (LoginResult, error)
	Logout(ctx context.Context, accountID, token string) error
	LogoutAll(ctx context.Context, accountID string) error
	ConfirmVerification(ctx context.Context, code string) (models.Account, error)
	ResendVerification(ctx context.Context, in EmailInput) (bool, error)

	GetAccountByID(ctx context.Context, id string) (models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
	UpdateSubscription(ctx context.Context, id string, in SubscriptionInput) (models.Account, error)
	UpdateAvatarURL(ctx context.Context, id, avatarURL string) (models.Account, error)

	AddToken(ctx context.Context, accountID, token string, expiresAt time.Time) error
	RemoveToken(ctx context.Context, accountID, token string) error
	RevokeAllTokens(ctx context.Context, accountID string) (int64, error)
	IsTokenActive(ctx context.Context, accountID, token string) (bool, error)
	ActiveTokens(ctx context.Context, accountID string) ([]models.SessionToken, error)
	PruneExpiredTokens(ctx context.Context) (int64, error)
}

// AccountServiceConfig is the explicit configuration of an AccountService.
type AccountServiceConfig struct {
	// BaseURL prefixes verification links.
	BaseURL string
	// MaxActiveTokens bounds each account's session ledger.
	MaxActiveTokens int
	// MailTimeout bounds a single verification email delivery.
	MailTimeout time.Duration
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// RegisterResult is returned by Register.
type RegisterResult struct {
	Account   models.Account
	EmailSent bool
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   models.Account
}

// AccountService provides business logic for registration, verification and
// session handling.
type AccountService struct {
	db              *sql.DB
	issuer          *auth.TokenIssuer
	sender          mailer.Sender
	events          EventServiceProvider
	baseURL         string
	maxActiveTokens int
	mailTimeout     time.Duration
	now             func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAccountService creates a new AccountService.
func NewAccountService(db *sql.DB, issuer *auth.TokenIssuer, sender mailer.Sender, events EventServiceProvider, cfg AccountServiceConfig) *AccountService {
	s := &AccountService{
		db:              db,
		issuer:          issuer,
		sender:          sender,
		events:          events,
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		maxActiveTokens: cfg.MaxActiveTokens,
		mailTimeout:     cfg.MailTimeout,
		now:             cfg.Now,
	}
	if s.maxActiveTokens < 1 {
		s.maxActiveTokens = 10
	}
	if s.mailTimeout <= 0 {
		s.mailTimeout = 10 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

const accountColumns = "id, username, email, password_hash, avatar_url, subscription, verified, verification_code, created_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (models.Account, error) {
	var a models.Account
	var code sql.NullString
	var createdAt int64
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.AvatarURL, &a.Subscription, &a.Verified, &code, &createdAt)
	if err != nil {
		return models.Account{}, err
	}
	if code.Valid {
		a.VerificationCode = &code.String
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	return a, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func (s *AccountService) getAccount(ctx context.Context, where string, arg interface{}) (models.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE "+where, arg)
	account, err := scanAccount(row)
	if err != nil {
		if isNoRows(err) {
			return models.Account{}, common.ErrNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}

// GetAccountByID retrieves a single account by its ID.
func (s *AccountService) GetAccountByID(ctx context.Context, id string) (models.Account, error) {
	return s.getAccount(ctx, "id = ?", id)
}

// GetAccountByEmail retrieves a single account by its email, including the password hash.
func (s *AccountService) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	return s.getAccount(ctx, "email = ?", normalizeEmail(email))
}

func newVerificationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Register creates a pending account and sends its verification email.
// A failed delivery is logged and reported through EmailSent; the account
// is kept either way.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return RegisterResult{}, err
	}

	if _, err := s.GetAccountByEmail(ctx, in.Email); err == nil {
		return RegisterResult{}, fmt.Errorf("email in use: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return RegisterResult{}, err
	}
	if _, err := s.getAccount(ctx, "username = ?", in.Username); err == nil {
		return RegisterResult{}, fmt.Errorf("username in use: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return RegisterResult{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	code := newVerificationCode()
	account := models.Account{
		ID:               uuid.New().String(),
		Username:         in.Username,
		Email:            in.Email,
		PasswordHash:     hash,
		AvatarURL:        avatar.GravatarURL(in.Email),
		Subscription:     models.SubscriptionStarter,
		Verified:         false,
		VerificationCode: &code,
		CreatedAt:        time.Unix(s.now().Unix(), 0),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, avatar_url, subscription, verified, verification_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.Username, account.Email, account.PasswordHash, account.AvatarURL,
		string(account.Subscription), account.Verified, code, account.CreatedAt.Unix())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return RegisterResult{}, fmt.Errorf("account exists: %w", common.ErrConflict)
		}
		return RegisterResult{}, err
	}

	s.recordEvent(ctx, account.ID, EventAccountRegister, "Account registered")
	sent := s.sendVerification(ctx, account.Email, code)
	return RegisterResult{Account: account, EmailSent: sent}, nil
}

// Login checks credentials, issues a session token and records it in the
// ledger. Unknown emails and wrong passwords fail identically.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return LoginResult{}, err
	}

	account, err := s.GetAccountByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Spend the same hashing time as a real check.
			auth.CheckPassword(in.Password, s.dummyPasswordHash())
			return LoginResult{}, fmt.Errorf("authentication failed: %w", common.ErrUnauthorized)
		}
		return LoginResult{}, err
	}

	if !auth.CheckPassword(in.Password, account.PasswordHash) {
		return LoginResult{}, fmt.Errorf("authentication failed: %w", common.ErrUnauthorized)
	}
	if !account.Verified {
		return LoginResult{}, fmt.Errorf("email not verified: %w", common.ErrForbidden)
	}

	token, expiresAt, err := s.issuer.Issue(account.ID, account.Username)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.AddToken(ctx, account.ID, token, expiresAt); err != nil {
		return LoginResult{}, err
	}

	s.recordEvent(ctx, account.ID, EventSessionLogin, "Logged in")
	return LoginResult{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

func (s *AccountService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword(uuid.NewString())
	})
	return s.dummyHash
}

// Logout removes the presented token from the account's ledger. It is safe
// to call with a token that was already removed.
func (s *AccountService) Logout(ctx context.Context, accountID, token string) error {
	if accountID == "" || token == "" {
		return common.ErrUnauthorized
	}
	if err := s.RemoveToken(ctx, accountID, token); err != nil {
		return err
	}
	s.recordEvent(ctx, accountID, EventSessionLogout, "Logged out")
	return nil
}

// LogoutAll ends every session of the account.
func (s *AccountService) LogoutAll(ctx context.Context, accountID string) error {
	if accountID == "" {
		return common.ErrUnauthorized
	}
	n, err := s.RevokeAllTokens(ctx, accountID)
	if err != nil {
		return err
	}
	s.recordEvent(ctx, accountID, EventSessionLogoutAll, fmt.Sprintf("Ended %d sessions", n))
	return nil
}

// ConfirmVerification moves the account holding code from pending to
// verified. Presenting a code a second time fails with ErrAlreadyVerified.
func (s *AccountService) ConfirmVerification(ctx context.Context, code string) (models.Account, error) {
	if code == "" {
		return models.Account{}, common.ErrNotFound
	}

	account, err := s.getAccount(ctx, "verification_code = ?", code)
	if errors.Is(err, common.ErrNotFound) {
		if _, consumedErr := s.getAccount(ctx, "consumed_code = ?", code); consumedErr == nil {
			return models.Account{}, common.ErrAlreadyVerified
		}
		return models.Account{}, common.ErrNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	if account.Verified {
		return models.Account{}, common.ErrAlreadyVerified
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET verified = 1, verification_code = NULL, consumed_code = ? WHERE id = ? AND verified = 0",
		code, account.ID)
	if err != nil {
		return models.Account{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Account{}, err
	} else if n == 0 {
		return models.Account{}, common.ErrAlreadyVerified
	}

	account.Verified = true
	account.VerificationCode = nil
	s.recordEvent(ctx, account.ID, EventAccountVerify, "Email verified")
	return account, nil
}

// ResendVerification issues a fresh code for a pending account and sends it.
// The returned bool reports whether the email was delivered.
func (s *AccountService) ResendVerification(ctx context.Context, in EmailInput) (bool, error) {
	in.Email = normalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return false, err
	}

	account, err := s.GetAccountByEmail(ctx, in.Email)
	if err != nil {
		return false, err
	}
	if account.Verified {
		return false, common.ErrAlreadyVerified
	}

	code := newVerificationCode()
	res, err := s.db.ExecContext(ctx,
		"UPDATE accounts SET verification_code = ? WHERE id = ? AND verified = 0", code, account.ID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n == 0 {
		return false, common.ErrAlreadyVerified
	}

	return s.sendVerification(ctx, account.Email, code), nil
}

// UpdateSubscription changes the account's tier.
func (s *AccountService) UpdateSubscription(ctx context.Context, id string, in SubscriptionInput) (models.Account, error) {
	if err := in.Validate(); err != nil {
		return models.Account{}, err
	}
	if err := s.updateField(ctx, id, "subscription", string(in.Subscription)); err != nil {
		return models.Account{}, err
	}
	s.recordEvent(ctx, id, EventAccountSubscription, "Subscription changed to "+string(in.Subscription))
	return s.GetAccountByID(ctx, id)
}

// UpdateAvatarURL points the account at a newly stored avatar.
func (s *AccountService) UpdateAvatarURL(ctx context.Context, id, avatarURL string) (models.Account, error) {
	if err := s.updateField(ctx, id, "avatar_url", avatarURL); err != nil {
		return models.Account{}, err
	}
	s.recordEvent(ctx, id, EventAccountAvatar, "Avatar updated")
	return s.GetAccountByID(ctx, id)
}

// updateField sets a single column. column is always a constant from this file.
func (s *AccountService) updateField(ctx context.Context, id, column string, value interface{}) error {
	res, err := s.db.ExecContext(ctx, "UPDATE accounts SET "+column+" = ? WHERE id = ?", value, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *AccountService) sendVerification(ctx context.Context, email, code string) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mailTimeout)
	defer cancel()

	if err := s.sender.Send(ctx, mailer.VerificationMessage(s.baseURL, email, code)); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Failed to send verification email")
		return false
	}
	return true
}

func (s *AccountService) recordEvent(ctx context.Context, accountID, eventType, message string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, accountID, eventType, message); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Str("type", eventType).Msg("Failed to record event")
	}
}
