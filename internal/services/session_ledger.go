package services

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/contacts-api/internal/models"
)

// The session ledger is the per-account list of tokens that are still
// honoured. A token must be both correctly signed and present here.

// AddToken appends a token to the account's ledger and evicts the oldest
// entries beyond the configured maximum, in one transaction.
func (s *AccountService) AddToken(ctx context.Context, accountID, token string, expiresAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO account_tokens (account_id, token, expires_at, created_at) VALUES (?, ?, ?, ?)",
		accountID, token, expiresAt.Unix(), s.now().Unix())
	if err != nil {
		return fmt.Errorf("add token: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM account_tokens
		WHERE account_id = ? AND seq NOT IN (
			SELECT seq FROM account_tokens WHERE account_id = ? ORDER BY seq DESC LIMIT ?
		)`, accountID, accountID, s.maxActiveTokens)
	if err != nil {
		return fmt.Errorf("evict tokens: %w", err)
	}

	return tx.Commit()
}

// RemoveToken deletes an exact token from the account's ledger. Removing an
// absent token is a no-op.
func (s *AccountService) RemoveToken(ctx context.Context, accountID, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM account_tokens WHERE account_id = ? AND token = ?", accountID, token)
	return err
}

// RevokeAllTokens clears the account's ledger and returns how many sessions ended.
func (s *AccountService) RevokeAllTokens(ctx context.Context, accountID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM account_tokens WHERE account_id = ?", accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// IsTokenActive reports whether token is in the account's ledger and has not
// passed its expiry.
func (s *AccountService) IsTokenActive(ctx context.Context, accountID, token string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM account_tokens WHERE account_id = ? AND token = ? AND expires_at > ?",
		accountID, token, s.now().Unix()).Scan(&one)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ActiveTokens lists the account's ledger in issuance order.
func (s *AccountService) ActiveTokens(ctx context.Context, accountID string) ([]models.SessionToken, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT token, account_id, expires_at, created_at FROM account_tokens WHERE account_id = ? ORDER BY seq",
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []models.SessionToken{}
	for rows.Next() {
		var t models.SessionToken
		var expiresAt, createdAt int64
		if err := rows.Scan(&t.Token, &t.AccountID, &expiresAt, &createdAt); err != nil {
			return nil, err
		}
		t.ExpiresAt = time.Unix(expiresAt, 0)
		t.CreatedAt = time.Unix(createdAt, 0)
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// PruneExpiredTokens removes every ledger entry whose expiry has passed.
func (s *AccountService) PruneExpiredTokens(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM account_tokens WHERE expires_at <= ?", s.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
