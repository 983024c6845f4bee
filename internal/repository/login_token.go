package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lumenauth/lumen/internal/model"
)

var ErrTokenNotFound = errors.New("token not found")

// LoginTokenRepository is the source of truth for the token lifecycle.
// All status transitions happen here; Consume is the only path from issued
// to used and is safe under concurrent redemption.
type LoginTokenRepository interface {
	Create(token *model.LoginToken) error
	ByToken(token string) (*model.LoginToken, error)
	PendingByAccount(accountID string) (*model.LoginToken, error)
	Extend(id string, validUntil time.Time, redirectTarget string) error
	Consume(token, redeemerIP string) (*model.LoginToken, error)
	Revert(id string) error
	MarkExpired(id string) error
	MarkAlreadyAuthenticated(accountID, token, redeemerIP string) error
	CountByRequesterIPSince(ip string, since time.Time) (int, error)
}

type loginTokenRepository struct {
	db *sqlx.DB
}

func NewLoginTokenRepository(db *sqlx.DB) LoginTokenRepository {
	return &loginTokenRepository{db: db}
}

func (r *loginTokenRepository) Create(token *model.LoginToken) error {
	now := time.Now()
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.Status == "" {
		token.Status = model.TokenStatusIssued
	}
	if token.IssuedAt.IsZero() {
		token.IssuedAt = now
	}
	if token.UpdatedAt.IsZero() {
		token.UpdatedAt = now
	}

	query := `
		INSERT INTO login_tokens (id, token, account_id, status, requester_ip, redeemer_ip, redirect_target, valid_until, issued_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(query,
		token.ID,
		token.Token,
		token.AccountID,
		token.Status,
		token.RequesterIP,
		token.RedeemerIP,
		token.RedirectTarget,
		token.ValidUntil,
		token.IssuedAt,
		token.UpdatedAt,
	)
	return err
}

func (r *loginTokenRepository) ByToken(token string) (*model.LoginToken, error) {
	t := &model.LoginToken{}
	query := `SELECT * FROM login_tokens WHERE token = $1`

	err := r.db.Get(t, query, token)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}

	return t, err
}

// PendingByAccount returns the account's still-valid issued token, if any.
// A repeat request must reuse this row rather than mint a second link.
func (r *loginTokenRepository) PendingByAccount(accountID string) (*model.LoginToken, error) {
	t := &model.LoginToken{}
	query := `
		SELECT * FROM login_tokens
		WHERE account_id = $1 AND status = $2 AND valid_until > $3
		ORDER BY issued_at DESC
		LIMIT 1
	`

	err := r.db.Get(t, query, accountID, model.TokenStatusIssued, time.Now())
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}

	return t, err
}

func (r *loginTokenRepository) Extend(id string, validUntil time.Time, redirectTarget string) error {
	query := `
		UPDATE login_tokens
		SET valid_until = $1, redirect_target = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.db.Exec(query, validUntil, redirectTarget, time.Now(), id, model.TokenStatusIssued)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTokenNotFound
	}

	return nil
}

// Consume atomically transitions a token from issued to used and returns it.
// The conditional update guarantees exactly one concurrent caller succeeds;
// every other caller gets ErrTokenNotFound.
func (r *loginTokenRepository) Consume(token, redeemerIP string) (*model.LoginToken, error) {
	t := &model.LoginToken{}
	now := time.Now()

	query := `
		UPDATE login_tokens
		SET status = $1, redeemer_ip = $2, updated_at = $3
		WHERE token = $4 AND status = $5 AND valid_until > $6
		RETURNING *
	`

	err := r.db.Get(t, query, model.TokenStatusUsed, redeemerIP, now, token, model.TokenStatusIssued, now)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Revert undoes a consumption whose session binding failed, putting the
// token back in play until it expires.
func (r *loginTokenRepository) Revert(id string) error {
	query := `
		UPDATE login_tokens
		SET status = $1, redeemer_ip = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.Exec(query, model.TokenStatusIssued, time.Now(), id, model.TokenStatusUsed)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTokenNotFound
	}

	return nil
}

func (r *loginTokenRepository) MarkExpired(id string) error {
	query := `
		UPDATE login_tokens
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	_, err := r.db.Exec(query, model.TokenStatusExpired, time.Now(), id, model.TokenStatusIssued)
	return err
}

// MarkAlreadyAuthenticated retires a token presented by a caller who is
// already signed in to the owning account. No-op if the token was never
// issued to that account or already reached a terminal state.
func (r *loginTokenRepository) MarkAlreadyAuthenticated(accountID, token, redeemerIP string) error {
	query := `
		UPDATE login_tokens
		SET status = $1, redeemer_ip = $2, updated_at = $3
		WHERE account_id = $4 AND token = $5 AND status = $6
	`

	_, err := r.db.Exec(query, model.TokenStatusAlreadyAuthenticated, redeemerIP, time.Now(), accountID, token, model.TokenStatusIssued)
	return err
}

// CountByRequesterIPSince counts issuance rows attributed to an IP within
// the rolling rate-limit window.
func (r *loginTokenRepository) CountByRequesterIPSince(ip string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM login_tokens WHERE requester_ip = $1 AND issued_at > $2`

	err := r.db.Get(&count, query, ip, since)
	if err != nil {
		return 0, err
	}

	return count, nil
}
