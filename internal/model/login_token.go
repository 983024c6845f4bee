package model

import (
	"time"
)

// LoginToken is a single-use magic-link credential. The Token value is the
// bearer secret and the lookup key; Status moves from issued to exactly one
// terminal state.
type LoginToken struct {
	ID             string    `db:"id"`
	Token          string    `db:"token"`
	AccountID      string    `db:"account_id"`
	Status         string    `db:"status"`
	RequesterIP    string    `db:"requester_ip"`
	RedeemerIP     *string   `db:"redeemer_ip"`
	RedirectTarget string    `db:"redirect_target"`
	ValidUntil     time.Time `db:"valid_until"`
	IssuedAt       time.Time `db:"issued_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

const (
	TokenStatusIssued               = "issued"
	TokenStatusUsed                 = "used"
	TokenStatusExpired              = "expired"
	TokenStatusAlreadyAuthenticated = "already_authenticated"
)

func (t *LoginToken) IsExpired() bool {
	return time.Now().After(t.ValidUntil)
}

func (t *LoginToken) IsPending() bool {
	return t.Status == TokenStatusIssued && !t.IsExpired()
}
