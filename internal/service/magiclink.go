package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lumenauth/lumen/internal/config"
	"github.com/lumenauth/lumen/internal/model"
	"github.com/lumenauth/lumen/internal/repository"
)

var (
	ErrFeatureDisabled = errors.New("magic link sign-in is disabled")
	ErrAccountNotFound = errors.New("account not found")
	ErrIneligible      = errors.New("account is not eligible for magic link sign-in")
	ErrTokenNotFound   = errors.New("invalid or already-used token")
	ErrTokenExpired    = errors.New("token has expired")
	ErrSessionBind     = errors.New("session establishment failed")
)

// RateLimitedError carries the remaining window so callers can tell the
// user how long to wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many sign-in attempts, retry after %d minutes", int(e.RetryAfter.Minutes()))
}

// EligibilityPolicy decides whether an account may use magic-link sign-in.
type EligibilityPolicy func(account *model.Account) bool

// ValidityPolicy resolves the validity window for a newly issued or
// extended token. requested is zero when the caller wants the default.
type ValidityPolicy func(account *model.Account, requested time.Duration) time.Duration

// RoleAllowListPolicy admits accounts holding at least one of the allowed
// roles. An empty allow-list admits everyone.
func RoleAllowListPolicy(allowed []string) EligibilityPolicy {
	return func(account *model.Account) bool {
		return account.HasAnyRole(allowed)
	}
}

// DefaultValidityPolicy uses the requested validity when given, otherwise
// the configured default.
func DefaultValidityPolicy(def time.Duration) ValidityPolicy {
	return func(_ *model.Account, requested time.Duration) time.Duration {
		if requested > 0 {
			return requested
		}
		return def
	}
}

// SessionContext describes the caller of a redemption: who they already are
// (if anyone) and where they came from. Passed explicitly instead of any
// process-global current-user state.
type SessionContext struct {
	AccountID string // non-empty when the caller is already authenticated
	IP        string
}

type IssueRequest struct {
	Identifier string        // email or username; "@" selects email lookup
	Validity   time.Duration // zero means the configured default
	RedirectTo string        // optional post-login destination
	IP         string
}

type IssueResult struct {
	Address string // registered contact address the link went to
	Sent    bool   // false when delivery failed; the token is still valid
}

type RedeemResult struct {
	Account              *model.Account // nil on the already-authenticated noop
	RedirectTo           string
	AlreadyAuthenticated bool
}

// MagicLinkService owns the token lifecycle: issuance with idempotent
// re-issuance, rate limiting, and single-use redemption.
type MagicLinkService struct {
	accounts        repository.AccountRepository
	tokens          repository.LoginTokenRepository
	email           *EmailService
	sessions        SessionBinder
	eligibility     EligibilityPolicy
	validity        ValidityPolicy
	enabled         bool
	maxAttempts     int
	attemptWindow   time.Duration
	appURL          string
	defaultRedirect string
}

// NewMagicLinkService wires the issuer/redeemer. Pass nil policies to use
// the config-driven defaults (role allow-list, fixed validity).
func NewMagicLinkService(
	accounts repository.AccountRepository,
	tokens repository.LoginTokenRepository,
	email *EmailService,
	sessions SessionBinder,
	cfg *config.Config,
	eligibility EligibilityPolicy,
	validity ValidityPolicy,
) *MagicLinkService {
	if eligibility == nil {
		eligibility = RoleAllowListPolicy(cfg.MagicLinkEligibleRoles)
	}
	if validity == nil {
		validity = DefaultValidityPolicy(cfg.MagicLinkValidity)
	}

	return &MagicLinkService{
		accounts:        accounts,
		tokens:          tokens,
		email:           email,
		sessions:        sessions,
		eligibility:     eligibility,
		validity:        validity,
		enabled:         cfg.MagicLinkEnabled,
		maxAttempts:     cfg.MagicLinkMaxAttempts,
		attemptWindow:   cfg.MagicLinkAttemptWindow,
		appURL:          cfg.AppURL,
		defaultRedirect: cfg.DefaultLoginRedirect,
	}
}

// RequestLink issues a sign-in link for the identified account, reusing and
// extending a still-pending token so repeat requests always email the same
// link. Delivery failure is reported in the result, never rolled back.
func (s *MagicLinkService) RequestLink(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	if !s.enabled {
		return nil, ErrFeatureDisabled
	}

	now := time.Now()

	count, err := s.tokens.CountByRequesterIPSince(req.IP, now.Add(-s.attemptWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to count issuance attempts: %w", err)
	}
	// The comparison is deliberately exclusive: exactly maxAttempts prior
	// requests still allow one more.
	if count > s.maxAttempts {
		return nil, &RateLimitedError{RetryAfter: s.attemptWindow}
	}

	account, err := s.resolveAccount(req.Identifier)
	if err != nil {
		return nil, err
	}

	if !s.eligibility(account) {
		return nil, ErrIneligible
	}

	validity := s.validity(account, req.Validity)
	validUntil := now.Add(validity)

	tokenValue, err := s.issueOrExtend(account, req, validUntil)
	if err != nil {
		return nil, err
	}

	loginURL := fmt.Sprintf("%s/auth/magic-link?token=%s&redirect=1", s.appURL, url.QueryEscape(tokenValue))

	result := &IssueResult{Address: account.Email, Sent: true}
	err = s.email.SendMagicLink(ctx, account.Email, account.DisplayName, loginURL, validity)
	if err != nil {
		// The token stays valid; the user can request the link again and
		// will receive the very same one.
		slog.Error("failed to send magic link email", "error", err, "account_id", account.ID)
		result.Sent = false
	}

	return result, nil
}

func (s *MagicLinkService) resolveAccount(identifier string) (*model.Account, error) {
	identifier = strings.TrimSpace(identifier)

	var account *model.Account
	var err error
	if strings.Contains(identifier, "@") {
		account, err = s.accounts.ByEmail(strings.ToLower(identifier))
	} else {
		account, err = s.accounts.ByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	return account, nil
}

func (s *MagicLinkService) issueOrExtend(account *model.Account, req IssueRequest, validUntil time.Time) (string, error) {
	pending, err := s.tokens.PendingByAccount(account.ID)
	if err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		return "", fmt.Errorf("failed to look up pending token: %w", err)
	}

	if pending != nil {
		// valid_until never moves backward
		if validUntil.Before(pending.ValidUntil) {
			validUntil = pending.ValidUntil
		}
		redirect := pending.RedirectTarget
		if req.RedirectTo != "" {
			redirect = req.RedirectTo
		}

		err = s.tokens.Extend(pending.ID, validUntil, redirect)
		if err != nil {
			return "", fmt.Errorf("failed to extend pending token: %w", err)
		}

		slog.Info("magic link extended", "account_id", account.ID, "valid_until", validUntil)
		return pending.Token, nil
	}

	tokenValue, err := mintToken(account.ID)
	if err != nil {
		return "", fmt.Errorf("failed to mint token: %w", err)
	}

	token := &model.LoginToken{
		Token:          tokenValue,
		AccountID:      account.ID,
		Status:         model.TokenStatusIssued,
		RequesterIP:    req.IP,
		RedirectTarget: req.RedirectTo,
		ValidUntil:     validUntil,
	}
	err = s.tokens.Create(token)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	slog.Info("magic link issued", "account_id", account.ID, "valid_until", validUntil)
	return tokenValue, nil
}

// mintToken generates a fresh token value. The random bytes are the secret;
// the account id and timestamp suffix only guard against collisions.
func mintToken(accountID string) (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%d", hex.EncodeToString(bytes), accountID, time.Now().Unix()), nil
}

// Redeem exchanges a presented token for a session. Exactly one of two
// concurrent redemptions of the same token can succeed: the issued-to-used
// transition is a conditional update, taken before session binding. If
// binding then fails the consumption is reverted so the token stays
// retryable until it expires.
func (s *MagicLinkService) Redeem(w http.ResponseWriter, sc SessionContext, tokenValue string) (*RedeemResult, error) {
	if !s.enabled {
		return nil, ErrFeatureDisabled
	}

	// A caller who is already signed in keeps their session; the token is
	// retired so it cannot be replayed elsewhere.
	if sc.AccountID != "" {
		err := s.tokens.MarkAlreadyAuthenticated(sc.AccountID, tokenValue, sc.IP)
		if err != nil {
			return nil, fmt.Errorf("failed to retire token: %w", err)
		}
		return &RedeemResult{AlreadyAuthenticated: true, RedirectTo: s.defaultRedirect}, nil
	}

	token, err := s.tokens.ByToken(tokenValue)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	// No distinction between never-issued and already-consumed.
	if token.Status != model.TokenStatusIssued {
		return nil, ErrTokenNotFound
	}

	if token.IsExpired() {
		err = s.tokens.MarkExpired(token.ID)
		if err != nil {
			slog.Warn("failed to mark token expired", "error", err, "token_id", token.ID)
		}
		return nil, ErrTokenExpired
	}

	account, err := s.accounts.ByID(token.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	// Roles may have changed since issuance. The token is left issued: a
	// later attempt before expiry may still succeed.
	if !s.eligibility(account) {
		return nil, ErrIneligible
	}

	consumed, err := s.tokens.Consume(tokenValue, sc.IP)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to consume token: %w", err)
	}

	if !s.sessions.Establish(w, account) {
		err = s.tokens.Revert(consumed.ID)
		if err != nil {
			slog.Error("failed to revert consumed token", "error", err, "token_id", consumed.ID)
		}
		return nil, ErrSessionBind
	}

	redirect := consumed.RedirectTarget
	if redirect == "" {
		redirect = s.defaultRedirect
	}

	slog.Info("magic link redeemed", "account_id", account.ID, "ip", sc.IP)
	return &RedeemResult{Account: account, RedirectTo: redirect}, nil
}
