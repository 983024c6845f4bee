package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lumenauth/lumen/internal/model"
	"github.com/lumenauth/lumen/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// SessionBinder turns a validated account into an authenticated session.
type SessionBinder interface {
	Establish(w http.ResponseWriter, account *model.Account) bool
}

// SessionService binds sessions as HttpOnly JWT cookies and backs the
// regular password login that magic-link failures fall through to.
type SessionService struct {
	accounts     repository.AccountRepository
	jwtSecret    string
	jwtExpiry    time.Duration
	isProduction bool
}

func NewSessionService(accounts repository.AccountRepository, jwtSecret string, jwtExpiry time.Duration, isProduction bool) *SessionService {
	return &SessionService{
		accounts:     accounts,
		jwtSecret:    jwtSecret,
		jwtExpiry:    jwtExpiry,
		isProduction: isProduction,
	}
}

// Login authenticates the regular email+password flow.
func (s *SessionService) Login(email, password string) (*model.Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	account, err := s.accounts.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !account.HasPassword() {
		return nil, fmt.Errorf("this account is passwordless, use the magic link option: %w", ErrInvalidCredentials)
	}

	err = bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Establish implements SessionBinder: it sets the session cookie and
// reports whether the caller is now authenticated.
func (s *SessionService) Establish(w http.ResponseWriter, account *model.Account) bool {
	token, err := s.GenerateJWT(account)
	if err != nil {
		slog.Error("failed to generate session token", "error", err, "account_id", account.ID)
		return false
	}

	s.SetSessionCookie(w, token, time.Now().Add(s.jwtExpiry))
	return true
}

func (s *SessionService) GenerateJWT(account *model.Account) (string, error) {
	claims := jwt.MapClaims{
		"account_id": account.ID,
		"email":      account.Email,
		"exp":        time.Now().Add(s.jwtExpiry).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *SessionService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *SessionService) SetSessionCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionService) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}
