package service

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lumenauth/lumen/internal/db"
	"github.com/lumenauth/lumen/internal/model"
	"github.com/lumenauth/lumen/internal/repository"
	_ "modernc.org/sqlite"
)

func setupSessions(t *testing.T) (*SessionService, repository.AccountRepository) {
	t.Helper()

	testDB, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	testDB.SetMaxOpenConns(1)
	t.Cleanup(func() { testDB.Close() })

	if err := db.RunMigrations(testDB.DB, "sqlite"); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	accounts := repository.NewAccountRepository(testDB)
	return NewSessionService(accounts, "test-secret", time.Hour, false), accounts
}

func TestSessionService_Login(t *testing.T) {
	sessions, accounts := setupSessions(t)

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	account := &model.Account{
		ID:           "acct-1",
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: &hash,
		CreatedAt:    time.Now(),
	}
	if err := accounts.Create(account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := sessions.Login("ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.ID != account.ID {
		t.Errorf("ID = %v, want %v", got.ID, account.ID)
	}

	// Email lookup is case-insensitive.
	if _, err := sessions.Login("ADA@example.com", "correct horse"); err != nil {
		t.Errorf("Login() with uppercase email error = %v", err)
	}

	if _, err := sessions.Login("ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := sessions.Login("missing@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSessionService_LoginPasswordless(t *testing.T) {
	sessions, accounts := setupSessions(t)

	account := &model.Account{
		ID:        "acct-1",
		Email:     "ada@example.com",
		Username:  "ada",
		CreatedAt: time.Now(),
	}
	if err := accounts.Create(account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := sessions.Login("ada@example.com", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() for passwordless account error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSessionService_JWTRoundTrip(t *testing.T) {
	sessions, _ := setupSessions(t)

	account := &model.Account{ID: "acct-1", Email: "ada@example.com"}
	token, err := sessions.GenerateJWT(account)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := sessions.VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT() error = %v", err)
	}
	if claims["account_id"] != account.ID {
		t.Errorf("account_id = %v, want %v", claims["account_id"], account.ID)
	}

	// A token signed with another secret is rejected.
	other := NewSessionService(nil, "other-secret", time.Hour, false)
	if _, err := other.VerifyJWT(token); err == nil {
		t.Error("VerifyJWT() with wrong secret should fail")
	}
}

func TestSessionService_Establish(t *testing.T) {
	sessions, _ := setupSessions(t)

	w := httptest.NewRecorder()
	if !sessions.Establish(w, &model.Account{ID: "acct-1", Email: "ada@example.com"}) {
		t.Fatal("Establish() = false, want true")
	}

	var cookie string
	for _, c := range w.Result().Cookies() {
		if c.Name == "auth_token" {
			cookie = c.Value
			if !c.HttpOnly {
				t.Error("session cookie must be HttpOnly")
			}
		}
	}
	if cookie == "" {
		t.Fatal("auth_token cookie not set")
	}

	claims, err := sessions.VerifyJWT(cookie)
	if err != nil {
		t.Fatalf("VerifyJWT() error = %v", err)
	}
	if claims["account_id"] != "acct-1" {
		t.Errorf("account_id = %v, want acct-1", claims["account_id"])
	}
}
