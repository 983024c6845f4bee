// Command addaccount provisions an account in the directory so it can be
// sent magic links.
//
// Usage:
//
//	go run ./cmd/addaccount -email ada@example.com -username ada -name "Ada" -roles admin,editor [-password secret]
package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lumenauth/lumen/internal/config"
	"github.com/lumenauth/lumen/internal/db"
	"github.com/lumenauth/lumen/internal/logger"
	"github.com/lumenauth/lumen/internal/model"
	"github.com/lumenauth/lumen/internal/repository"
	"github.com/lumenauth/lumen/internal/service"
)

func main() {
	email := flag.String("email", "", "account email (required)")
	username := flag.String("username", "", "account username (required)")
	name := flag.String("name", "", "display name")
	roles := flag.String("roles", "", "comma-separated roles")
	password := flag.String("password", "", "optional password; omit for a passwordless account")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	if *email == "" || *username == "" {
		flag.Usage()
		os.Exit(2)
	}

	database, err := db.Open(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close(database)

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	account := &model.Account{
		ID:          uuid.New().String(),
		Email:       *email,
		Username:    *username,
		DisplayName: *name,
		Roles:       *roles,
		CreatedAt:   time.Now(),
	}

	if *password != "" {
		hash, err := service.HashPassword(*password)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			os.Exit(1)
		}
		account.PasswordHash = &hash
	}

	err = repository.NewAccountRepository(database).Create(account)
	if err != nil {
		slog.Error("failed to create account", "error", err)
		os.Exit(1)
	}

	slog.Info("account created", "account_id", account.ID, "email", account.Email, "username", account.Username)
}
