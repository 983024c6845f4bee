package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lumenauth/lumen/internal/config"
	"github.com/lumenauth/lumen/internal/db"
	"github.com/lumenauth/lumen/internal/mailer"
	"github.com/lumenauth/lumen/internal/repository"
	"github.com/lumenauth/lumen/internal/service"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	AccountRepository repository.AccountRepository
	TokenRepository   repository.LoginTokenRepository
	EmailService      *service.EmailService
	SessionService    *service.SessionService
	MagicLinkService  *service.MagicLinkService
}

func New(cfg *config.Config) (*App, error) {
	database, err := db.Open(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	accountRepository := repository.NewAccountRepository(database)
	tokenRepository := repository.NewLoginTokenRepository(database)

	// Mail provider
	mail, err := mailer.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mail provider: %v", err)
	}

	// Services
	emailService := service.NewEmailService(mail, cfg.AppName)
	sessionService := service.NewSessionService(
		accountRepository,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.IsProduction(),
	)
	magicLinkService := service.NewMagicLinkService(
		accountRepository,
		tokenRepository,
		emailService,
		sessionService,
		cfg,
		nil, // role allow-list from config
		nil, // configured default validity
	)

	return &App{
		Cfg:               cfg,
		DB:                database,
		AccountRepository: accountRepository,
		TokenRepository:   tokenRepository,
		EmailService:      emailService,
		SessionService:    sessionService,
		MagicLinkService:  magicLinkService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
