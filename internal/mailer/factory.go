package mailer

import (
	"fmt"
	"log/slog"

	"github.com/lumenauth/lumen/internal/config"
)

const (
	ProviderResend = "resend"
	ProviderSES    = "ses"
	ProviderLog    = "log"
)

// New creates a mail provider based on configuration. Development defaults
// to the log provider so sign-in links land in the server log instead of an
// inbox.
func New(cfg *config.Config) (Mailer, error) {
	provider := cfg.MailProvider
	if cfg.IsDevelopment() && provider == "" {
		provider = ProviderLog
	}

	slog.Info("initializing mail provider", "provider", provider)

	switch provider {
	case ProviderResend:
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required when using the Resend provider")
		}
		return NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom), nil

	case ProviderSES:
		if cfg.SESRegion == "" {
			return nil, fmt.Errorf("SES_REGION is required when using the SES provider")
		}
		return NewSESMailer(cfg.SESRegion, cfg.EmailFrom)

	case ProviderLog:
		return NewLogMailer(), nil

	default:
		return nil, fmt.Errorf("unknown mail provider: %s (supported: resend, ses, log)", provider)
	}
}
