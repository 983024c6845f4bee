package service

import (
	"context"
	"time"

	"github.com/lumenauth/lumen/internal/mailer"
)

// sendTimeout bounds a single delivery attempt. A stuck provider reports
// failure instead of holding up the issuance response.
const sendTimeout = 10 * time.Second

// EmailService turns domain events into messages for the configured mail
// provider.
type EmailService struct {
	mailer  mailer.Mailer
	appName string
}

func NewEmailService(m mailer.Mailer, appName string) *EmailService {
	return &EmailService{
		mailer:  m,
		appName: appName,
	}
}

// SendMagicLink delivers a sign-in link. The token behind the URL is already
// committed; a delivery error is the caller's to report, not to roll back.
func (s *EmailService) SendMagicLink(ctx context.Context, email, displayName, loginURL string, validity time.Duration) error {
	subject, body := magicLinkEmail(displayName, loginURL, s.appName, validity)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	return s.mailer.Send(ctx, mailer.Message{
		To:      email,
		Subject: subject,
		Text:    body,
	})
}
