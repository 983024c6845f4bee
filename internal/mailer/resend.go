package mailer

import (
	"context"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type ResendMailer struct {
	client    *resend.Client
	fromEmail string
}

func NewResendMailer(apiKey, fromEmail string) *ResendMailer {
	return &ResendMailer{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
	}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    m.fromEmail,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	}

	_, err := m.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "provider", m.Name(), "to", msg.To)
	}
	return err
}

func (m *ResendMailer) Name() string {
	return ProviderResend
}
