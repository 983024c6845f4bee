package mailer

import (
	"context"
	"log/slog"
)

// LogMailer writes mail to the server log instead of delivering it.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	slog.Info("email sent (log mode)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}

func (m *LogMailer) Name() string {
	return ProviderLog
}
