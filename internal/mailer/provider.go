package mailer

import "context"

// Message is a fully assembled email: the notifier contract is "send this
// message to this recipient" and nothing more.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer defines the interface that all mail providers must implement
type Mailer interface {
	// Send delivers the message. Implementations must respect ctx deadlines
	// so a stuck provider cannot hold up the calling request.
	Send(ctx context.Context, msg Message) error

	// Name returns the provider name (e.g., "resend", "ses")
	Name() string
}
