package service

import (
	"fmt"
	"strings"
	"time"
)

// callToAction is the single prominent link of a notification email.
type callToAction struct {
	Label string
	URL   string
}

// renderEmail assembles a plain-text email from greeting lines, a call to
// action and footer lines. Pure function so templates can be swapped or
// tested without a mail provider.
func renderEmail(lines []string, cta callToAction, footer []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(cta.Label)
	b.WriteString(":\n")
	b.WriteString(cta.URL)
	b.WriteString("\n\n")
	for _, line := range footer {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func magicLinkEmail(displayName, loginURL, appName string, validity time.Duration) (string, string) {
	subject := fmt.Sprintf("Sign in to %s", appName)

	greeting := "Hello,"
	if displayName != "" {
		greeting = fmt.Sprintf("Hello %s,", displayName)
	}

	body := renderEmail(
		[]string{
			greeting,
			fmt.Sprintf("Click the link below to sign in to your %s account.", appName),
			fmt.Sprintf("This link will expire in %d minutes and can only be used once.", int(validity.Minutes())),
		},
		callToAction{
			Label: fmt.Sprintf("Sign in to %s", appName),
			URL:   loginURL,
		},
		[]string{
			"If the link does not work, paste it into your web browser.",
			"If you did not make this request, you can safely ignore this email.",
			"",
			fmt.Sprintf("The %s Team", appName),
		},
	)

	return subject, body
}
