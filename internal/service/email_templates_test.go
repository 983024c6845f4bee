package service

import (
	"strings"
	"testing"
	"time"
)

func TestMagicLinkEmail(t *testing.T) {
	subject, body := magicLinkEmail("Ada", "https://lumen.test/auth/magic-link?token=abc&redirect=1", "Lumen", 10*time.Minute)

	if subject != "Sign in to Lumen" {
		t.Errorf("subject = %q, want %q", subject, "Sign in to Lumen")
	}
	for _, want := range []string{
		"Hello Ada,",
		"https://lumen.test/auth/magic-link?token=abc&redirect=1",
		"expire in 10 minutes",
		"only be used once",
		"safely ignore this email",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestMagicLinkEmail_NoDisplayName(t *testing.T) {
	_, body := magicLinkEmail("", "https://lumen.test/x", "Lumen", time.Minute)

	if !strings.Contains(body, "Hello,") {
		t.Errorf("body missing generic greeting:\n%s", body)
	}
}
