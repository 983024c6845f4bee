package validation

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidateEmail validates email format and length
// Uses Go's built-in net/mail parser which follows RFC 5322
func ValidateEmail(email string) error {
	// Check length (RFC 5321: local part max 64, domain max 255, total max 254 with @)
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	if email == "" {
		return errors.New("email address is required")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email address format")
	}

	return nil
}

// ValidateIdentifier accepts what the sign-in form accepts: an email
// address (contains "@") or a username.
func ValidateIdentifier(identifier string) error {
	identifier = strings.TrimSpace(identifier)

	if identifier == "" {
		return errors.New("email or username is required")
	}

	if strings.Contains(identifier, "@") {
		return ValidateEmail(identifier)
	}

	if len(identifier) > 64 {
		return errors.New("username is too long (max 64 characters)")
	}

	return nil
}
