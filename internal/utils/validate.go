package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks the basic shape of an email address. Returns a
// validation error; the database unique index is the real uniqueness gate.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return NewError(KindValidation, "EMAIL_REQUIRED", "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return NewError(KindValidation, "EMAIL_INVALID", "Email format is invalid")
	}
	return nil
}

// ValidateFullName requires a display name of at least two characters.
func ValidateFullName(name string) error {
	if len(strings.TrimSpace(name)) < 2 {
		return NewError(KindValidation, "NAME_TOO_SHORT", "Full name must be at least 2 characters")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword enforces the minimum credential strength for
// self-registration.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return NewError(KindValidation, "PASSWORD_TOO_SHORT", "Password must be at least 8 characters")
	}
	return nil
}
