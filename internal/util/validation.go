package util

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// IsValidUUID accepts only the canonical 36 character form.
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// NewID returns a random (v4) UUID string used as a primary key.
func NewID() string {
	return uuid.NewString()
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}

// IsValidEmail accepts a bare address (no display name).
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// IsValidURL accepts absolute http and https URLs with a host.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
