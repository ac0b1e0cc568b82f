package middleware

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalid marks input validation failures so the HTTP layer can answer 400.
var ErrInvalid = errors.New("invalid input")

// Invalid wraps a message with ErrInvalid.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

var (
	tenantRe   = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	exchangeRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// ValidateTenantID checks the tenant path segment.
func ValidateTenantID(s string) error {
	if !tenantRe.MatchString(s) {
		return Invalid("tenant id must be lowercase alphanumeric, max 64 chars")
	}
	return nil
}

// ValidateExchangeID checks a caller-supplied exchange id.
func ValidateExchangeID(s string) error {
	if !exchangeRe.MatchString(s) {
		return Invalid("exchange id must be alphanumeric/dash/underscore, max 128 chars")
	}
	return nil
}

// ValidateRole normalizes the message role, defaulting to assistant: the
// content under verification is what the assistant said.
func ValidateRole(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "assistant", nil
	case "user":
		return "user", nil
	case "assistant":
		return "assistant", nil
	case "system":
		return "system", nil
	}
	return "", Invalid("role must be user, assistant or system")
}

// ClampLimit bounds a listing limit to something sane.
func ClampLimit(n int) int {
	if n <= 0 {
		return 20
	}
	if n > 100 {
		return 100
	}
	return n
}

// SanitizeString trims and strips control characters that would corrupt logs
// or stored JSON. Newlines and tabs stay: clinical text uses them.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
