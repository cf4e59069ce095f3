package utils

import (
	"regexp"
	"strings"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{3,50}$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidateUsername accepts 3-50 letters, digits, '_', '.' or '-'.
func ValidateUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// ValidatePasswordLength checks the configured minimum and the bcrypt maximum.
func ValidatePasswordLength(password string, minLength int) bool {
	return len(password) >= minLength && len(password) <= MaxPasswordBytes
}

// NormalizeEmail trims and lower-cases an email. Emails are compared
// case-insensitively everywhere, so this runs before every lookup and write.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
