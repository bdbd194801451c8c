package services

import (
	"regexp"
	"strings"
)

// emailPattern is the account email format rule. The whole value must
// match: dotted/dashed local part, a domain, and at least one TLD label
// of two or more letters.
var emailPattern = regexp.MustCompile(`^([A-Za-z0-9]+[.-_])*[A-Za-z0-9]+@[A-Za-z0-9-]+(\.[A-Z|a-z]{2,})+$`)

// passwordSpecials is the fixed set of special characters, one of which
// every password must contain.
const passwordSpecials = "!@#?]"

const passwordMinLength = 10

// ValidEmail reports whether email satisfies the account email format.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword reports whether password satisfies the strength policy:
// at least 10 characters, one lowercase letter, one uppercase letter and
// one of ! @ # ? ]. Enforced at account creation only.
func ValidPassword(password string) bool {
	if len(password) < passwordMinLength {
		return false
	}
	var hasLower, hasUpper, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}
	return hasLower && hasUpper && hasSpecial
}

// NormalizeEmail lowercases the domain part of an email address. The
// local part keeps its case.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
