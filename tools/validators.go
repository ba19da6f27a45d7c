package tools

import (
	"regexp"
	"strings"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) bool {
	return emailRegexp.MatchString(email)
}

// NormalizeEmail é como os e-mails são gravados e buscados.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
