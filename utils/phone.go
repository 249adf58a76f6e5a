package utils

import (
	"regexp"
	"strings"
)

var (
	phoneSeparators = regexp.MustCompile(`[\s\-\(\)]`)
	e164Pattern     = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// NormalizePhone strips whitespace, dashes and parentheses.
func NormalizePhone(phone string) string {
	return phoneSeparators.ReplaceAllString(strings.TrimSpace(phone), "")
}

// ValidPhone reports whether phone, once normalized, is an E.164-style number.
func ValidPhone(phone string) bool {
	return e164Pattern.MatchString(NormalizePhone(phone))
}
