package http

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation constants
const (
	MaxNameLength   = 128
	MaxPromptLength = 10000
	MaxConfigBytes  = 50000
)

// ValidName checks an agent or integration display name.
func ValidName(s string) bool {
	return ValidateLength(strings.TrimSpace(s), 1, MaxNameLength)
}

// ValidSlug checks if a slug is safe (alphanumeric + underscore + hyphen)
func ValidSlug(s string) bool {
	if s == "" || len(s) > MaxNameLength {
		return false
	}
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_-]+$`, s)
	return matched
}

// ValidWebhookURL accepts absolute http(s) URLs only.
func ValidWebhookURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SanitizeString removes null bytes and control characters
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	// Keep only valid UTF-8
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// ValidateLength checks if string is within bounds
func ValidateLength(s string, min, max int) bool {
	l := len(s)
	return l >= min && l <= max
}
