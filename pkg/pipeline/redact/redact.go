package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Token <credential>" and "Bearer <token>" authorization values.
	authTokenRe = regexp.MustCompile(`(?i)\b(Token|Bearer)\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|token|credential)\b\s*[:=]\s*[^\s"']+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = authTokenRe.ReplaceAllString(out, "$1 <redacted>")
	return strings.TrimSpace(out)
}

// Truncate redacts s and caps it at max bytes, collapsing line breaks so the
// result fits in a single output cell.
func Truncate(s string, max int) string {
	out := Secrets(s)
	out = strings.ReplaceAll(out, "\r", " ")
	out = strings.ReplaceAll(out, "\n", " ")
	if max > 0 && len(out) > max {
		return strings.TrimSpace(out[:max]) + "..."
	}
	return out
}
