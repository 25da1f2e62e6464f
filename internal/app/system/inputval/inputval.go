// Package inputval validates operator-entered field values before they
// are allowed into a save pipeline.
package inputval

import (
	"net/mail"
	"strings"
)

// IsValidEmail reports whether s is a plausible bare email address.
//
// The check is stricter than net/mail alone: display-name forms
// ("Name <a@b.c>") are rejected, as are leading/trailing/consecutive
// dots in either part. Single-label domains ("user@localhost") are
// accepted; they are common in dev and test environments.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") ||
			strings.Contains(part, "..") {
			return false
		}
	}
	return true
}
