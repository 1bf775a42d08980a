package utils

import "strings"

// TruncatePreview shortens message bodies for log rows. Previews are stored
// alongside delivery outcomes and must stay small.
func TruncatePreview(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// NormalizePhone strips formatting characters so gateway recipients and user
// lookups agree on a single representation.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
