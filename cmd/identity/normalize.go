package identity

import "strings"

// NormalizeUsername performs case-insensitive canonicalization (trim + lower).
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
