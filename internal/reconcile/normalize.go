package reconcile

import "strings"

// Normalize canonicalizes a human-entered reference code for comparison.
// An empty input normalizes to "", which by policy never matches any
// remote reference.
func Normalize(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

// NormalizeLogin canonicalizes a user login. Logins are compared
// case-insensitively but lower-cased, matching the remote directory.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
