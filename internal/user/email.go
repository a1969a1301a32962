package user

import "strings"

// NormalizeEmail trims surrounding whitespace and lowercases the domain.
// The local part keeps its case. Input without "@" is only trimmed.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
