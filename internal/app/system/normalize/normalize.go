// internal/app/system/normalize/normalize.go
package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// VendorCode trims and uppercases a vendor code.
func VendorCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Phone extracts the digits of s and returns them as an integer.
// ok is false when s contains no digits or the digits overflow int64.
func Phone(s string) (n int64, ok bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Key reduces a form label to a comparable key: lowercase letters and
// digits only. "Organization Name", "organization_name" and
// "organizationName" all become "organizationname".
func Key(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Bearer extracts the token from an "Authorization: Bearer <token>" header
// value. ok is false when the scheme is missing or the token is blank.
func Bearer(header string) (token string, ok bool) {
	scheme, rest, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(rest)
	return token, token != ""
}
