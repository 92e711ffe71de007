// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every element and attribute, keeping text content.
var strict = bluemonday.StrictPolicy()

// PlainText removes all markup from s and returns trimmed text. Entities
// that bluemonday escapes on output are decoded again, so "Food & Shelter"
// survives unchanged.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
