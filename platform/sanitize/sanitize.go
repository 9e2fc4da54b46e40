// Package sanitize strips markup from user-provided text.
package sanitize

import (
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", "\"",
	"&#39;", "'",
)

// Text removes HTML tags (including entity-encoded ones) and trims the result.
// Used for ticket messages, notes and area descriptions.
func Text(s string) string {
	out := htmlTagRegex.ReplaceAllString(s, "")
	out = entityReplacer.Replace(out)
	out = htmlTagRegex.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// TextPtr sanitizes an optional field, mapping blank results to nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}
