package utils

import (
	"strings"
)

// CleanHeader trims whitespace and removes all quotes from a CSV header
func CleanHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ReplaceAll(h, `"`, "")
}

// ParseValue trims a CSV cell. Empty cells become nil so they read as absent.
// Numbers stay textual: cohort identifiers such as "07" must keep their form.
func ParseValue(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}
