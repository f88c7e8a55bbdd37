package identity

import (
	"regexp"
	"strings"
)

var separatorRe = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Normalize strips separators and uppercases a raw document number. The
// normalized form is the only form persisted and compared, and normalizing an
// already-normalized number returns it unchanged.
func Normalize(raw string) string {
	return strings.ToUpper(separatorRe.ReplaceAllString(raw, ""))
}

// NormalizeExtension trims and uppercases a document extension, mapping empty
// input to nil so "no extension" is stored as NULL.
func NormalizeExtension(raw *string) *string {
	if raw == nil {
		return nil
	}
	ext := strings.ToUpper(strings.TrimSpace(*raw))
	if ext == "" {
		return nil
	}
	return &ext
}
