package textutil

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeUnicode applies NFKD compatibility decomposition so full-width
// digits and ligatures match the ASCII token tables.
func NormalizeUnicode(value string) string {
	return norm.NFKD.String(value)
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(value string) string {
	if value == "" {
		return ""
	}
	// Casers carry state; build one per call so this stays safe for concurrent use.
	return cases.Title(language.Und).String(value)
}

// CollapseSpaces replaces every whitespace run with a single space and trims
// both ends.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the characters Telegram's HTML parse mode treats as markup.
func EscapeHTML(value string) string {
	return htmlEscaper.Replace(value)
}

// AppendUnique appends each non-empty value not already present, preserving
// first-seen order.
func AppendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
