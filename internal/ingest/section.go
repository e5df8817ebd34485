package ingest

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// titleCasePattern matches a leading-capital heading like "Waiting Period".
var titleCasePattern = regexp.MustCompile(`^[A-Z][A-Za-z ]+$`)

// GuessSectionName infers a likely section heading from the first lines of a
// passage. It looks at the non-blank lines among the first ten, and accepts a
// line no longer than 80 characters that either ends with a colon and has at
// least two words, or is upper-case / Title Case. Returns "" when nothing
// heading-like is found; false negatives are acceptable.
func GuessSectionName(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > 80 {
			continue
		}

		// Heading with colon
		if strings.HasSuffix(line, ":") && len(strings.Fields(line)) >= 2 {
			return strings.TrimSpace(strings.TrimSuffix(line, ":"))
		}

		// Mostly uppercase or Title Case
		if titleCasePattern.MatchString(line) || isUpperCase(line) {
			return line
		}
	}
	return ""
}

// isUpperCase reports whether s contains at least one letter and no lower-case
// letters.
func isUpperCase(s string) bool {
	hasUpper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}
