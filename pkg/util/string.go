package util

import (
	"strings"
	"unicode/utf8"
)

// ParseTags splits a comma separated tag string, trimming whitespace,
// brackets and quotes and dropping empty entries.
func ParseTags(tagStr string) []string {
	if tagStr == "" {
		return []string{}
	}

	// Remove brackets if present
	tagStr = strings.Trim(tagStr, "[]")

	tags := strings.Split(tagStr, ",")
	cleanTags := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.Trim(tag, "\"'")
		if tag != "" {
			cleanTags = append(cleanTags, tag)
		}
	}

	return cleanTags
}

// ParsePGArray parses a PostgreSQL array literal such as {a,"b c"}.
// ok is false when s is not an array literal.
func ParsePGArray(s string) (values []string, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, false
	}

	trimmed := strings.TrimSpace(s[1 : len(s)-1])
	if trimmed == "" {
		return []string{}, true
	}

	parts := strings.Split(trimmed, ",")
	values = make([]string, 0, len(parts))
	for _, part := range parts {
		// Remove quotes if present
		part = strings.Trim(strings.TrimSpace(part), "\"")
		part = strings.ReplaceAll(part, "\\\"", "\"")
		if part == "" || part == "NULL" {
			continue
		}
		values = append(values, part)
	}
	return values, true
}

// FirstLineLongerThan returns the first trimmed line of text longer than min
// characters.
func FirstLineLongerThan(text string, min int) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > min {
			return line, true
		}
	}
	return "", false
}

// TruncateRunes cuts s to at most max runes.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
