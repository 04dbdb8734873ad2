package utils

import (
	"strconv"
	"strings"
)

// ParseLargeInteger parses a string to an int. On error, returns the fallback value.
func ParseLargeInteger(s string, fallback int) int {
	val, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return val
}

// ParseFloat parses a number written with either "." or "," as the decimal
// separator. ok is false for empty or malformed input.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SplitThatEnsuresGlobsAreSafe splits a string by any of the given separators,
// but does not split within brace-delimited glob patterns like {group1,group2}.
// Empty parts are dropped.
func SplitThatEnsuresGlobsAreSafe(s string, separators []rune) []string {
	if len(separators) == 0 {
		return []string{s}
	}

	var parts []string
	var currentPart strings.Builder
	braceLevel := 0

	isSeparator := func(r rune) bool {
		for _, sep := range separators {
			if r == sep {
				return true
			}
		}
		return false
	}

	flush := func() {
		if part := strings.TrimSpace(currentPart.String()); part != "" {
			parts = append(parts, part)
		}
		currentPart.Reset()
	}

	for _, char := range s {
		switch {
		case char == '{':
			braceLevel++
			currentPart.WriteRune(char)
		case char == '}':
			if braceLevel > 0 {
				braceLevel--
			}
			currentPart.WriteRune(char)
		case isSeparator(char) && braceLevel == 0:
			flush()
		default:
			currentPart.WriteRune(char)
		}
	}
	flush()
	return parts
}
