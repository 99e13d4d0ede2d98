package jina

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// The external model caps input size; anything longer is truncated, not
	// rejected, because passage tails carry little additional signal.
	maxInputChars = 4000
	// Inputs shorter than this get a templated prefix so the model receives
	// enough context to produce a meaningful vector.
	minInputChars = 10
)

func cleanInputs(texts []string) []string {
	cleaned := make([]string, 0, len(texts))
	for _, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > maxInputChars {
			trimmed = truncateOnRuneBoundary(trimmed, maxInputChars)
		}
		if len(trimmed) < minInputChars {
			trimmed = expandShortInput(trimmed)
		}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}

func expandShortInput(text string) string {
	return fmt.Sprintf("News topic query: %s", text)
}

// truncateOnRuneBoundary cuts text to at most limit bytes without splitting a
// multi-byte rune, which would hand the model invalid UTF-8.
func truncateOnRuneBoundary(text string, limit int) string {
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
