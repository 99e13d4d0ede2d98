package usecase

import (
	"strings"
	"unicode"
)

var greetingExact = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"yo":             {},
	"sup":            {},
	"hiya":           {},
	"hola":           {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
	"thanks":         {},
	"thank you":      {},
	"bye":            {},
	"goodbye":        {},
	"ok":             {},
	"okay":           {},
}

var greetingSubstrings = []string{
	"how are you",
	"what's up",
	"whats up",
	"how's it going",
	"hows it going",
	"nice to meet you",
}

// isGreeting classifies trivial small-talk inputs that should bypass
// retrieval entirely. The 1-2 character alphabetic catch-all absorbs typo
// greetings like "h" or "yo" variants.
func isGreeting(query string) bool {
	folded := strings.ToLower(strings.TrimSpace(query))
	if folded == "" {
		return false
	}
	if _, ok := greetingExact[folded]; ok {
		return true
	}
	for _, phrase := range greetingSubstrings {
		if strings.Contains(folded, phrase) {
			return true
		}
	}
	if len(folded) <= 2 && isAlphabetic(folded) {
		return true
	}
	return false
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}
