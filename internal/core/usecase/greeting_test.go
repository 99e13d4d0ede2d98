package usecase

import "testing"

func TestIsGreeting(t *testing.T) {
	greetings := []string{
		"hi", "Hello", "HEY", "  yo  ", "good morning", "thanks", "bye", "ok",
		"how are you", "What's up?", "hows it going today",
		"h", "ab",
	}
	for _, input := range greetings {
		if !isGreeting(input) {
			t.Errorf("isGreeting(%q) = false, want true", input)
		}
	}

	questions := []string{
		"",
		"what happened in the election",
		"hi-tech industry layoffs",
		"okay so what happened with the merger",
		"a1",
		"latest technology news",
	}
	for _, input := range questions {
		if isGreeting(input) {
			t.Errorf("isGreeting(%q) = true, want false", input)
		}
	}
}
