package usecase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avolkov/newschat/internal/core/domain"
)

func TestClassifyDefaults(t *testing.T) {
	classifier, err := NewCategoryClassifier()
	if err != nil {
		t.Fatalf("NewCategoryClassifier() error = %v", err)
	}

	cases := []struct {
		query string
		want  string
	}{
		{"latest ai startup funding round", "technology"},
		{"who won the cricket match", "sports"},
		{"parliament passed the new policy", "politics"},
		{"nasa announced a discovery", "science"},
		{"something entirely unrelated", ""},
	}
	for _, tc := range cases {
		if got := classifier.Classify(tc.query); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestClassifyWordBoundaries(t *testing.T) {
	classifier, err := NewCategoryClassifier()
	if err != nil {
		t.Fatalf("NewCategoryClassifier() error = %v", err)
	}
	// "ai" must not match inside "maintain".
	if got := classifier.Classify("how do they maintain quality"); got != "" {
		t.Fatalf("Classify() = %q, want no match", got)
	}
}

func TestClassifierFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	content := "weather:\n  - storm\n  - hurricane\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	classifier, err := NewCategoryClassifierFromFile(path)
	if err != nil {
		t.Fatalf("NewCategoryClassifierFromFile() error = %v", err)
	}
	if got := classifier.Classify("hurricane heading north"); got != "weather" {
		t.Fatalf("Classify() = %q, want weather", got)
	}
	if got := classifier.Classify("latest ai startup"); got != "" {
		t.Fatalf("file-based keywords must replace the defaults, got %q", got)
	}
}

func TestClassifierFromFileEmptyPathUsesDefaults(t *testing.T) {
	classifier, err := NewCategoryClassifierFromFile("")
	if err != nil {
		t.Fatalf("NewCategoryClassifierFromFile(\"\") error = %v", err)
	}
	if got := classifier.Classify("stocks slide on earnings"); got != "business" {
		t.Fatalf("Classify() = %q, want business", got)
	}
}

func TestBuildAnswerPrompt(t *testing.T) {
	candidates := []domain.RetrievalCandidate{
		{Title: "Chip plant opens", Source: "wire", Score: 0.88, Text: "A new chip plant opened."},
		{Title: "Second story", Source: "desk", Score: 0.81, Text: "More coverage."},
	}

	prompt := buildAnswerPrompt("what about chips", candidates, "technology")
	for _, want := range []string{"[1] Chip plant opens", "[2] Second story", "what about chips", "technology news"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildAnswerPromptEmptyContext(t *testing.T) {
	prompt := buildAnswerPrompt("anything new", nil, "")
	if !strings.Contains(prompt, "no matching news passages were found") {
		t.Fatalf("empty context must be called out:\n%s", prompt)
	}
}
