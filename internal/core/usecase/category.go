package usecase

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryClassifier buckets a query into one of a small fixed set of topics
// using word-boundary keyword matching. Best-effort: the result only biases
// the generation prompt's framing, never retrieval.
type CategoryClassifier struct {
	buckets []categoryBucket
}

type categoryBucket struct {
	name    string
	pattern *regexp.Regexp
}

var defaultCategoryKeywords = map[string][]string{
	"technology":    {"tech", "technology", "software", "hardware", "ai", "artificial intelligence", "startup", "app", "gadget", "chip", "cyber"},
	"business":      {"business", "economy", "market", "stocks", "finance", "company", "earnings", "trade", "inflation"},
	"sports":        {"sport", "sports", "football", "soccer", "cricket", "tennis", "basketball", "match", "tournament", "league"},
	"politics":      {"politics", "election", "government", "parliament", "policy", "minister", "president", "senate", "vote"},
	"health":        {"health", "medical", "medicine", "disease", "vaccine", "hospital", "doctor", "covid"},
	"science":       {"science", "research", "space", "nasa", "climate", "physics", "biology", "discovery"},
	"entertainment": {"movie", "film", "music", "celebrity", "actor", "show", "series", "box office"},
	"world":         {"world", "international", "global", "war", "conflict", "united nations", "diplomacy"},
}

// NewCategoryClassifier builds the classifier from the built-in keyword sets.
func NewCategoryClassifier() (*CategoryClassifier, error) {
	return newClassifierFromKeywords(defaultCategoryKeywords)
}

// NewCategoryClassifierFromFile loads keyword buckets from a YAML file
// mapping category name to keyword list, falling back to the built-in sets
// when the path is empty.
func NewCategoryClassifierFromFile(path string) (*CategoryClassifier, error) {
	if strings.TrimSpace(path) == "" {
		return NewCategoryClassifier()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category keywords: %w", err)
	}
	var keywords map[string][]string
	if err := yaml.Unmarshal(raw, &keywords); err != nil {
		return nil, fmt.Errorf("parse category keywords: %w", err)
	}
	if len(keywords) == 0 {
		return NewCategoryClassifier()
	}
	return newClassifierFromKeywords(keywords)
}

func newClassifierFromKeywords(keywords map[string][]string) (*CategoryClassifier, error) {
	buckets := make([]categoryBucket, 0, len(keywords))
	for name, words := range keywords {
		if len(words) == 0 {
			continue
		}
		escaped := make([]string, 0, len(words))
		for _, word := range words {
			word = strings.TrimSpace(word)
			if word == "" {
				continue
			}
			escaped = append(escaped, regexp.QuoteMeta(strings.ToLower(word)))
		}
		if len(escaped) == 0 {
			continue
		}
		pattern, err := regexp.Compile(`\b(` + strings.Join(escaped, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("compile category pattern %q: %w", name, err)
		}
		buckets = append(buckets, categoryBucket{name: name, pattern: pattern})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].name < buckets[j].name })
	return &CategoryClassifier{buckets: buckets}, nil
}

// Classify returns the first matching bucket name, or "" when nothing matches.
func (c *CategoryClassifier) Classify(query string) string {
	if c == nil {
		return ""
	}
	lowered := strings.ToLower(query)
	for _, bucket := range c.buckets {
		if bucket.pattern.MatchString(lowered) {
			return bucket.name
		}
	}
	return ""
}
