package usecase

import (
	"sort"
	"strings"

	"github.com/avolkov/newschat/internal/core/domain"
)

const (
	defaultSimilarityThreshold = 0.7
	defaultMinPassageWords     = 20
	minQueryTokenLength        = 2
)

// filterCandidates applies the relevance gate on top of raw vector similarity:
// score threshold, minimum passage length, and a lexical-overlap check that
// suppresses semantically-close but topically-irrelevant matches. Pure
// function of its inputs: the same candidate set filters to the same ordered
// result every time.
func filterCandidates(
	candidates []domain.RetrievalCandidate,
	query string,
	topK int,
	threshold float64,
	minWords int,
) []domain.RetrievalCandidate {
	if topK <= 0 {
		topK = 5
	}
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	if minWords <= 0 {
		minWords = defaultMinPassageWords
	}

	tokens := queryTokens(query)

	kept := make([]domain.RetrievalCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Score < threshold {
			continue
		}
		if len(strings.Fields(candidate.Text)) < minWords {
			continue
		}
		if len(tokens) > 0 && !containsAnyToken(candidate.Text, tokens) {
			continue
		}
		kept = append(kept, candidate)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}

// queryTokens extracts lowercase words longer than two characters.
func queryTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.Trim(field, ".,!?;:\"'()[]")
		if len(token) > minQueryTokenLength {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func containsAnyToken(text string, tokens []string) bool {
	lowered := strings.ToLower(text)
	for _, token := range tokens {
		if strings.Contains(lowered, token) {
			return true
		}
	}
	return false
}
