package usecase

import (
	"reflect"
	"testing"

	"github.com/avolkov/newschat/internal/core/domain"
)

func candidate(title string, score float64, text string) domain.RetrievalCandidate {
	return domain.RetrievalCandidate{Title: title, Source: "wire", Score: score, Text: text}
}

func longText(topic string) string {
	return topic + " coverage continues as analysts review the quarterly numbers and regulators weigh in on the announced merger while competitors respond with their own pricing moves across the regional markets"
}

func TestFilterCandidatesThresholdAndOrder(t *testing.T) {
	candidates := []domain.RetrievalCandidate{
		candidate("mid", 0.83, longText("technology")),
		candidate("low", 0.4, longText("technology")),
		candidate("high", 0.91, longText("technology")),
	}

	got := filterCandidates(candidates, "technology merger", 5, 0.7, 20)
	if len(got) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(got))
	}
	if got[0].Title != "high" || got[1].Title != "mid" {
		t.Fatalf("order = [%s %s], want [high mid]", got[0].Title, got[1].Title)
	}
}

func TestFilterCandidatesDropsShortPassages(t *testing.T) {
	candidates := []domain.RetrievalCandidate{
		candidate("short", 0.95, "technology merger announced today"),
		candidate("long", 0.8, longText("technology")),
	}

	got := filterCandidates(candidates, "technology merger", 5, 0.7, 20)
	if len(got) != 1 || got[0].Title != "long" {
		t.Fatalf("expected only the long passage, got %+v", got)
	}
}

func TestFilterCandidatesLexicalOverlapGate(t *testing.T) {
	candidates := []domain.RetrievalCandidate{
		candidate("on-topic", 0.8, longText("cricket")),
		candidate("off-topic", 0.85, longText("technology")),
	}

	got := filterCandidates(candidates, "cricket tournament results", 5, 0.7, 20)
	if len(got) != 1 || got[0].Title != "on-topic" {
		t.Fatalf("lexical gate failed, got %+v", got)
	}
}

func TestFilterCandidatesTopKTruncation(t *testing.T) {
	var candidates []domain.RetrievalCandidate
	for i := 0; i < 8; i++ {
		candidates = append(candidates, candidate("p", 0.75+float64(i)*0.01, longText("technology")))
	}

	got := filterCandidates(candidates, "technology", 3, 0.7, 20)
	if len(got) != 3 {
		t.Fatalf("kept %d candidates, want topK=3", len(got))
	}
	if got[0].Score < got[1].Score || got[1].Score < got[2].Score {
		t.Fatalf("truncation must keep the highest scores: %+v", got)
	}
}

func TestFilterCandidatesDeterministic(t *testing.T) {
	candidates := []domain.RetrievalCandidate{
		candidate("a", 0.8, longText("technology")),
		candidate("b", 0.8, longText("technology")),
		candidate("c", 0.9, longText("technology")),
	}

	first := filterCandidates(candidates, "technology", 5, 0.7, 20)
	second := filterCandidates(candidates, "technology", 5, 0.7, 20)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same inputs must filter identically:\n%+v\n%+v", first, second)
	}
	// Stable sort keeps the original relative order of equal scores.
	if first[0].Title != "c" || first[1].Title != "a" || first[2].Title != "b" {
		t.Fatalf("unexpected order: %+v", first)
	}
}

func TestQueryTokensDropShortWords(t *testing.T) {
	tokens := queryTokens("What is the AI news in tech?")
	want := []string{"what", "the", "news", "tech"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}
