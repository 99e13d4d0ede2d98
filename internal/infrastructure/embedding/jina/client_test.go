package jina

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	})
}

func embeddingServer(t *testing.T, dimension int, hook func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hook != nil {
			hook(r)
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			vector := make([]float32, dimension)
			for j := range vector {
				vector[j] = float32(i + 1)
			}
			data[i] = item{Index: i, Embedding: vector}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("http://localhost", "", "model", 4, Options{})
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration error", err)
	}
}

func TestNewRequiresPositiveDimension(t *testing.T) {
	_, err := New("http://localhost", "key", "model", 0, Options{})
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration error", err)
	}
}

func TestEmbedHappyPath(t *testing.T) {
	var gotAuth string
	server := embeddingServer(t, 4, func(r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	})
	defer server.Close()

	client, err := New(server.URL, "secret", "test-model", 4, Options{Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	vectors, err := client.Embed(context.Background(), []string{"first passage text", "second passage text"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if len(vectors[0]) != 4 {
		t.Fatalf("vector dimension = %d, want 4", len(vectors[0]))
	}
	if vectors[0][0] != 1 || vectors[1][0] != 2 {
		t.Fatalf("vectors out of order: %v", vectors)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q, want bearer token", gotAuth)
	}
}

func TestEmbedBatchesLargeInput(t *testing.T) {
	var requests int
	server := embeddingServer(t, 2, func(*http.Request) { requests++ })
	defer server.Close()

	client, err := New(server.URL, "key", "model", 2, Options{BatchSize: 2, Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	client.batchDelay = func(int) time.Duration { return 0 }

	vectors, err := client.Embed(context.Background(), []string{
		"passage number one", "passage number two", "passage number three",
	})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	if requests != 2 {
		t.Fatalf("requests = %d, want 2 batches", requests)
	}
}

func TestEmbedEmptyInputSkipsRequest(t *testing.T) {
	var requests int
	server := embeddingServer(t, 2, func(*http.Request) { requests++ })
	defer server.Close()

	client, err := New(server.URL, "key", "model", 2, Options{Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	vectors, err := client.Embed(context.Background(), []string{"", "   "})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 0 || requests != 0 {
		t.Fatalf("vectors=%d requests=%d, want 0/0", len(vectors), requests)
	}
}

func TestEmbedRetriesServerErrors(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(server.URL, "key", "model", 2, Options{Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Embed(context.Background(), []string{"some passage text"})
	if !domain.IsKind(err, domain.ErrUnavailable) {
		t.Fatalf("error = %v, want unavailable", err)
	}
	if requests != 3 {
		t.Fatalf("requests = %d, want 3 bounded attempts", requests)
	}
}

func TestEmbedClientErrorNotRetried(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := New(server.URL, "key", "model", 2, Options{Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Embed(context.Background(), []string{"some passage text"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrUnavailable) {
		t.Fatalf("client errors must not be reported as unavailable: %v", err)
	}
	if requests != 1 {
		t.Fatalf("requests = %d, want 1 (no retry)", requests)
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	server := embeddingServer(t, 3, nil)
	defer server.Close()

	client, err := New(server.URL, "key", "model", 4, Options{Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Embed(context.Background(), []string{"some passage text"})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestEmbedOneEmptyInput(t *testing.T) {
	server := embeddingServer(t, 2, nil)
	defer server.Close()

	client, err := New(server.URL, "key", "model", 2, Options{Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.EmbedOne(context.Background(), "   ")
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestValidateVector(t *testing.T) {
	if err := ValidateVector([]float32{1, 2, 3}, 3); err != nil {
		t.Fatalf("valid vector rejected: %v", err)
	}
	if err := ValidateVector([]float32{1, 2}, 3); err == nil {
		t.Fatalf("wrong dimension accepted")
	}
	if err := ValidateVector([]float32{1, float32(math.NaN()), 3}, 3); err == nil {
		t.Fatalf("NaN component accepted")
	}
	if err := ValidateVector([]float32{1, float32(math.Inf(1)), 3}, 3); err == nil {
		t.Fatalf("infinite component accepted")
	}
}

func TestCleanInputs(t *testing.T) {
	long := strings.Repeat("a", maxInputChars+100)
	cleaned := cleanInputs([]string{"  padded  ", "", long, "ai"})

	if len(cleaned) != 3 {
		t.Fatalf("got %d inputs, want 3 (empty dropped)", len(cleaned))
	}
	if cleaned[0] != "padded" {
		t.Fatalf("cleaned[0] = %q, want trimmed", cleaned[0])
	}
	if len(cleaned[1]) != maxInputChars {
		t.Fatalf("long input length = %d, want truncated to %d", len(cleaned[1]), maxInputChars)
	}
	if cleaned[2] != fmt.Sprintf("News topic query: %s", "ai") {
		t.Fatalf("short input not expanded: %q", cleaned[2])
	}
}

func TestCleanInputsTruncatesOnRuneBoundary(t *testing.T) {
	// Place a two-byte rune across the truncation point.
	long := strings.Repeat("a", maxInputChars-1) + strings.Repeat("é", 60)
	cleaned := cleanInputs([]string{long})

	if len(cleaned) != 1 {
		t.Fatalf("got %d inputs, want 1", len(cleaned))
	}
	if !utf8.ValidString(cleaned[0]) {
		t.Fatalf("truncated input is not valid UTF-8")
	}
	if len(cleaned[0]) > maxInputChars {
		t.Fatalf("truncated length = %d, want <= %d", len(cleaned[0]), maxInputChars)
	}
}
