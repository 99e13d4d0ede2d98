package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("http://localhost", "", "model", Options{})
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want configuration error", err)
	}
}

func TestGenerateJoinsParts(t *testing.T) {
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{
					{"text": "Hello "},
					{"text": "world."},
				}}},
			},
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "secret", "test-model", Options{Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	text, err := client.Generate(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "Hello world." {
		t.Fatalf("text = %q, want joined parts", text)
	}
	if gotPath != "/v1beta/models/test-model:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("api key header = %q", gotKey)
	}
}

func TestGenerateEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	client, err := New(server.URL, "key", "model", Options{Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Generate(context.Background(), "prompt")
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestGenerateRetriesThenUnavailable(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(server.URL, "key", "model", Options{Executor: testExecutor()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Generate(context.Background(), "prompt")
	if !domain.IsKind(err, domain.ErrUnavailable) {
		t.Fatalf("error = %v, want unavailable", err)
	}
	if requests != 3 {
		t.Fatalf("requests = %d, want 3 bounded attempts", requests)
	}
}
