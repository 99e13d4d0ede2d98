package ports

import (
	"context"
	"time"

	"github.com/avolkov/newschat/internal/core/domain"
)

// Embedder turns texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// VectorIndex owns the passage collection in the similarity-search service.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, passages []domain.Passage, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievalCandidate, error)
	CollectionStats(ctx context.Context) (domain.CollectionStats, error)
	Clear(ctx context.Context) error
	Recreate(ctx context.Context) error
}

// Generator produces the final answer text from an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AnswerCache stores generated answers keyed by normalized query text.
type AnswerCache interface {
	GetAnswer(ctx context.Context, query string) (*domain.CachedAnswer, error)
	PutAnswer(ctx context.Context, query string, answer domain.CachedAnswer) error
}

// KeyValueCache is the generic tiered-TTL cache surface backed by Redis.
type KeyValueCache interface {
	Ping(ctx context.Context) error
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Touch(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// SessionDirectory manages session identity, transcripts, and sliding expiry.
type SessionDirectory interface {
	Create(ctx context.Context, sessionID string) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	AppendMessage(ctx context.Context, sessionID string, msg domain.ChatMessage) (*domain.Session, error)
	History(ctx context.Context, sessionID string) ([]domain.ChatMessage, bool, error)
	Clear(ctx context.Context, sessionID string) (bool, error)
	ListActive(ctx context.Context) ([]string, error)
}

// RebuildQueue publishes/consumes knowledge-base rebuild jobs.
type RebuildQueue interface {
	PublishRebuildRequested(ctx context.Context, jobID string) error
	SubscribeRebuildRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// PassageSource supplies the crawler's output: passages ready for indexing.
type PassageSource interface {
	LoadPassages(ctx context.Context) ([]domain.Passage, error)
}
