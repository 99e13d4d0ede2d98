package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/core/ports"
)

const (
	answerKeyPrefix = "answer:"
	apiKeyPrefix    = "api:"
)

// AnswerKey derives the cache key for a query: a content hash of the
// normalized text, never the raw text, so key length stays bounded and
// delimiters cannot collide.
func AnswerKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(query))), " ")
	sum := sha256.Sum256([]byte(normalized))
	return answerKeyPrefix + hex.EncodeToString(sum[:])
}

// AnswerStore layers the answer and API-response cache tiers, plus tier
// maintenance, on the generic key-value surface.
type AnswerStore struct {
	cache ports.KeyValueCache
}

func NewAnswerStore(cache ports.KeyValueCache) *AnswerStore {
	return &AnswerStore{cache: cache}
}

// GetAnswer returns the cached answer for a query, or nil on miss.
func (s *AnswerStore) GetAnswer(ctx context.Context, query string) (*domain.CachedAnswer, error) {
	var cached domain.CachedAnswer
	found, err := s.cache.GetJSON(ctx, AnswerKey(query), &cached)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cached, nil
}

// PutAnswer stores a generated answer under the long TTL tier. A newer entry
// for the same key supersedes the old one wholesale.
func (s *AnswerStore) PutAnswer(ctx context.Context, query string, answer domain.CachedAnswer) error {
	if answer.CachedAt.IsZero() {
		answer.CachedAt = time.Now().UTC()
	}
	return s.cache.SetJSON(ctx, AnswerKey(query), answer, TTLLong)
}

// GetAPIResponse / PutAPIResponse cover the short-TTL tier for transient
// upstream API payloads.
func (s *AnswerStore) GetAPIResponse(ctx context.Context, key string, out any) (bool, error) {
	return s.cache.GetJSON(ctx, apiKeyPrefix+key, out)
}

func (s *AnswerStore) PutAPIResponse(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLShort
	}
	return s.cache.SetJSON(ctx, apiKeyPrefix+key, value, ttl)
}

// Invalidate deletes every key under a prefix. Used to flush stale answers
// after an index rebuild.
func (s *AnswerStore) Invalidate(ctx context.Context, prefix string) (int, error) {
	keys, err := s.cache.Keys(ctx, prefix+"*")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Stats reports key counts per cache tier prefix.
func (s *AnswerStore) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)
	for _, prefix := range []string{answerKeyPrefix, apiKeyPrefix, "session:"} {
		keys, err := s.cache.Keys(ctx, prefix+"*")
		if err != nil {
			return nil, err
		}
		stats[prefix] = len(keys)
	}
	return stats, nil
}
