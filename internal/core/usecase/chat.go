package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/core/ports"
)

const (
	greetingResponse = "Hello! I'm your news assistant. Ask me about recent news and I'll dig through the latest articles for you."
	promptResponse   = "Could you give me a bit more to work with? Try asking about a topic, for example \"What's the latest in technology?\""
	buildingResponse = "I'm still reading through the news corpus. Give me a few minutes and ask again."
	degradedResponse = "I'm having trouble reaching my knowledge services right now. Please try again in a few seconds."
)

type ChatConfig struct {
	TopK                int
	SimilarityThreshold float64
	MinPassageWords     int
}

// ChatUseCase is the retrieval-augmented answer orchestrator: greeting
// short-circuit, answer cache, retrieve, filter, generate.
type ChatUseCase struct {
	embedder   ports.Embedder
	index      ports.VectorIndex
	generator  ports.Generator
	answers    ports.AnswerCache
	cache      ports.KeyValueCache
	classifier *CategoryClassifier
	cfg        ChatConfig

	initMu      sync.Mutex
	initialized bool
}

func NewChatUseCase(
	embedder ports.Embedder,
	index ports.VectorIndex,
	generator ports.Generator,
	answers ports.AnswerCache,
	cache ports.KeyValueCache,
	classifier *CategoryClassifier,
	cfg ChatConfig,
) *ChatUseCase {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = defaultSimilarityThreshold
	}
	if cfg.MinPassageWords <= 0 {
		cfg.MinPassageWords = defaultMinPassageWords
	}
	return &ChatUseCase{
		embedder:   embedder,
		index:      index,
		generator:  generator,
		answers:    answers,
		cache:      cache,
		classifier: classifier,
		cfg:        cfg,
	}
}

// Respond runs the full pipeline for one query. Transient downstream
// failures and an empty knowledge base degrade to friendly fallback answers;
// validation failures propagate as fatal for this request only.
func (uc *ChatUseCase) Respond(ctx context.Context, query string) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return fallbackAnswer(promptResponse), nil
	}

	if isGreeting(query) {
		return fallbackAnswer(greetingResponse), nil
	}

	if len(query) < 2 {
		return fallbackAnswer(promptResponse), nil
	}

	if cached := uc.cachedAnswer(ctx, query); cached != nil {
		return cached, nil
	}

	if err := uc.ensureInitialized(ctx); err != nil {
		if domain.IsKind(err, domain.ErrNotInitialized) {
			return fallbackAnswer(buildingResponse), nil
		}
		if domain.IsKind(err, domain.ErrUnavailable) {
			return fallbackAnswer(degradedResponse), nil
		}
		return nil, err
	}

	answer, err := uc.answerFromKnowledge(ctx, query)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnavailable) {
			slog.Warn("chat_degraded", "error", err)
			return fallbackAnswer(degradedResponse), nil
		}
		return nil, err
	}

	uc.storeAnswer(ctx, query, answer)
	return answer, nil
}

func (uc *ChatUseCase) answerFromKnowledge(ctx context.Context, query string) (*domain.Answer, error) {
	queryVector, err := uc.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Request double the final budget so filtering has headroom.
	candidates, err := uc.index.Search(ctx, queryVector, uc.cfg.TopK*2)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	filtered := filterCandidates(candidates, query, uc.cfg.TopK, uc.cfg.SimilarityThreshold, uc.cfg.MinPassageWords)
	categoryHint := uc.classifier.Classify(query)

	text, err := uc.generator.Generate(ctx, buildAnswerPrompt(query, filtered, categoryHint))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]domain.SourceRef, 0, len(filtered))
	for _, candidate := range filtered {
		sources = append(sources, domain.SourceRef{
			Title:  candidate.Title,
			Source: candidate.Source,
			Score:  candidate.Score,
		})
	}

	return &domain.Answer{
		Text:         text,
		Sources:      sources,
		ContextCount: len(filtered),
	}, nil
}

// ensureInitialized verifies the collection holds indexed passages. The check
// runs until it succeeds once, then is remembered for the process lifetime.
func (uc *ChatUseCase) ensureInitialized(ctx context.Context) error {
	uc.initMu.Lock()
	done := uc.initialized
	uc.initMu.Unlock()
	if done {
		return nil
	}

	stats, err := uc.index.CollectionStats(ctx)
	if err != nil {
		return err
	}
	if stats.PointsCount == 0 {
		return domain.WrapError(domain.ErrNotInitialized, "respond", fmt.Errorf("collection has zero points"))
	}

	uc.initMu.Lock()
	uc.initialized = true
	uc.initMu.Unlock()
	return nil
}

// cachedAnswer is best-effort: a cache outage degrades to a miss.
func (uc *ChatUseCase) cachedAnswer(ctx context.Context, query string) *domain.Answer {
	if uc.answers == nil {
		return nil
	}
	cached, err := uc.answers.GetAnswer(ctx, query)
	if err != nil {
		slog.Warn("answer_cache_get_failed", "error", err)
		return nil
	}
	if cached == nil {
		return nil
	}
	return &domain.Answer{
		Text:         cached.Answer,
		Sources:      cached.Sources,
		ContextCount: len(cached.Sources),
		Cached:       true,
	}
}

func (uc *ChatUseCase) storeAnswer(ctx context.Context, query string, answer *domain.Answer) {
	if uc.answers == nil || answer == nil || answer.Fallback {
		return
	}
	err := uc.answers.PutAnswer(ctx, query, domain.CachedAnswer{
		Answer:   answer.Text,
		Sources:  answer.Sources,
		CachedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("answer_cache_put_failed", "error", err)
	}
}

// Status reports pipeline readiness for the status endpoint.
func (uc *ChatUseCase) Status(ctx context.Context) (domain.PipelineStatus, error) {
	services := map[string]string{
		"embedding":  "configured",
		"generation": "configured",
	}

	if uc.cache != nil {
		if err := uc.cache.Ping(ctx); err != nil {
			services["cache"] = "down"
		} else {
			services["cache"] = "up"
		}
	}

	stats, err := uc.index.CollectionStats(ctx)
	if err != nil {
		services["vector"] = "down"
		return domain.PipelineStatus{
			Initialized: false,
			Services:    services,
		}, nil
	}
	services["vector"] = "up"

	return domain.PipelineStatus{
		Initialized: stats.PointsCount > 0,
		VectorDatabase: domain.VectorStatus{
			Connected:   true,
			PointsCount: stats.PointsCount,
		},
		Services: services,
	}, nil
}

func fallbackAnswer(text string) *domain.Answer {
	return &domain.Answer{
		Text:     text,
		Sources:  []domain.SourceRef{},
		Fallback: true,
	}
}
