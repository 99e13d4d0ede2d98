package bootstrap

import (
	"fmt"
	"time"

	"github.com/avolkov/newschat/internal/config"
	"github.com/avolkov/newschat/internal/core/ports"
	"github.com/avolkov/newschat/internal/core/usecase"
	"github.com/avolkov/newschat/internal/infrastructure/cache/redis"
	"github.com/avolkov/newschat/internal/infrastructure/corpus"
	"github.com/avolkov/newschat/internal/infrastructure/embedding/jina"
	"github.com/avolkov/newschat/internal/infrastructure/llm/gemini"
	"github.com/avolkov/newschat/internal/infrastructure/queue/nats"
	"github.com/avolkov/newschat/internal/infrastructure/ratelimit"
	"github.com/avolkov/newschat/internal/infrastructure/session"
	"github.com/avolkov/newschat/internal/infrastructure/vector/qdrant"
)

// Clients groups the external service clients an App depends on. Zero-value
// fields are constructed from the configuration; pre-set fields are used as
// given, which is how tests substitute doubles for the real services.
type Clients struct {
	Embedder  ports.Embedder
	Index     ports.VectorIndex
	Generator ports.Generator
	Cache     *redis.Client
	Queue     ports.RebuildQueue
	Source    ports.PassageSource
}

type App struct {
	Config config.Config

	Cache    *redis.Client
	Queue    ports.RebuildQueue
	Sessions ports.SessionDirectory
	Limiter  *ratelimit.Registry

	ChatUC         *usecase.ChatUseCase
	ConversationUC *usecase.ConversationUseCase
	RebuildUC      *usecase.RebuildUseCase

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	return NewWithClients(cfg, Clients{})
}

func NewWithClients(cfg config.Config, clients Clients) (*App, error) {
	embedder := clients.Embedder
	if embedder == nil {
		var err error
		embedder, err = jina.New(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension, jina.Options{})
		if err != nil {
			return nil, fmt.Errorf("init embedding client: %w", err)
		}
	}

	generator := clients.Generator
	if generator == nil {
		var err error
		generator, err = gemini.New(cfg.GenerationURL, cfg.GenerationAPIKey, cfg.GenerationModel, gemini.Options{})
		if err != nil {
			return nil, fmt.Errorf("init generation client: %w", err)
		}
	}

	index := clients.Index
	if index == nil {
		index = qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, cfg.EmbeddingDimension, qdrant.Options{})
	}

	cache := clients.Cache
	if cache == nil {
		cache = redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}

	queue := clients.Queue
	if queue == nil {
		var err error
		queue, err = nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("init rebuild queue: %w", err)
		}
	}

	source := clients.Source
	if source == nil {
		var err error
		source, err = corpus.NewFileSource(cfg.CorpusPath)
		if err != nil {
			return nil, fmt.Errorf("init passage source: %w", err)
		}
	}

	classifier, err := usecase.NewCategoryClassifierFromFile(cfg.CategoriesPath)
	if err != nil {
		return nil, fmt.Errorf("init category classifier: %w", err)
	}

	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	sessions := session.NewDirectory(cache, sessionTTL)

	limiter := ratelimit.NewRegistry(cfg.RateLimitPerMinute, time.Minute)

	answers := redis.NewAnswerStore(cache)
	chatUC := usecase.NewChatUseCase(embedder, index, generator, answers, cache, classifier, usecase.ChatConfig{
		TopK:                cfg.RAGTopK,
		SimilarityThreshold: cfg.SimilarityThreshold,
		MinPassageWords:     cfg.MinPassageWords,
	})
	conversationUC := usecase.NewConversationUseCase(chatUC, sessions)
	rebuildUC := usecase.NewRebuildUseCase(source, embedder, index, queue)

	app := &App{
		Config: cfg,

		Cache:    cache,
		Queue:    queue,
		Sessions: sessions,
		Limiter:  limiter,

		ChatUC:         chatUC,
		ConversationUC: conversationUC,
		RebuildUC:      rebuildUC,

		closeFn: func() {
			if closer, ok := queue.(interface{ Close() }); ok {
				closer.Close()
			}
			_ = cache.Close()
		},
	}
	return app, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
