package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NATSURL     string
	NATSSubject string

	EmbeddingURL       string
	EmbeddingAPIKey    string
	EmbeddingModel     string
	EmbeddingDimension int

	GenerationURL    string
	GenerationAPIKey string
	GenerationModel  string

	QdrantURL        string
	QdrantCollection string

	CorpusPath     string
	CategoriesPath string

	RAGTopK             int
	SimilarityThreshold float64
	MinPassageWords     int

	SessionTTLMinutes int

	RateLimitPerMinute int

	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		RedisAddr:     mustEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: mustEnv("REDIS_PASSWORD", ""),
		RedisDB:       mustEnvInt("REDIS_DB", 0),

		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "index.rebuild"),

		EmbeddingURL:       mustEnv("EMBEDDING_URL", "https://api.jina.ai"),
		EmbeddingAPIKey:    mustEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:     mustEnv("EMBEDDING_MODEL", "jina-embeddings-v2-base-en"),
		EmbeddingDimension: mustEnvInt("EMBEDDING_DIMENSION", 768),

		GenerationURL:    mustEnv("GENERATION_URL", "https://generativelanguage.googleapis.com"),
		GenerationAPIKey: mustEnv("GENERATION_API_KEY", ""),
		GenerationModel:  mustEnv("GENERATION_MODEL", "gemini-1.5-flash"),

		QdrantURL:        mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: mustEnv("QDRANT_COLLECTION", "news_passages"),

		CorpusPath:     mustEnv("CORPUS_PATH", "./data/passages.json"),
		CategoriesPath: mustEnv("CATEGORIES_PATH", ""),

		RAGTopK:             mustEnvInt("RAG_TOP_K", 5),
		SimilarityThreshold: mustEnvFloat("SIMILARITY_THRESHOLD", 0.7),
		MinPassageWords:     mustEnvInt("MIN_PASSAGE_WORDS", 20),

		SessionTTLMinutes: mustEnvInt("SESSION_TTL_MINUTES", 30),

		RateLimitPerMinute: mustEnvInt("RATE_LIMIT_PER_MINUTE", 10),

		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
