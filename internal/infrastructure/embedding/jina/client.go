package jina

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/infrastructure/resilience"
)

const (
	defaultBatchSize = 12
	defaultTimeout   = 75 * time.Second

	// Jobs spanning many batches run with the short pause to keep total
	// duration bounded; small jobs can afford the polite longer pause.
	largeJobBatchDelay = 200 * time.Millisecond
	smallJobBatchDelay = 500 * time.Millisecond
	largeJobThreshold  = 10
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	batchSize  int
	batchDelay func(totalBatches int) time.Duration
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	BatchSize int
	Timeout   time.Duration
	Executor  *resilience.Executor
}

func New(baseURL, apiKey, model string, dimension int, options Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "embedding client", fmt.Errorf("api key is required"))
	}
	if dimension <= 0 {
		return nil, domain.WrapError(domain.ErrConfiguration, "embedding client", fmt.Errorf("vector dimension must be positive"))
	}

	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	executor := options.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
		batchDelay: func(totalBatches int) time.Duration {
			if totalBatches >= largeJobThreshold {
				return largeJobBatchDelay
			}
			return smallJobBatchDelay
		},
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}, nil
}

func (c *Client) Dimension() int {
	return c.dimension
}

// Embed converts texts into vectors. Inputs that are empty after cleaning are
// dropped; the returned slice holds one vector per surviving input, in order.
// An entirely-empty input set yields an empty result, not an error.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	cleaned := cleanInputs(texts)
	if len(cleaned) == 0 {
		return [][]float32{}, nil
	}

	totalBatches := (len(cleaned) + c.batchSize - 1) / c.batchSize
	vectors := make([][]float32, 0, len(cleaned))

	for start := 0; start < len(cleaned); start += c.batchSize {
		end := start + c.batchSize
		if end > len(cleaned) {
			end = len(cleaned)
		}

		batch, err := c.embedBatch(ctx, cleaned[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)

		if end < len(cleaned) {
			if err := sleepCtx(ctx, c.batchDelay(totalBatches)); err != nil {
				return nil, err
			}
		}
	}

	return vectors, nil
}

func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "embed one", fmt.Errorf("input was empty after cleaning"))
	}
	return vectors[0], nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	request := map[string]any{
		"model": c.model,
		"input": texts,
	}

	vectors, err := resilience.Do(ctx, c.executor, "embedding.embed", func(callCtx context.Context) ([][]float32, error) {
		var response struct {
			Data []struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			} `json:"data"`
		}
		if err := c.postJSON(callCtx, "/v1/embeddings", request, &response, "embed"); err != nil {
			return nil, err
		}

		out := make([][]float32, len(texts))
		for _, item := range response.Data {
			if item.Index < 0 || item.Index >= len(texts) {
				return nil, domain.WrapError(domain.ErrValidation, "embed", fmt.Errorf("response index %d out of range", item.Index))
			}
			out[item.Index] = item.Embedding
		}
		return out, nil
	}, classifyEmbeddingError)
	if err != nil {
		return nil, wrapUnavailableIfNeeded("embed", err)
	}

	for i, vector := range vectors {
		if err := ValidateVector(vector, c.dimension); err != nil {
			return nil, domain.WrapError(domain.ErrValidation, fmt.Sprintf("embed result %d", i), err)
		}
	}
	return vectors, nil
}

// ValidateVector enforces the embedding invariant: exactly dimension finite
// components. A violation would corrupt similarity search, so it is fatal for
// the whole call rather than silently dropped.
func ValidateVector(vector []float32, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("expected %d components, got %d", dimension, len(vector))
	}
	for i, component := range vector {
		f := float64(component)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("component %d is not finite", i)
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
