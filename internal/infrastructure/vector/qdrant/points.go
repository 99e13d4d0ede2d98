package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/infrastructure/embedding/jina"
)

const (
	// Batch sizing scales down for very large jobs to stay under the
	// service's request-size limits.
	defaultUpsertBatch   = 100
	largeVolumeThreshold = 2000
	largeVolumeBatch     = 50
	interBatchDelay      = 100 * time.Millisecond
)

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Upsert indexes passages with their vectors in acknowledged batches. Records
// whose vector fails the finiteness/dimension check are dropped before
// sending; each batch waits for server acknowledgment before the next.
func (c *Client) Upsert(ctx context.Context, passages []domain.Passage, vectors [][]float32) error {
	if len(passages) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(passages) != len(vectors) {
		return domain.WrapError(domain.ErrValidation, "upsert",
			fmt.Errorf("passages/vectors mismatch: %d vs %d", len(passages), len(vectors)))
	}
	if err := c.ensureLive(ctx); err != nil {
		return err
	}
	if err := c.EnsureCollection(ctx); err != nil {
		return err
	}

	points := make([]point, 0, len(passages))
	for i, passage := range passages {
		if err := jina.ValidateVector(vectors[i], c.dimension); err != nil {
			slog.Warn("upsert_skipping_invalid_vector", "passage_id", passage.ID, "error", err)
			continue
		}
		id := passage.ID
		if id == "" {
			id = uuid.NewString()
		}
		points = append(points, point{
			ID:     id,
			Vector: vectors[i],
			Payload: map[string]any{
				"text":          passage.Text,
				"title":         passage.Title,
				"source":        passage.Source,
				"url":           passage.URL,
				"published_at":  passage.PublishedAt,
				"category":      passage.Category,
				"word_count":    passage.WordCount,
				"quality_score": passage.QualityScore,
			},
		})
	}
	if len(points) == 0 {
		return nil
	}

	batchSize := defaultUpsertBatch
	if len(points) >= largeVolumeThreshold {
		batchSize = largeVolumeBatch
	}

	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}

		request := map[string]any{"points": points[start:end]}
		err := c.executor.Execute(ctx, "qdrant.upsert", func(callCtx context.Context) error {
			return c.doJSON(callCtx, http.MethodPut, "/collections/"+c.collection+"/points?wait=true", request, nil, "upsert")
		}, classifyQdrantError)
		if err != nil {
			c.markDown()
			return wrapUnavailableIfNeeded("upsert points", err)
		}

		if end < len(points) {
			if err := sleepCtx(ctx, interBatchDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// Search returns up to limit candidates ordered by descending similarity.
// An invalid query vector is a fatal validation error, never coerced.
func (c *Client) Search(ctx context.Context, queryVector []float32, limit int) ([]domain.RetrievalCandidate, error) {
	if err := jina.ValidateVector(queryVector, c.dimension); err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "search query vector", err)
	}
	if limit <= 0 {
		limit = 10
	}
	if err := c.ensureLive(ctx); err != nil {
		return nil, err
	}

	request := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}

	var response struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := c.executor.Execute(ctx, "qdrant.search", func(callCtx context.Context) error {
		return c.doJSON(callCtx, http.MethodPost, "/collections/"+c.collection+"/points/search", request, &response, "search")
	}, classifyQdrantError)
	if err != nil {
		c.markDown()
		return nil, wrapUnavailableIfNeeded("search points", err)
	}

	out := make([]domain.RetrievalCandidate, 0, len(response.Result))
	for _, r := range response.Result {
		out = append(out, domain.RetrievalCandidate{
			Text:     getStringPayload(r.Payload, "text"),
			Title:    getStringPayload(r.Payload, "title"),
			Source:   getStringPayload(r.Payload, "source"),
			URL:      getStringPayload(r.Payload, "url"),
			Category: getStringPayload(r.Payload, "category"),
			Score:    r.Score,
		})
	}
	return out, nil
}
