package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/newschat/internal/core/ports"
)

// RebuildUseCase rebuilds the knowledge base: drop and recreate the
// collection, re-embed every passage, upsert. Requested over the queue so the
// API returns immediately and the worker does the heavy lifting.
type RebuildUseCase struct {
	source   ports.PassageSource
	embedder ports.Embedder
	index    ports.VectorIndex
	queue    ports.RebuildQueue
}

func NewRebuildUseCase(
	source ports.PassageSource,
	embedder ports.Embedder,
	index ports.VectorIndex,
	queue ports.RebuildQueue,
) *RebuildUseCase {
	return &RebuildUseCase{
		source:   source,
		embedder: embedder,
		index:    index,
		queue:    queue,
	}
}

// RequestRebuild publishes a rebuild job and returns its id.
func (uc *RebuildUseCase) RequestRebuild(ctx context.Context) (string, error) {
	jobID := uuid.NewString()
	if err := uc.queue.PublishRebuildRequested(ctx, jobID); err != nil {
		return "", fmt.Errorf("publish rebuild job: %w", err)
	}
	return jobID, nil
}

// RunRebuild executes a rebuild job end to end. The collection is replaced
// wholesale — passages are never partially updated.
func (uc *RebuildUseCase) RunRebuild(ctx context.Context, jobID string) error {
	started := time.Now()

	passages, err := uc.source.LoadPassages(ctx)
	if err != nil {
		return fmt.Errorf("load passages: %w", err)
	}

	kept := passages[:0]
	for _, passage := range passages {
		if strings.TrimSpace(passage.Text) == "" {
			continue
		}
		kept = append(kept, passage)
	}
	if len(kept) == 0 {
		return fmt.Errorf("rebuild %s: passage source is empty", jobID)
	}

	if err := uc.index.Recreate(ctx); err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}

	texts := make([]string, len(kept))
	for i, passage := range kept {
		texts[i] = passage.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(kept) {
		return fmt.Errorf("rebuild %s: embedded %d of %d passages", jobID, len(vectors), len(kept))
	}

	if err := uc.index.Upsert(ctx, kept, vectors); err != nil {
		return fmt.Errorf("upsert passages: %w", err)
	}

	slog.Info("rebuild_completed",
		"job_id", jobID,
		"passages", len(kept),
		"duration_ms", float64(time.Since(started).Microseconds())/1000.0,
	)
	return nil
}
