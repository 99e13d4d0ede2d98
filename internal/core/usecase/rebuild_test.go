package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/avolkov/newschat/internal/core/domain"
)

type sourceFake struct {
	passages []domain.Passage
	err      error
}

func (f *sourceFake) LoadPassages(context.Context) ([]domain.Passage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

type rebuildIndexFake struct {
	indexFake
	recreated int
	upserted  []domain.Passage
}

func (f *rebuildIndexFake) Recreate(context.Context) error {
	f.recreated++
	return nil
}

func (f *rebuildIndexFake) Upsert(_ context.Context, passages []domain.Passage, _ [][]float32) error {
	f.upserted = passages
	return nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishRebuildRequested(_ context.Context, jobID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, jobID)
	return nil
}

func (f *queueFake) SubscribeRebuildRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

func TestRequestRebuildPublishesJob(t *testing.T) {
	queue := &queueFake{}
	uc := NewRebuildUseCase(&sourceFake{}, &embedderFake{}, &rebuildIndexFake{}, queue)

	jobID, err := uc.RequestRebuild(context.Background())
	if err != nil {
		t.Fatalf("RequestRebuild() error = %v", err)
	}
	if jobID == "" {
		t.Fatalf("expected a job id")
	}
	if len(queue.published) != 1 || queue.published[0] != jobID {
		t.Fatalf("published = %v, want [%s]", queue.published, jobID)
	}
}

func TestRequestRebuildPublishError(t *testing.T) {
	queue := &queueFake{err: errors.New("nats down")}
	uc := NewRebuildUseCase(&sourceFake{}, &embedderFake{}, &rebuildIndexFake{}, queue)

	if _, err := uc.RequestRebuild(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunRebuildReplacesCollection(t *testing.T) {
	source := &sourceFake{passages: []domain.Passage{
		{ID: "1", Text: "first passage"},
		{ID: "2", Text: "   "},
		{ID: "3", Text: "third passage"},
	}}
	index := &rebuildIndexFake{}
	embedder := &embedderFake{vector: []float32{0.1, 0.2}}
	uc := NewRebuildUseCase(source, embedder, index, &queueFake{})

	if err := uc.RunRebuild(context.Background(), "job-1"); err != nil {
		t.Fatalf("RunRebuild() error = %v", err)
	}
	if index.recreated != 1 {
		t.Fatalf("recreated = %d, want 1", index.recreated)
	}
	if len(index.upserted) != 2 {
		t.Fatalf("upserted %d passages, want 2 (blank text dropped)", len(index.upserted))
	}
	if index.upserted[0].ID != "1" || index.upserted[1].ID != "3" {
		t.Fatalf("unexpected upserted ids: %+v", index.upserted)
	}
}

func TestRunRebuildEmptySource(t *testing.T) {
	uc := NewRebuildUseCase(&sourceFake{}, &embedderFake{vector: []float32{0.1}}, &rebuildIndexFake{}, &queueFake{})

	if err := uc.RunRebuild(context.Background(), "job-1"); err == nil {
		t.Fatalf("expected error for an empty passage source")
	}
}

func TestRunRebuildEmbedFailureLeavesNoUpsert(t *testing.T) {
	source := &sourceFake{passages: []domain.Passage{{ID: "1", Text: "text"}}}
	index := &rebuildIndexFake{}
	embedder := &embedderFake{err: errors.New("embedding down")}
	uc := NewRebuildUseCase(source, embedder, index, &queueFake{})

	if err := uc.RunRebuild(context.Background(), "job-1"); err == nil {
		t.Fatalf("expected error")
	}
	if index.upserted != nil {
		t.Fatalf("nothing must be upserted after an embed failure")
	}
}
