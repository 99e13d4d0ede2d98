package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/avolkov/newschat/internal/core/domain"
)

// FileSource reads the crawler's output: a JSON array of passages with
// metadata. Ingestion itself (feeds, scraping, chunking) happens outside this
// service; the file is its handoff format.
type FileSource struct {
	path string
}

func NewFileSource(path string) (*FileSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "passage source", fmt.Errorf("corpus path is required"))
	}
	return &FileSource{path: path}, nil
}

func (s *FileSource) LoadPassages(ctx context.Context) ([]domain.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var passages []domain.Passage
	if err := json.Unmarshal(raw, &passages); err != nil {
		return nil, domain.WrapError(domain.ErrValidation, "parse corpus file", err)
	}

	for i := range passages {
		if passages[i].ID == "" {
			passages[i].ID = uuid.NewString()
		}
		if passages[i].WordCount == 0 {
			passages[i].WordCount = len(strings.Fields(passages[i].Text))
		}
	}
	return passages, nil
}
