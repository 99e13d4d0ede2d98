package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/infrastructure/resilience"
)

// Client calls the external text-generation service. The contract is narrow:
// one assembled prompt string in, plain generated text out.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(baseURL, apiKey, model string, options Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrConfiguration, "generation client", fmt.Errorf("api key is required"))
	}

	timeout := options.Timeout
	if timeout <= 0 {
		// No dedicated generation deadline beyond the transport's own limit;
		// a hung call blocks only the single query's task.
		timeout = 120 * time.Second
	}
	executor := options.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": prompt},
				},
			},
		},
	}

	text, err := resilience.Do(ctx, c.executor, "generation.generate", func(callCtx context.Context) (string, error) {
		var response struct {
			Candidates []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"candidates"`
		}
		path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
		if err := c.postJSON(callCtx, path, request, &response, "generate"); err != nil {
			return "", err
		}

		if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
			return "", domain.WrapError(domain.ErrValidation, "generate", fmt.Errorf("response has no candidates"))
		}
		var builder strings.Builder
		for _, part := range response.Candidates[0].Content.Parts {
			builder.WriteString(part.Text)
		}
		return strings.TrimSpace(builder.String()), nil
	}, classifyGenerationError)
	if err != nil {
		return "", wrapUnavailableIfNeeded("generate", err)
	}
	return text, nil
}
