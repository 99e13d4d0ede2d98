package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/infrastructure/resilience"
)

const (
	connectTestTimeout = 15 * time.Second
	// How long a successful liveness probe stays valid before the next
	// operation re-checks the service.
	livenessWindow = 30 * time.Second
	// Pause after dropping a collection so the deletion commits before the
	// subsequent create.
	recreateSettleDelay = 2 * time.Second
)

// Client owns the passage collection in the external similarity-search
// service. The connection is logical: a liveness probe gates every operation,
// and a failed probe triggers a bounded reconnect before the error surfaces.
type Client struct {
	baseURL    string
	collection string
	dimension  int
	httpClient *http.Client
	executor   *resilience.Executor

	liveMu    sync.Mutex
	lastAlive time.Time
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(baseURL, collection string, dimension int, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	executor := options.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

// ensureLive re-validates the service before an operation. A recent probe is
// trusted; otherwise the probe runs under the retry executor so transient
// connection failures reconnect with backoff before surfacing.
func (c *Client) ensureLive(ctx context.Context) error {
	c.liveMu.Lock()
	if time.Since(c.lastAlive) < livenessWindow {
		c.liveMu.Unlock()
		return nil
	}
	c.liveMu.Unlock()

	err := c.executor.Execute(ctx, "qdrant.connect", func(callCtx context.Context) error {
		probeCtx, cancel := context.WithTimeout(callCtx, connectTestTimeout)
		defer cancel()
		var response struct {
			Result struct {
				Collections []struct {
					Name string `json:"name"`
				} `json:"collections"`
			} `json:"result"`
		}
		return c.getJSON(probeCtx, "/collections", &response, "connect")
	}, classifyQdrantError)
	if err != nil {
		c.markDown()
		return wrapUnavailableIfNeeded("vector index connect", err)
	}

	c.liveMu.Lock()
	c.lastAlive = time.Now()
	c.liveMu.Unlock()
	return nil
}

func (c *Client) markDown() {
	c.liveMu.Lock()
	c.lastAlive = time.Time{}
	c.liveMu.Unlock()
}

// EnsureCollection creates the backing collection with the configured vector
// dimension and cosine metric only if absent. Idempotent.
func (c *Client) EnsureCollection(ctx context.Context) error {
	if err := c.ensureLive(ctx); err != nil {
		return err
	}

	exists, err := c.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	request := map[string]any{
		"vectors": map[string]any{
			"size":     c.dimension,
			"distance": "Cosine",
		},
	}
	err = c.executor.Execute(ctx, "qdrant.create_collection", func(callCtx context.Context) error {
		return c.doJSON(callCtx, http.MethodPut, "/collections/"+c.collection, request, nil, "create collection")
	}, classifyQdrantError)
	if err != nil {
		// Concurrent creation races surface as a conflict; the collection
		// exists either way.
		var statusErr *HTTPStatusError
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			return nil
		}
		return wrapUnavailableIfNeeded("ensure collection", err)
	}
	return nil
}

func (c *Client) collectionExists(ctx context.Context) (bool, error) {
	var response struct {
		Result struct {
			Status string `json:"status"`
		} `json:"result"`
	}
	err := c.getJSON(ctx, "/collections/"+c.collection, &response, "get collection")
	if err == nil {
		return true, nil
	}
	var statusErr *HTTPStatusError
	if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, wrapUnavailableIfNeeded("get collection", err)
}

// CollectionStats reports the indexed point count and collection status.
func (c *Client) CollectionStats(ctx context.Context) (domain.CollectionStats, error) {
	if err := c.ensureLive(ctx); err != nil {
		return domain.CollectionStats{}, err
	}

	var response struct {
		Result struct {
			PointsCount int    `json:"points_count"`
			Status      string `json:"status"`
		} `json:"result"`
	}
	err := c.executor.Execute(ctx, "qdrant.stats", func(callCtx context.Context) error {
		return c.getJSON(callCtx, "/collections/"+c.collection, &response, "collection stats")
	}, classifyQdrantError)
	if err != nil {
		var statusErr *HTTPStatusError
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return domain.CollectionStats{Status: "absent"}, nil
		}
		return domain.CollectionStats{}, wrapUnavailableIfNeeded("collection stats", err)
	}
	return domain.CollectionStats{
		PointsCount: response.Result.PointsCount,
		Status:      response.Result.Status,
	}, nil
}

// Clear drops the collection. Missing collections are not an error.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.ensureLive(ctx); err != nil {
		return err
	}

	err := c.executor.Execute(ctx, "qdrant.delete_collection", func(callCtx context.Context) error {
		return c.doJSON(callCtx, http.MethodDelete, "/collections/"+c.collection, nil, nil, "delete collection")
	}, classifyQdrantError)
	if err != nil {
		var statusErr *HTTPStatusError
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return wrapUnavailableIfNeeded("clear collection", err)
	}
	return nil
}

// Recreate drops and recreates the collection. Destructive; used only when
// the embedding dimension changes or a full rebuild is requested.
func (c *Client) Recreate(ctx context.Context) error {
	if err := c.Clear(ctx); err != nil {
		return err
	}
	if err := sleepCtx(ctx, recreateSettleDelay); err != nil {
		return err
	}
	return c.EnsureCollection(ctx)
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

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
