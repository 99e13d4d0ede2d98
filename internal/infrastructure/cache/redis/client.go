package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avolkov/newschat/internal/core/domain"
)

// TTL tiers. Answers outlive sessions; transient API responses expire fast.
const (
	TTLShort   = 5 * time.Minute
	TTLMedium  = 30 * time.Minute
	TTLLong    = 2 * time.Hour
	TTLSession = 30 * time.Minute
)

// Client is the tiered-TTL key-value store shared by the answer cache and the
// session directory.
type Client struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return domain.WrapError(domain.ErrUnavailable, "cache ping", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetJSON loads and unmarshals a key. The boolean reports whether the key
// existed.
func (c *Client) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, domain.WrapError(domain.ErrUnavailable, "cache get", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal cached value for %q: %w", key, err)
	}
	return true, nil
}

func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return domain.WrapError(domain.ErrUnavailable, "cache set", err)
	}
	return nil
}

// Touch re-arms a key's expiry to the full window. Used for sliding TTLs.
func (c *Client) Touch(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return domain.WrapError(domain.ErrUnavailable, "cache touch", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return domain.WrapError(domain.ErrUnavailable, "cache delete", err)
	}
	return nil
}

// Keys enumerates keys matching a pattern via SCAN, never KEYS.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "cache scan", err)
	}
	return out, nil
}

