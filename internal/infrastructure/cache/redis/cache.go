package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docsift/docsift/internal/core/domain"
)

const keyPrefix = "answer:"

// AnswerCache stores complete answer results keyed by a hash of the
// normalized question. Entries expire via redis TTL; a missing or
// expired entry surfaces as domain.ErrCacheMiss.
type AnswerCache struct {
	client *redis.Client
}

func New(addr, password string, db int) (*AnswerCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &AnswerCache{client: client}, nil
}

// NewWithClient wires an existing client, used by tests.
func NewWithClient(client *redis.Client) *AnswerCache {
	return &AnswerCache{client: client}
}

func (c *AnswerCache) Get(ctx context.Context, question string) (domain.AnswerResult, error) {
	data, err := c.client.Get(ctx, cacheKey(question)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.AnswerResult{}, domain.ErrCacheMiss
		}
		return domain.AnswerResult{}, fmt.Errorf("redis get: %w", err)
	}

	var result domain.AnswerResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.AnswerResult{}, fmt.Errorf("decode cached answer: %w", err)
	}
	return result, nil
}

func (c *AnswerCache) Set(ctx context.Context, question string, result domain.AnswerResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(question), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping reports whether the cache backend is reachable.
func (c *AnswerCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (c *AnswerCache) Close() error {
	return c.client.Close()
}

// cacheKey hashes the lowercased normalized question so phrasings that
// differ only in case or whitespace share an entry.
func cacheKey(question string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(domain.NormalizeText(question))))
	return keyPrefix + hex.EncodeToString(sum[:])
}
