package question

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// Cache provides Redis-backed question pool caching to offload DB round trips.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ PoolCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(req FetchRequest) string {
	return strings.Join([]string{
		"questionpool",
		strings.ToLower(req.Topic),
		strings.ToLower(req.Difficulty),
		fmt.Sprint(req.Count),
	}, ":")
}

func (c *Cache) Get(ctx context.Context, req FetchRequest) ([]Question, error) {
	data, err := c.client.Get(ctx, c.key(req)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *Cache) Set(ctx context.Context, req FetchRequest, questions []Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(req), data, c.ttl).Err()
}
